// Package storage defines the Backend interface through which the
// retention core reads and deletes snapshot content, plus a local
// filesystem implementation and an in-memory one for tests.
//
// The core never writes content; capture is an external concern. New
// backends (object stores, network filesystems) plug in by satisfying
// the Backend interface.
package storage
