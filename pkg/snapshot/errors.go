package snapshot

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by Registry implementations.
var (
	// ErrNotFound is returned when no snapshot exists with the
	// requested ID.
	ErrNotFound = errors.New("snapshot not found")

	// ErrInvalidTransition is returned when a status change would
	// violate the one-way lifecycle (e.g. Pruned back to Active).
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ConfigError reports an invalid retention or quota configuration.
// Configuration errors are fatal: a cycle carrying one aborts before
// any I/O and persists no partial decisions.
type ConfigError struct {
	Field   string // dotted path to the offending field
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error [%s]: %s", e.Field, e.Message)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// IntegrityError reports a failed integrity check: either the
// recomputed checksum did not match the recorded one, or the content
// could not be read at all. Integrity errors are recoverable; the
// snapshot is marked Corrupt and stays subject to normal pruning.
type IntegrityError struct {
	SnapshotID string
	Expected   string // recorded checksum (empty for unreadable content)
	Actual     string // recomputed checksum (empty for unreadable content)
	Cause      error  // set when the content was unreadable
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("integrity error [snapshot=%s]: content unreadable: %v", e.SnapshotID, e.Cause)
	}
	return fmt.Sprintf("integrity error [snapshot=%s]: checksum mismatch: expected %s, got %s",
		e.SnapshotID, e.Expected, e.Actual)
}

// Unwrap returns the underlying cause error, if any.
func (e *IntegrityError) Unwrap() error {
	return e.Cause
}

// StorageError reports a failure from a storage collaborator (registry
// or content backend). Storage errors are recoverable per item and are
// surfaced for operator retry, never auto-retried within a cycle.
type StorageError struct {
	Backend   string // backend type ("sqlite", "fs", "memory", ...)
	Operation string // operation that failed ("read", "delete", ...)
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// ConcurrencyError reports that the cycle lease is held by another
// invocation. The cycle never starts; the caller should retry after
// the lease expires.
type ConcurrencyError struct {
	Holder  string    // owner ID of the current lease holder
	Expires time.Time // when the lease lapses if not renewed
}

// Error implements the error interface.
func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("retention cycle lease held by %s until %s",
		e.Holder, e.Expires.UTC().Format(time.RFC3339))
}
