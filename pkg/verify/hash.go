package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// HashContent computes the SHA-256 digest of the full content and
// returns it hex-encoded. Unlike request-logging hashes, integrity
// checksums always cover every byte: a truncated hash would let tail
// corruption go undetected.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashReader computes the hex-encoded SHA-256 digest of everything
// readable from r. Used at capture time to checksum large artifacts
// without loading them into memory.
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
