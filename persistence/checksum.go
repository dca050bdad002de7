package persistence

import (
	"fmt"

	"github.com/hupe1980/kozinec/internal/hash"
)

// ChecksumMismatchError is returned when a stored CRC32C does not match.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

func verify(data []byte, expected uint32) error {
	if actual := hash.CRC32C(data); actual != expected {
		return &ChecksumMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}
