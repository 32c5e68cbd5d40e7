package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when an operation is attempted after Close.
	ErrClosed = errors.New("storage is closed")

	// ErrLockTimeout is returned when the write lock could not be acquired
	// within the configured LockTimeout.
	ErrLockTimeout = errors.New("timed out waiting for database lock")

	// ErrCorrupted is the errors.Is target for *CorruptionError.
	ErrCorrupted = errors.New("corrupted database file")
)

// CorruptionError reports a malformed or out-of-range record. The operation
// that hit it cannot recover locally; the previously committed tree is still
// intact behind the root pointer.
type CorruptionError struct {
	Addr   uint64
	Reason string
}

// Error implements the error interface.
func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corrupted database file: record at offset %d: %s", e.Addr, e.Reason)
}

// Is makes errors.Is(err, ErrCorrupted) match any CorruptionError.
func (e *CorruptionError) Is(target error) bool {
	return target == ErrCorrupted
}

func corrupt(addr uint64, format string, args ...any) *CorruptionError {
	return &CorruptionError{Addr: addr, Reason: fmt.Sprintf(format, args...)}
}
