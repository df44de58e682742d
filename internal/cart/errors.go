package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput means a mutation was called with malformed arguments.
	// No state changed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means the referenced product is not in the cart.
	ErrNotFound = errors.New("product not in cart")

	// ErrNoSession means a sync was requested without an associated user.
	// Callers treat this as a silent no-op, not a failure.
	ErrNoSession = errors.New("no user session")
)

// StorageError wraps a local durable store failure. The mutation that hit it
// has already been rolled back.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("cart storage: %v", e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// SyncError wraps a remote cart or product lookup failure. Local state is
// never rolled back for these; they are recorded in SyncState instead.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string { return fmt.Sprintf("cart sync %s: %v", e.Op, e.Err) }
func (e *SyncError) Unwrap() error { return e.Err }
