package mining

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidRigType    = errors.New("invalid rig type")
	ErrAlreadyCompleted  = errors.New("mining already completed")

	// ErrStoreUnavailable marks transient persistence failures. Inside a tick
	// it aborts the remainder of the tick and the loop retries with backoff
	// instead of dying.
	ErrStoreUnavailable = errors.New("store unavailable")
)
