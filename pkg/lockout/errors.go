package lockout

import "errors"

var (
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
	ErrInvalidWindow      = errors.New("window must be positive")
	ErrInvalidLockout     = errors.New("lockout must be positive")
	ErrKeyRequired        = errors.New("key is required")
	ErrStoreRequired      = errors.New("store is required")
	ErrStoreUnavailable   = errors.New("lockout store unavailable")
)
