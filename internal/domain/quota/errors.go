package quota

import "errors"

var (
	// ErrExceeded indicates the consumption would exceed the user's limit.
	ErrExceeded = errors.New("quota exceeded")
	// ErrQuotaNotFound indicates no ledger entry exists for the user and kind.
	ErrQuotaNotFound = errors.New("quota not found")
)
