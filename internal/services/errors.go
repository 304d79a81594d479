package services

import "errors"

// Error kinds surfaced by the rental lifecycle. Handlers translate these to
// HTTP responses; every failure is reported to the user and none are retried
// automatically.
var (
	// ErrNotFound means a referenced bike, user, station or transaction
	// does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrBikeUnavailable means the target bike is not in the available
	// state at rental time.
	ErrBikeUnavailable = errors.New("bike is not available for rental")

	// ErrInvalidTransition means the requested status change is not in the
	// rental state machine's transition table.
	ErrInvalidTransition = errors.New("invalid rental status transition")

	// ErrInvalidRentalWindow means the rent/return dates are reversed or
	// equal at day granularity.
	ErrInvalidRentalWindow = errors.New("return date must be after rent date")

	// ErrForbidden means the caller does not own the transaction it is
	// trying to change.
	ErrForbidden = errors.New("not allowed to modify this rental")

	// ErrPartialFailure means a second system failed after the first write
	// committed, leaving cleanup to the caller.
	ErrPartialFailure = errors.New("operation partially applied")
)
