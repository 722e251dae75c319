package ledger

import "errors"

// Error taxonomy for the ledger engine. Callers classify failures with
// errors.Is; wrapped errors carry the operation detail.
var (
	// ErrValidation marks a missing or non-numeric required field,
	// detected before any state mutation.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientBalance marks a wallet balance below the required
	// cost, detected before the debit.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNotFound marks a missing user or wallet row.
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable marks a quote or rate provider failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrPersistence marks a failed store write.
	ErrPersistence = errors.New("persistence failure")
)
