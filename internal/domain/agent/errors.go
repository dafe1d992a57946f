package agent

import "errors"

// Error taxonomy for ledger lookups. Callers classify with errors.Is; the
// gateway never retries internally.
var (
	// ErrInvalidAddress is returned before any I/O when the address fails the
	// syntactic check.
	ErrInvalidAddress = errors.New("invalid agent address")

	// ErrNotFound means the ledger has no record for the address.
	ErrNotFound = errors.New("agent not found")

	// ErrFetchFailed wraps transient upstream failures; safe for the caller
	// to retry with backoff.
	ErrFetchFailed = errors.New("ledger fetch failed")

	// ErrTimeout means the upstream call exceeded its deadline.
	ErrTimeout = errors.New("ledger fetch timed out")
)
