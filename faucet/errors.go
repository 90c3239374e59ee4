/*
errors.go - Centralized error types for the faucet core

ERROR CATEGORIES:
  1. Validation errors - limit policy rejections, user-facing
  2. Store errors - ledger persistence failures
  3. Broadcast errors - terminal transaction-invalidity outcomes

USAGE:
  Callers classify with errors.Is:

    if errors.Is(err, faucet.ErrAddressLimitExceeded) { ... }

  Structured errors carry the numbers behind a rejection and unwrap to
  the matching sentinel.
*/
package faucet

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned for a non-positive transfer amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrAddressLimitExceeded is returned when a transfer would push an
	// address past its cumulative ceiling.
	ErrAddressLimitExceeded = errors.New("address limit exceeded")

	// ErrDailyLimitExceeded is returned when the day's aggregate total is
	// already past the daily ceiling.
	ErrDailyLimitExceeded = errors.New("daily limit exceeded")

	// ErrNotFound is returned by Get when no entry exists for the key.
	ErrNotFound = errors.New("ledger entry not found")

	// ErrStoreUnavailable marks a retryable backing-store failure.
	ErrStoreUnavailable = errors.New("ledger store unavailable")

	// ErrAllNodesExhausted is returned when every candidate node was
	// tried without a terminal outcome.
	ErrAllNodesExhausted = errors.New("all nodes exhausted")
)

// StoreUnavailable wraps a backend failure so it classifies as
// ErrStoreUnavailable while keeping the driver error in the chain.
func StoreUnavailable(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStoreUnavailable, err))
}

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// LimitError reports a limit policy rejection with the amounts involved.
type LimitError struct {
	Verdict   Verdict
	Requested Amount
	Current   Amount // cumulative total the check was made against
	Ceiling   Amount
}

func (e *LimitError) Error() string {
	switch e.Verdict {
	case VerdictInvalidAmount:
		return fmt.Sprintf("invalid amount: %v", e.Requested)
	case VerdictAddressLimitExceeded:
		return fmt.Sprintf("address limit exceeded: requested %v, already sent %v, ceiling %v",
			e.Requested, e.Current, e.Ceiling)
	case VerdictDailyLimitExceeded:
		return fmt.Sprintf("daily limit exceeded: daily total %v over ceiling %v",
			e.Current, e.Ceiling)
	default:
		return fmt.Sprintf("limit check failed: %s", e.Verdict)
	}
}

func (e *LimitError) Unwrap() error {
	switch e.Verdict {
	case VerdictInvalidAmount:
		return ErrInvalidAmount
	case VerdictAddressLimitExceeded:
		return ErrAddressLimitExceeded
	case VerdictDailyLimitExceeded:
		return ErrDailyLimitExceeded
	default:
		return nil
	}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsClientError returns true if the error is due to the request itself.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrAddressLimitExceeded) ||
		errors.Is(err, ErrDailyLimitExceeded)
}
