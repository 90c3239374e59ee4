/*
policy.go - Limit validation for transfer requests

PURPOSE:
  Pure verdict logic over the requested amount and the current ledger
  totals. No I/O here: the orchestrator reads the totals and passes
  them in, so the policy is trivially testable.

EVALUATION ORDER (first match wins):
  1. InvalidAmount          amount <= 0
  2. AddressLimitExceeded   addressTotal + amount > per-address ceiling
  3. DailyLimitExceeded     dailyTotal > daily ceiling

  The daily check is a strict "already over" test against the
  pre-transfer total; the requesting amount is deliberately not added.
  A small request is still refused once prior activity breached the
  ceiling.
*/
package faucet

// Verdict is the outcome of a limit check.
type Verdict string

const (
	VerdictValid                Verdict = "valid"
	VerdictInvalidAmount        Verdict = "invalid_amount"
	VerdictAddressLimitExceeded Verdict = "address_limit_exceeded"
	VerdictDailyLimitExceeded   Verdict = "daily_limit_exceeded"
)

// Limits holds the configured transfer ceilings in micro-units.
type Limits struct {
	// MaxPerAddress caps the cumulative amount one address may receive.
	MaxPerAddress Amount
	// MaxPerDay caps the aggregate amount sent per day across addresses.
	MaxPerDay Amount
}

// Evaluate returns the verdict for a requested amount given the current
// cumulative totals. Totals may be slightly stale under concurrency;
// that approximation is accepted (see Service).
func (l Limits) Evaluate(amount, addressTotal, dailyTotal Amount) Verdict {
	if !amount.IsPositive() {
		return VerdictInvalidAmount
	}
	if addressTotal.Add(amount).GreaterThan(l.MaxPerAddress) {
		return VerdictAddressLimitExceeded
	}
	if dailyTotal.GreaterThan(l.MaxPerDay) {
		return VerdictDailyLimitExceeded
	}
	return VerdictValid
}

// Check evaluates the limits and returns a *LimitError for any
// non-valid verdict, nil otherwise.
func (l Limits) Check(amount, addressTotal, dailyTotal Amount) error {
	switch v := l.Evaluate(amount, addressTotal, dailyTotal); v {
	case VerdictValid:
		return nil
	case VerdictInvalidAmount:
		return &LimitError{Verdict: v, Requested: amount}
	case VerdictAddressLimitExceeded:
		return &LimitError{Verdict: v, Requested: amount, Current: addressTotal, Ceiling: l.MaxPerAddress}
	default:
		return &LimitError{Verdict: v, Requested: amount, Current: dailyTotal, Ceiling: l.MaxPerDay}
	}
}
