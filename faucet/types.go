/*
Package faucet implements the core of the testnet transfer service.

PURPOSE:
  This package contains the transfer orchestrator and everything it
  composes: canonical amount arithmetic, the rate-limiting ledger
  contract, limit validation, and the node-failover broadcaster.
  Collaborators that live at the network edge (node client, transaction
  builder, signer, key material) are consumed through interfaces defined
  here and implemented in the nem package.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: a quantity of XQC in micro-units, backed by decimal.Decimal
  - DateStamp: an integer calendar day (YYYYMMDD) used as a ledger key
  - SignedTransaction: the opaque payload handed to the broadcaster

DESIGN PRINCIPLES:
  1. Exactness: all amount arithmetic is exact decimal, never float
  2. One denomination: comparisons happen in micro-units only
  3. Injection: the orchestrator receives every dependency explicitly

SEE ALSO:
  - policy.go: limit validation over Amounts
  - store.go: ledger persistence contract keyed by (address, DateStamp)
  - service.go: the transfer orchestrator
*/
package faucet

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Exact XQC quantity in micro-units
// =============================================================================

// MicroPerXQC is the number of micro-units in one XQC.
var MicroPerXQC = decimal.New(1, 6)

// Amount is a quantity of XQC expressed in micro-units (µXQC), the
// smallest transferable unit. All limit comparisons and ledger values
// use this single canonical representation.
type Amount struct {
	Value decimal.Decimal
}

// NewAmount creates an Amount from a micro-unit count.
func NewAmount(micro int64) Amount {
	return Amount{Value: decimal.NewFromInt(micro)}
}

// FromXQC converts an XQC-denominated decimal into micro-units.
func FromXQC(xqc decimal.Decimal) Amount {
	return Amount{Value: xqc.Mul(MicroPerXQC)}
}

// ParseAmount parses an XQC-denominated decimal string ("5", "0.25")
// and normalizes it to micro-units. Quantities finer than one
// micro-unit are rejected rather than rounded.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	micro := d.Mul(MicroPerXQC)
	if !micro.IsInteger() {
		return Amount{}, fmt.Errorf("amount %q is finer than one micro-unit", s)
	}
	return Amount{Value: micro}, nil
}

func (a Amount) Add(b Amount) Amount       { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Cmp(b Amount) int          { return a.Value.Cmp(b.Value) }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) IsPositive() bool          { return a.Value.IsPositive() }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }

// Micro returns the micro-unit count. Ledger values fit int64 by a wide
// margin (the full mosaic supply is below 2^53 micro-units).
func (a Amount) Micro() int64 { return a.Value.IntPart() }

// XQC returns the amount in display denomination.
func (a Amount) XQC() decimal.Decimal { return a.Value.Div(MicroPerXQC) }

func (a Amount) String() string { return a.Value.String() }

// MarshalJSON encodes the micro-unit value as a decimal string.
func (a Amount) MarshalJSON() ([]byte, error) { return a.Value.MarshalJSON() }

// UnmarshalJSON accepts a micro-unit decimal number or string.
func (a *Amount) UnmarshalJSON(b []byte) error { return a.Value.UnmarshalJSON(b) }

// ZeroAmount is the additive identity.
func ZeroAmount() Amount { return Amount{Value: decimal.Zero} }

// =============================================================================
// DATE STAMP - Integer calendar day, the ledger's time key
// =============================================================================

// DateStamp is a calendar day encoded as YYYYMMDD. Entries for past
// stamps are frozen history; only today's entry ever changes.
type DateStamp int

// DateStampAt converts a wall-clock time to its UTC date stamp.
func DateStampAt(t time.Time) DateStamp {
	t = t.UTC()
	return DateStamp(t.Year()*10000 + int(t.Month())*100 + t.Day())
}

// Today returns the current UTC date stamp.
func Today() DateStamp { return DateStampAt(time.Now()) }

// Time returns midnight UTC of the stamped day.
func (d DateStamp) Time() time.Time {
	return time.Date(int(d)/10000, time.Month(int(d)/100%100), int(d)%100, 0, 0, 0, 0, time.UTC)
}

func (d DateStamp) String() string { return fmt.Sprintf("%08d", int(d)) }

// =============================================================================
// SIGNED TRANSACTION - Opaque broadcast payload
// =============================================================================

// SignedTransaction pairs a transaction's canonical byte encoding with
// its signature. The broadcaster treats both as opaque.
type SignedTransaction struct {
	Data      []byte
	Signature []byte
}
