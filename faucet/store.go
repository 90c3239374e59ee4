/*
store.go - Persistence contract for the rate-limiting ledger

PURPOSE:
  Defines the interface between the orchestrator and the ledger table.
  One row per (address, date) holding the cumulative amount transferred
  to that address on that day. Implementations exist for SQLite,
  PostgreSQL, Redis, and memory.

KEY SCHEMA:
  Partition component: address. Range component: date. Per-address
  history is an indexed range query; the cross-address daily aggregate
  uses a secondary date index.

ATOMICITY CONTRACT:
  Increment is the only correctness-critical operation: two concurrent
  transfers to the same address on the same day must not lose an
  update. Every implementation performs the add inside the backend
  (UPSERT arithmetic, HINCRBY), never read-then-write in Go.

FAILURE SEMANTICS:
  Backend unavailability wraps ErrStoreUnavailable. A Get miss is
  ErrNotFound; use GetOrDefault to substitute a caller default.

IMPLEMENTATIONS:
  - store/sqlite:   default backend
  - store/postgres: production option
  - store/redis:    counter-style backend
  - store/memory:   tests and development
*/
package faucet

import (
	"context"
	"errors"
)

// LedgerStore persists cumulative per-day transfer totals.
// Entries only ever grow; past days are frozen history.
type LedgerStore interface {
	// Put overwrites today's entry for address with an absolute amount.
	// No read-modify-write; the previous value is discarded.
	Put(ctx context.Context, address string, amount Amount) error

	// Increment atomically adds delta to today's entry for address,
	// treating a missing entry as zero, and returns the new cumulative
	// value. Safe against concurrent increments of the same key.
	Increment(ctx context.Context, address string, delta Amount) (Amount, error)

	// Get returns today's cumulative amount for address, or ErrNotFound.
	Get(ctx context.Context, address string) (Amount, error)

	// TotalByAddress sums all entries for address across all dates.
	// Cost is linear in the address's history.
	TotalByAddress(ctx context.Context, address string) (Amount, error)

	// TotalByDate sums all entries for a single date across addresses.
	TotalByDate(ctx context.Context, date DateStamp) (Amount, error)

	// Create provisions the backing table. Not on the request hot path.
	Create(ctx context.Context) error

	// Drop destroys the backing table and all history.
	Drop(ctx context.Context) error
}

// GetOrDefault looks up today's entry, substituting def when absent.
func GetOrDefault(ctx context.Context, s LedgerStore, address string, def Amount) (Amount, error) {
	amount, err := s.Get(ctx, address)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	return amount, err
}
