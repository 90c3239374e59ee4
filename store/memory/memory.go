// Package memory provides an in-memory LedgerStore (for testing/dev).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/qora/testnet-faucet/faucet"
)

// Store keeps ledger entries in a map keyed by (address, date).
// All operations take the single mutex, which trivially satisfies the
// atomic-increment contract.
type Store struct {
	mu      sync.RWMutex
	entries map[key]faucet.Amount
	now     func() time.Time
}

type key struct {
	Address string
	Date    faucet.DateStamp
}

func New() *Store {
	return &Store{
		entries: make(map[key]faucet.Amount),
		now:     time.Now,
	}
}

// WithClock substitutes the wall clock. Tests use this to write
// entries on distinct dates.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) today() faucet.DateStamp { return faucet.DateStampAt(s.now()) }

func (s *Store) Put(_ context.Context, address string, amount faucet.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key{address, s.today()}] = amount
	return nil
}

func (s *Store) Increment(_ context.Context, address string, delta faucet.Amount) (faucet.Amount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{address, s.today()}
	next := s.entries[k].Add(delta) // missing entry reads as zero
	s.entries[k] = next
	return next, nil
}

func (s *Store) Get(_ context.Context, address string) (faucet.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	amount, ok := s.entries[key{address, s.today()}]
	if !ok {
		return faucet.Amount{}, faucet.ErrNotFound
	}
	return amount, nil
}

func (s *Store) TotalByAddress(_ context.Context, address string) (faucet.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := faucet.ZeroAmount()
	for k, v := range s.entries {
		if k.Address == address {
			total = total.Add(v)
		}
	}
	return total, nil
}

func (s *Store) TotalByDate(_ context.Context, date faucet.DateStamp) (faucet.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := faucet.ZeroAmount()
	for k, v := range s.entries {
		if k.Date == date {
			total = total.Add(v)
		}
	}
	return total, nil
}

func (s *Store) Create(context.Context) error { return nil }

func (s *Store) Drop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[key]faucet.Amount)
	return nil
}

var _ faucet.LedgerStore = (*Store)(nil)
