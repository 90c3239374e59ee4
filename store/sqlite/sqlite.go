/*
Package sqlite provides the default SQLite-backed LedgerStore.

KEY TABLE:
  ledger_entries(address TEXT, date INTEGER, amount INTEGER,
                 PRIMARY KEY (address, date))

  Amounts are stored as integer micro-units, so SQL arithmetic on them
  is exact. The primary key makes per-address history an indexed range
  scan; idx_ledger_entries_date serves the cross-address daily
  aggregate.

ATOMIC INCREMENT:
  INSERT ... ON CONFLICT DO UPDATE SET amount = amount + excluded.amount
  performed in one statement, so concurrent increments of the same
  (address, date) key cannot lose an update.

WAL MODE:
  Opened with WAL so readers don't block the writer.

USAGE:
  store, err := sqlite.New("./faucet.db")
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/qora/testnet-faucet/faucet"
)

// Store implements faucet.LedgerStore on SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the database at dbPath and provisions the
// schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.Create(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// WithClock substitutes the wall clock (tests only).
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) today() faucet.DateStamp { return faucet.DateStampAt(s.now()) }

// Create provisions the ledger table and its date index.
func (s *Store) Create(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS ledger_entries (
		address TEXT NOT NULL,
		date INTEGER NOT NULL,
		amount INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (address, date)
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_entries_date
		ON ledger_entries(date);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return faucet.StoreUnavailable("create ledger table", err)
	}
	return nil
}

// Drop destroys the ledger table and all history.
func (s *Store) Drop(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS ledger_entries`); err != nil {
		return faucet.StoreUnavailable("drop ledger table", err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, address string, amount faucet.Amount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_entries (address, date, amount) VALUES (?, ?, ?)
		ON CONFLICT (address, date) DO UPDATE SET amount = excluded.amount`,
		address, int(s.today()), amount.Micro())
	if err != nil {
		return faucet.StoreUnavailable("put", err)
	}
	return nil
}

func (s *Store) Increment(ctx context.Context, address string, delta faucet.Amount) (faucet.Amount, error) {
	var next int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO ledger_entries (address, date, amount) VALUES (?, ?, ?)
		ON CONFLICT (address, date) DO UPDATE SET amount = amount + excluded.amount
		RETURNING amount`,
		address, int(s.today()), delta.Micro()).Scan(&next)
	if err != nil {
		return faucet.Amount{}, faucet.StoreUnavailable("increment", err)
	}
	return faucet.NewAmount(next), nil
}

func (s *Store) Get(ctx context.Context, address string) (faucet.Amount, error) {
	var micro int64
	err := s.db.QueryRowContext(ctx,
		`SELECT amount FROM ledger_entries WHERE address = ? AND date = ?`,
		address, int(s.today())).Scan(&micro)
	if errors.Is(err, sql.ErrNoRows) {
		return faucet.Amount{}, faucet.ErrNotFound
	}
	if err != nil {
		return faucet.Amount{}, faucet.StoreUnavailable("get", err)
	}
	return faucet.NewAmount(micro), nil
}

func (s *Store) TotalByAddress(ctx context.Context, address string) (faucet.Amount, error) {
	var micro int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE address = ?`,
		address).Scan(&micro)
	if err != nil {
		return faucet.Amount{}, faucet.StoreUnavailable("total by address", err)
	}
	return faucet.NewAmount(micro), nil
}

func (s *Store) TotalByDate(ctx context.Context, date faucet.DateStamp) (faucet.Amount, error) {
	var micro int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE date = ?`,
		int(date)).Scan(&micro)
	if err != nil {
		return faucet.Amount{}, faucet.StoreUnavailable("total by date", err)
	}
	return faucet.NewAmount(micro), nil
}

var _ faucet.LedgerStore = (*Store)(nil)
