/*
Package redis provides a Redis-backed LedgerStore.

LAYOUT:
  faucet:ledger:date:<YYYYMMDD>  hash  field=address  value=micro-units
  faucet:ledger:addr:<address>   hash  field=date     value=micro-units

  The same entry is written to both hashes: the date hash serves the
  daily aggregate, the address hash serves per-address history. HINCRBY
  is atomic per key, which satisfies the increment contract for the
  (date, address) entry the limit checks depend on; the mirrored
  address-hash write rides in the same pipeline.
*/
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/qora/testnet-faucet/faucet"
)

const keyPrefix = "faucet:ledger"

// Store implements faucet.LedgerStore on Redis hashes.
type Store struct {
	rdb *redis.Client
	now func() time.Time
}

// New creates a store over an existing Redis client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, now: time.Now}
}

// WithClock substitutes the wall clock (tests only).
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) today() faucet.DateStamp { return faucet.DateStampAt(s.now()) }

func dateKey(d faucet.DateStamp) string { return fmt.Sprintf("%s:date:%s", keyPrefix, d) }
func addrKey(address string) string     { return keyPrefix + ":addr:" + address }

func (s *Store) Put(ctx context.Context, address string, amount faucet.Amount) error {
	date := s.today()
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, dateKey(date), address, amount.Micro())
	pipe.HSet(ctx, addrKey(address), date.String(), amount.Micro())
	if _, err := pipe.Exec(ctx); err != nil {
		return faucet.StoreUnavailable("put", err)
	}
	return nil
}

func (s *Store) Increment(ctx context.Context, address string, delta faucet.Amount) (faucet.Amount, error) {
	date := s.today()
	pipe := s.rdb.Pipeline()
	next := pipe.HIncrBy(ctx, dateKey(date), address, delta.Micro())
	pipe.HIncrBy(ctx, addrKey(address), date.String(), delta.Micro())
	if _, err := pipe.Exec(ctx); err != nil {
		return faucet.Amount{}, faucet.StoreUnavailable("increment", err)
	}
	return faucet.NewAmount(next.Val()), nil
}

func (s *Store) Get(ctx context.Context, address string) (faucet.Amount, error) {
	val, err := s.rdb.HGet(ctx, dateKey(s.today()), address).Result()
	if err == redis.Nil {
		return faucet.Amount{}, faucet.ErrNotFound
	}
	if err != nil {
		return faucet.Amount{}, faucet.StoreUnavailable("get", err)
	}
	return parseMicro(val)
}

func (s *Store) TotalByAddress(ctx context.Context, address string) (faucet.Amount, error) {
	return s.sumHash(ctx, addrKey(address), "total by address")
}

func (s *Store) TotalByDate(ctx context.Context, date faucet.DateStamp) (faucet.Amount, error) {
	return s.sumHash(ctx, dateKey(date), "total by date")
}

func (s *Store) sumHash(ctx context.Context, key, op string) (faucet.Amount, error) {
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return faucet.Amount{}, faucet.StoreUnavailable(op, err)
	}
	total := faucet.ZeroAmount()
	for _, v := range fields {
		amount, err := parseMicro(v)
		if err != nil {
			return faucet.Amount{}, err
		}
		total = total.Add(amount)
	}
	return total, nil
}

// Create is a no-op: Redis needs no schema.
func (s *Store) Create(context.Context) error { return nil }

// Drop removes every ledger key. SCAN-based so it stays safe on a
// shared instance.
func (s *Store) Drop(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, keyPrefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return faucet.StoreUnavailable("drop", err)
		}
	}
	if err := iter.Err(); err != nil {
		return faucet.StoreUnavailable("drop", err)
	}
	return nil
}

func parseMicro(s string) (faucet.Amount, error) {
	micro, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return faucet.Amount{}, fmt.Errorf("parse stored amount %q: %w", s, err)
	}
	return faucet.NewAmount(micro), nil
}

var _ faucet.LedgerStore = (*Store)(nil)
