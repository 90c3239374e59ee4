/*
Package storetest is the conformance suite every LedgerStore backend
must pass. Each backend's _test.go constructs a Harness and calls Run;
the suite exercises the increment atomicity contract, the
missing-entry-as-zero behavior, and the aggregate round-trips.
*/
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qora/testnet-faucet/faucet"
)

// Harness wraps a store under test. SetNow repoints the store's clock
// so the suite can write entries on distinct dates.
type Harness struct {
	Store  faucet.LedgerStore
	SetNow func(time.Time)
}

// Factory builds a fresh, empty store per subtest.
type Factory func(t *testing.T) Harness

// Run executes the conformance suite against the factory's stores.
func Run(t *testing.T, factory Factory) {
	ctx := context.Background()

	t.Run("IncrementCreatesMissingEntryAsZero", func(t *testing.T) {
		h := factory(t)
		got, err := h.Store.Increment(ctx, "ADDR1", faucet.NewAmount(10))
		require.NoError(t, err)
		assert.Equal(t, int64(10), got.Micro())

		got, err = h.Store.Increment(ctx, "ADDR1", faucet.NewAmount(5))
		require.NoError(t, err)
		assert.Equal(t, int64(15), got.Micro())

		stored, err := h.Store.Get(ctx, "ADDR1")
		require.NoError(t, err)
		assert.Equal(t, int64(15), stored.Micro())
	})

	t.Run("IncrementZeroIsIdentity", func(t *testing.T) {
		h := factory(t)
		_, err := h.Store.Increment(ctx, "ADDR1", faucet.NewAmount(42))
		require.NoError(t, err)

		got, err := h.Store.Increment(ctx, "ADDR1", faucet.NewAmount(0))
		require.NoError(t, err)
		assert.Equal(t, int64(42), got.Micro())
	})

	t.Run("SplitIncrementEqualsSingleIncrement", func(t *testing.T) {
		h := factory(t)
		_, err := h.Store.Increment(ctx, "SPLIT", faucet.NewAmount(7))
		require.NoError(t, err)
		_, err = h.Store.Increment(ctx, "SPLIT", faucet.NewAmount(13))
		require.NoError(t, err)
		_, err = h.Store.Increment(ctx, "WHOLE", faucet.NewAmount(20))
		require.NoError(t, err)

		split, err := h.Store.Get(ctx, "SPLIT")
		require.NoError(t, err)
		whole, err := h.Store.Get(ctx, "WHOLE")
		require.NoError(t, err)
		assert.Equal(t, whole.Micro(), split.Micro())
	})

	t.Run("PutOverwritesAbsolutely", func(t *testing.T) {
		h := factory(t)
		require.NoError(t, h.Store.Put(ctx, "ADDR1", faucet.NewAmount(100)))
		require.NoError(t, h.Store.Put(ctx, "ADDR1", faucet.NewAmount(30)))

		got, err := h.Store.Get(ctx, "ADDR1")
		require.NoError(t, err)
		assert.Equal(t, int64(30), got.Micro(), "Put must not read-modify-write")
	})

	t.Run("GetMissingIsNotFound", func(t *testing.T) {
		h := factory(t)
		_, err := h.Store.Get(ctx, "NOBODY")
		assert.ErrorIs(t, err, faucet.ErrNotFound)

		def, err := faucet.GetOrDefault(ctx, h.Store, "NOBODY", faucet.NewAmount(9))
		require.NoError(t, err)
		assert.Equal(t, int64(9), def.Micro())
	})

	t.Run("TotalByDateRoundTrip", func(t *testing.T) {
		h := factory(t)
		now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
		h.SetNow(now)

		for i, amount := range []int64{10, 20, 30} {
			addr := []string{"A1", "A2", "A3"}[i]
			_, err := h.Store.Increment(ctx, addr, faucet.NewAmount(amount))
			require.NoError(t, err)
		}

		total, err := h.Store.TotalByDate(ctx, faucet.DateStampAt(now))
		require.NoError(t, err)
		assert.Equal(t, int64(60), total.Micro())

		empty, err := h.Store.TotalByDate(ctx, faucet.DateStamp(19990101))
		require.NoError(t, err)
		assert.True(t, empty.IsZero())
	})

	t.Run("TotalByAddressSpansDates", func(t *testing.T) {
		h := factory(t)
		day1 := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
		day2 := day1.AddDate(0, 0, 1)

		h.SetNow(day1)
		_, err := h.Store.Increment(ctx, "ADDR1", faucet.NewAmount(10))
		require.NoError(t, err)
		_, err = h.Store.Increment(ctx, "OTHER", faucet.NewAmount(99))
		require.NoError(t, err)

		h.SetNow(day2)
		_, err = h.Store.Increment(ctx, "ADDR1", faucet.NewAmount(25))
		require.NoError(t, err)

		total, err := h.Store.TotalByAddress(ctx, "ADDR1")
		require.NoError(t, err)
		assert.Equal(t, int64(35), total.Micro())

		// Yesterday's entry is frozen history, unaffected by today's writes.
		day1Total, err := h.Store.TotalByDate(ctx, faucet.DateStampAt(day1))
		require.NoError(t, err)
		assert.Equal(t, int64(109), day1Total.Micro())
	})

	t.Run("ConcurrentIncrementsLoseNoUpdates", func(t *testing.T) {
		h := factory(t)
		const workers = 16

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.Store.Increment(ctx, "HOT", faucet.NewAmount(1))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := h.Store.Get(ctx, "HOT")
		require.NoError(t, err)
		assert.Equal(t, int64(workers), got.Micro())
	})

	t.Run("DropDiscardsEverything", func(t *testing.T) {
		h := factory(t)
		_, err := h.Store.Increment(ctx, "ADDR1", faucet.NewAmount(5))
		require.NoError(t, err)

		require.NoError(t, h.Store.Drop(ctx))
		require.NoError(t, h.Store.Create(ctx))

		_, err = h.Store.Get(ctx, "ADDR1")
		assert.ErrorIs(t, err, faucet.ErrNotFound)
	})
}
