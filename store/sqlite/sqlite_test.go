package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qora/testnet-faucet/store/sqlite"
	"github.com/qora/testnet-faucet/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Harness {
		// A file-backed database: the pool may open several connections,
		// and each connection to ":memory:" would see its own database.
		store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })

		clock := storetest.NewClock()
		return storetest.Harness{
			Store:  store.WithClock(clock.Now),
			SetNow: clock.Set,
		}
	})
}
