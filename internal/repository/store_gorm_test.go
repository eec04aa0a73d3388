package repository

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestGormStore_Contract(t *testing.T) {
	runStoreContract(t, newSQLiteStore)
}

func TestGormStore_MigrateIsIdempotent(t *testing.T) {
	s := newSQLiteStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

// The SQLite store relies on a single connection to serialize transactions.
func TestGormStore_TransactionsDoNotOverlap(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	var inFlight, peak atomic.Int32
	race(racers, func(int) {
		err := s.InTx(ctx, func(Tx) error {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			return nil
		})
		assert.NoError(t, err)
	})
	assert.Equal(t, int32(1), peak.Load())
}
