package sqlite_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/castorcoop/scenariosync/internal/domain/lock"
	"github.com/castorcoop/scenariosync/internal/sqlite"
)

func TestLockStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	store := sqlite.NewLockStore(db)

	lk, err := store.Get(ctx, "castor")
	require.NoError(t, err)
	require.Nil(t, lk, "unlocked project reads as nil")

	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	err = store.RunLockTxn(ctx, "castor", func(current *lock.EditLock) (lock.TxnOutcome, *lock.EditLock) {
		require.Nil(t, current)
		return lock.TxnPut, &lock.EditLock{
			ProjectID:     "castor",
			OwnerIdentity: "anne",
			SessionID:     "sess-a",
			AcquiredAt:    now,
			ExpiresAt:     now.Add(5 * time.Minute),
			LastHeartbeat: now,
		}
	})
	require.NoError(t, err)

	lk, err = store.Get(ctx, "castor")
	require.NoError(t, err)
	require.NotNil(t, lk)
	require.Equal(t, "anne", lk.OwnerIdentity)
	require.True(t, lk.ExpiresAt.Equal(now.Add(5*time.Minute)))

	// Put over an existing row replaces it.
	err = store.RunLockTxn(ctx, "castor", func(current *lock.EditLock) (lock.TxnOutcome, *lock.EditLock) {
		require.NotNil(t, current)
		next := *current
		next.LastHeartbeat = now.Add(30 * time.Second)
		return lock.TxnPut, &next
	})
	require.NoError(t, err)

	err = store.RunLockTxn(ctx, "castor", func(*lock.EditLock) (lock.TxnOutcome, *lock.EditLock) {
		return lock.TxnDelete, nil
	})
	require.NoError(t, err)

	lk, err = store.Get(ctx, "castor")
	require.NoError(t, err)
	require.Nil(t, lk)
}

// Simultaneous acquisition attempts on the same project: the store's
// transactional read-modify-write must let exactly one through.
func TestLockStore_ConcurrentAcquire(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := lock.NewService(sqlite.NewLockStore(db), logger)

	const contenders = 10
	var acquired atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Acquire(ctx, "castor",
				fmt.Sprintf("user-%d", i), fmt.Sprintf("sess-%d", i))
			require.NoError(t, err)
			if res.Acquired {
				acquired.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), acquired.Load())
}
