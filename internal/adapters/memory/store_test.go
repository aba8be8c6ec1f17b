package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
)

func TestStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	order := &domain.Order{ID: "ord-1", UserID: "u-1", Total: 27500, Status: domain.StatusPending}
	require.NoError(t, store.Create(ctx, order))
	assert.EqualValues(t, 1, order.Version)

	err := store.Create(ctx, order)
	require.ErrorIs(t, err, domain.ErrOrderExists)

	got, err := store.GetByID(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, int64(27500), got.Total)

	got.Status = domain.StatusPaid
	again, err := store.GetByID(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, again.Status)

	_, err = store.GetByID(ctx, "ord-404")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestStoreUpdateIsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Create(ctx, &domain.Order{ID: "ord-1", Status: domain.StatusPending}))

	paid := domain.StatusPaid
	updated, err := store.Update(ctx, "ord-1", domain.OrderPatch{
		ExpectedVersion: 1,
		Status:          &paid,
		Metadata:        map[string]string{domain.MetaProvider: "getnet"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, updated.Status)
	assert.EqualValues(t, 2, updated.Version)

	_, err = store.Update(ctx, "ord-1", domain.OrderPatch{ExpectedVersion: 1, Status: &paid})
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	updated, err = store.Update(ctx, "ord-1", domain.OrderPatch{
		ExpectedVersion: 2,
		Metadata:        map[string]string{domain.MetaProvider: "netget"},
	})
	require.NoError(t, err)
	assert.Equal(t, "getnet", updated.Metadata[domain.MetaProvider])
	assert.Equal(t, "netget", updated.Metadata[domain.MetaProvider+"_2"])

	_, err = store.Update(ctx, "ord-404", domain.OrderPatch{ExpectedVersion: 1})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestStoreConcurrentUpdatesOneWins(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Create(ctx, &domain.Order{ID: "ord-1", Status: domain.StatusPending}))

	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target := domain.StatusPaid
			if i%2 == 1 {
				target = domain.StatusCancelled
			}
			_, err := store.Update(ctx, "ord-1", domain.OrderPatch{ExpectedVersion: 1, Status: &target})
			if err == nil {
				wins.Add(1)
			} else if assert.ErrorIs(t, err, domain.ErrVersionConflict) {
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	assert.EqualValues(t, 15, conflicts.Load())
}
