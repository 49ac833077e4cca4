package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"hockeyshop/models"
)

// verifyNoLeaks checks for stray goroutines from the watch machinery.
// The store stays open until t.Cleanup, so the sql pool's opener
// goroutine is still running and has to be ignored here.
func verifyNoLeaks(t *testing.T) {
	goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))
}

func recv[T any](t *testing.T, ch <-chan models.Resource[T]) models.Resource[T] {
	t.Helper()
	select {
	case r, ok := <-ch:
		require.True(t, ok, "channel closed early")
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for emission")
		return models.Resource[T]{}
	}
}

func TestWatchItemsEmitsLoadingThenSnapshot(t *testing.T) {
	defer verifyNoLeaks(t)

	e := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.loginShopper(t)
	product := e.createProduct(t, "Stick", 50, 5, 0)

	ch := e.carts.WatchItems(ctx)

	first := recv(t, ch)
	assert.True(t, first.IsLoading())

	snapshot := recv(t, ch)
	require.True(t, snapshot.IsSuccess(), snapshot.Message())
	assert.Empty(t, snapshot.Value())

	require.True(t, e.carts.SetQuantity(ctx, product.ID, 3).IsSuccess())

	updated := recv(t, ch)
	require.True(t, updated.IsSuccess(), updated.Message())
	require.Len(t, updated.Value(), 1)
	assert.Equal(t, 3, updated.Value()[0].Quantity)
}

func TestWatchItemsSeesCategoryRename(t *testing.T) {
	defer verifyNoLeaks(t)

	e := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.loginShopper(t)
	product := e.createProduct(t, "Stick", 50, 5, 0)
	require.True(t, e.carts.SetQuantity(ctx, product.ID, 1).IsSuccess())

	ch := e.carts.WatchItems(ctx)
	recv(t, ch) // loading
	snapshot := recv(t, ch)
	require.True(t, snapshot.IsSuccess(), snapshot.Message())
	require.Len(t, snapshot.Value(), 1)
	assert.Equal(t, "Sticks", snapshot.Value()[0].Product.Category.Name)

	// The snapshot joins categories, so a rename re-emits too.
	renamed := models.Category{ID: 1, Name: "Composite Sticks"}
	require.True(t, e.categories.Update(ctx, renamed).IsSuccess())

	updated := recv(t, ch)
	require.True(t, updated.IsSuccess(), updated.Message())
	require.Len(t, updated.Value(), 1)
	assert.Equal(t, "Composite Sticks", updated.Value()[0].Product.Category.Name)
}

func TestWatchStopsOnCancel(t *testing.T) {
	defer verifyNoLeaks(t)

	e := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch := e.categories.WatchAll(ctx)
	recv(t, ch) // loading
	recv(t, ch) // seeded snapshot

	cancel()

	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestWatchByIDSeesStockChanges(t *testing.T) {
	defer verifyNoLeaks(t)

	e := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	product := e.createProduct(t, "Stick", 50, 5, 0)

	ch := e.products.WatchByID(ctx, product.ID)
	recv(t, ch) // loading
	snapshot := recv(t, ch)
	require.True(t, snapshot.IsSuccess())
	assert.Equal(t, 5, snapshot.Value().Quantity)

	require.True(t, e.products.DecreaseStock(ctx, product.ID, 2).IsSuccess())

	updated := recv(t, ch)
	require.True(t, updated.IsSuccess())
	assert.Equal(t, 3, updated.Value().Quantity)
}
