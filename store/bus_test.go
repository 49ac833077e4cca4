package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestBusDeliversToMatchingSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cartCh := bus.Subscribe(ctx, TableCarts)
	orderCh := bus.Subscribe(ctx, TableOrders)

	bus.Notify(TableCarts)

	select {
	case <-cartCh:
	case <-time.After(time.Second):
		t.Fatal("cart subscriber missed the notification")
	}
	select {
	case <-orderCh:
		t.Fatal("order subscriber got a cart notification")
	default:
	}
}

func TestBusCoalescesPendingSignals(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := bus.Subscribe(ctx, TableProducts)

	// A burst of writes collapses into a single pending signal.
	bus.Notify(TableProducts)
	bus.Notify(TableProducts)
	bus.Notify(TableProducts)

	<-ch
	select {
	case <-ch:
		t.Fatal("expected the burst to coalesce into one signal")
	default:
	}
}

func TestBusSubscriptionEndsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())

	ch := bus.Subscribe(ctx, TableUsers)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel must close when the context ends")
	case <-time.After(time.Second):
		t.Fatal("channel did not close after context cancellation")
	}
}

func TestBusCloseDropsSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := bus.Subscribe(ctx, TableUsers)
	bus.Close()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel did not close after bus shutdown")
	}

	// Subscribing after shutdown yields an already-closed channel.
	late := bus.Subscribe(ctx, TableUsers)
	_, ok := <-late
	assert.False(t, ok)
}
