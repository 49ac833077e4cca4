package store

import (
	"context"
	"sync"
)

// Bus fans committed writes out to live-query subscribers. A subscriber
// names the tables it cares about and gets a coalesced signal channel:
// a pending signal that has not been consumed yet is not duplicated, so
// a burst of writes collapses into one re-query.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]*subscriber
	next   int
	done   chan struct{}
	closed bool
}

type subscriber struct {
	tables map[string]struct{}
	ch     chan struct{}
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[int]*subscriber),
		done: make(chan struct{}),
	}
}

// Subscribe returns a channel that signals after any commit touching one
// of the given tables. The subscription ends, and the channel closes,
// when ctx is done or the bus shuts down.
func (b *Bus) Subscribe(ctx context.Context, tables ...string) <-chan struct{} {
	sub := &subscriber{
		tables: make(map[string]struct{}, len(tables)),
		ch:     make(chan struct{}, 1),
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.ch)
		return sub.ch
	}
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub.ch)
		}
		b.mu.Unlock()
	}()

	return sub.ch
}

// Notify signals every subscriber watching any of the given tables.
func (b *Bus) Notify(tables ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if !sub.watches(tables) {
			continue
		}
		select {
		case sub.ch <- struct{}{}:
		default: // a signal is already pending
		}
	}
}

// Close drops all subscribers and closes their channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}

func (s *subscriber) watches(tables []string) bool {
	for _, t := range tables {
		if _, ok := s.tables[t]; ok {
			return true
		}
	}
	return false
}
