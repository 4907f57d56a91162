package cache

import (
	"context"
	"sync"
)

// LocalBus is the in-process stand-in for Redis pub/sub when caching is
// disabled. Slow subscribers drop tags.
type LocalBus struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
}

// NewLocalBus returns an empty bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{clients: make(map[chan string]struct{})}
}

// Invalidate publishes each tag to every listener.
func (b *LocalBus) Invalidate(ctx context.Context, tags ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, tag := range tags {
		for ch := range b.clients {
			select {
			case ch <- tag:
			default:
			}
		}
	}
	return nil
}

// Listen calls fn for each published tag until ctx is done.
func (b *LocalBus) Listen(ctx context.Context, fn func(tag string)) error {
	ch := make(chan string, 16)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.clients, ch)
			b.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case tag := <-ch:
				fn(tag)
			}
		}
	}()
	return nil
}
