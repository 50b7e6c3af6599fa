package pool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Factory opens and disposes handles for a connection URL.
type Factory[H any] interface {
	Open(ctx context.Context, connectionURL string) (H, error)
	Dispose(ctx context.Context, handle H) error
}

type entry[H any] struct {
	handle     H
	expiresAt  time.Time
	lastUsedAt time.Time
	seq        uint64 // insertion order, breaks lastUsedAt ties
}

type victim[H any] struct {
	key    string
	handle H
	reason string
}

// Pool holds at most one live handle per key, bounded by TTL and size.
type Pool[H any] struct {
	factory Factory[H]
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	logger  *slog.Logger
	metrics *Metrics

	mu      sync.Mutex
	entries map[string]*entry[H]
	seq     uint64
	closed  bool

	flights singleflight.Group
}

// New creates a pool backed by factory.
func New[H any](factory Factory[H], opts ...Option) *Pool[H] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Pool[H]{
		factory: factory,
		ttl:     o.ttl,
		maxSize: o.maxSize,
		now:     o.now,
		logger:  o.logger,
		metrics: o.metrics,
		entries: make(map[string]*entry[H]),
	}
}

// Get returns the live handle for key, opening one bound to connectionURL when the key has
// no live entry. The returned handle stays the same until it expires or is evicted.
func (p *Pool[H]) Get(ctx context.Context, key, connectionURL string) (H, error) {
	var zero H

	expired, err := p.sweep()
	if err != nil {
		return zero, err
	}
	p.disposeAll(ctx, expired)

	handle, ok, stale := p.lookup(key)
	if stale != nil {
		p.dispose(ctx, *stale)
	}
	if ok {
		p.metrics.hit()
		return handle, nil
	}

	// The open is shared by every caller waiting on key, so it must not inherit any
	// one caller's cancellation. Each caller still stops waiting on its own ctx.
	flight := p.flights.DoChan(key, func() (any, error) {
		return p.create(context.WithoutCancel(ctx), key, connectionURL)
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return zero, res.Err
		}
		handle, _ = res.Val.(H)
		return handle, nil
	}
}

// Remove disposes and forgets the handle for key, if any.
func (p *Pool[H]) Remove(ctx context.Context, key string) {
	p.mu.Lock()
	e, ok := p.entries[key]
	if ok {
		delete(p.entries, key)
		p.metrics.setSize(len(p.entries))
	}
	p.mu.Unlock()

	if ok {
		p.dispose(ctx, victim[H]{key: key, handle: e.handle, reason: ReasonRemoved})
	}
}

// Len returns the number of entries currently held.
func (p *Pool[H]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Close disposes every handle. Later Get calls fail with ErrPoolClosed.
// Close is idempotent; dispose errors are logged and returned joined.
func (p *Pool[H]) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	victims := make([]victim[H], 0, len(p.entries))
	for key, e := range p.entries {
		victims = append(victims, victim[H]{key: key, handle: e.handle, reason: ReasonClosed})
	}
	p.entries = make(map[string]*entry[H])
	p.metrics.setSize(0)
	p.mu.Unlock()

	var errs []error
	for _, v := range victims {
		if err := p.dispose(ctx, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sweep removes every expired entry and returns them for disposal.
func (p *Pool[H]) sweep() ([]victim[H], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	now := p.now()
	var expired []victim[H]
	for key, e := range p.entries {
		if !now.Before(e.expiresAt) {
			expired = append(expired, victim[H]{key: key, handle: e.handle, reason: ReasonExpired})
			delete(p.entries, key)
		}
	}
	if len(expired) > 0 {
		p.metrics.setSize(len(p.entries))
	}
	return expired, nil
}

// lookup returns the live handle for key and refreshes its last-used time.
// An entry that expired since the sweep is removed and returned as stale.
func (p *Pool[H]) lookup(key string) (H, bool, *victim[H]) {
	var zero H

	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[key]
	if !ok {
		return zero, false, nil
	}

	now := p.now()
	if !now.Before(e.expiresAt) {
		delete(p.entries, key)
		p.metrics.setSize(len(p.entries))
		return zero, false, &victim[H]{key: key, handle: e.handle, reason: ReasonExpired}
	}

	e.lastUsedAt = now
	return e.handle, true, nil
}

// create runs inside a singleflight call for key.
func (p *Pool[H]) create(ctx context.Context, key, connectionURL string) (H, error) {
	var zero H

	// another flight may have finished between the caller's lookup and this one
	if handle, ok, stale := p.lookup(key); ok {
		p.metrics.hit()
		return handle, nil
	} else if stale != nil {
		p.dispose(ctx, *stale)
	}

	p.metrics.miss()
	handle, err := p.factory.Open(ctx, connectionURL)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to open tenant handle",
			slog.String("key", key),
			slog.Any("error", err),
		)
		return zero, err
	}

	now := p.now()
	var victims []victim[H]

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.dispose(ctx, victim[H]{key: key, handle: handle, reason: ReasonClosed})
		return zero, ErrPoolClosed
	}
	if old, ok := p.entries[key]; ok {
		victims = append(victims, victim[H]{key: key, handle: old.handle, reason: ReasonRemoved})
	}
	p.seq++
	p.entries[key] = &entry[H]{
		handle:     handle,
		expiresAt:  now.Add(p.ttl),
		lastUsedAt: now,
		seq:        p.seq,
	}
	if len(p.entries) > p.maxSize {
		if lruKey, lru, ok := p.leastRecentlyUsed(key); ok {
			delete(p.entries, lruKey)
			victims = append(victims, victim[H]{key: lruKey, handle: lru.handle, reason: ReasonLRU})
		}
	}
	p.metrics.setSize(len(p.entries))
	p.mu.Unlock()

	p.disposeAll(ctx, victims)
	return handle, nil
}

// leastRecentlyUsed picks the entry with the oldest lastUsedAt, then the lowest seq.
// The entry for skip is never picked. Must be called with p.mu held.
func (p *Pool[H]) leastRecentlyUsed(skip string) (string, *entry[H], bool) {
	var (
		lruKey string
		lru    *entry[H]
	)
	for key, e := range p.entries {
		if key == skip {
			continue
		}
		if lru == nil ||
			e.lastUsedAt.Before(lru.lastUsedAt) ||
			(e.lastUsedAt.Equal(lru.lastUsedAt) && e.seq < lru.seq) {
			lruKey, lru = key, e
		}
	}
	return lruKey, lru, lru != nil
}

func (p *Pool[H]) disposeAll(ctx context.Context, victims []victim[H]) {
	for _, v := range victims {
		_ = p.dispose(ctx, v)
	}
}

// dispose never blocks removal: the entry is already gone from the map.
// Cancellation of the caller's context does not abort cleanup.
func (p *Pool[H]) dispose(ctx context.Context, v victim[H]) error {
	p.metrics.evicted(v.reason)

	if err := p.factory.Dispose(context.WithoutCancel(ctx), v.handle); err != nil {
		p.metrics.disposeFailed()
		p.logger.WarnContext(ctx, "failed to dispose tenant handle",
			slog.String("key", v.key),
			slog.String("reason", v.reason),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}
