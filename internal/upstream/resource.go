package upstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultListKey = "all"

type cacheEntry[T any] struct {
	items     []T
	fetchedAt time.Time
}

// Resource is a typed accessor for one upstream collection. Reads are served
// from a local cache while it is fresh; concurrent fetches for the same key
// collapse into a single upstream request. Every mutation invalidates the
// cache only after the upstream acknowledged it; the backend stays the
// source of truth, created/updated entities are never merged in locally.
type Resource[T any] struct {
	client   *Client
	path     string
	staleTTL time.Duration
	now      func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]cacheEntry[T]
}

func NewResource[T any](client *Client, path string, staleTTL time.Duration) *Resource[T] {
	return &Resource[T]{
		client:   client,
		path:     path,
		staleTTL: staleTTL,
		now:      time.Now,
		entries:  make(map[string]cacheEntry[T]),
	}
}

// List returns the full collection, refetching when the cached copy is older
// than the staleness window.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	return r.ListPath(ctx, defaultListKey, r.path)
}

// ListPath fetches an alternate collection path (for example a per-employee
// view) cached under its own key.
func (r *Resource[T]) ListPath(ctx context.Context, key, path string) ([]T, error) {
	if items, ok := r.fresh(key); ok {
		return items, nil
	}

	result, err, _ := r.group.Do(key, func() (any, error) {
		// A concurrent caller may have completed the fetch while this one
		// queued on the flight group.
		if items, ok := r.fresh(key); ok {
			return items, nil
		}

		var items []T
		if err := r.client.Get(ctx, path, nil, &items); err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.entries[key] = cacheEntry[T]{items: items, fetchedAt: r.now()}
		r.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]T), nil
}

func (r *Resource[T]) Get(ctx context.Context, id int) (T, error) {
	var out T
	err := r.client.Get(ctx, fmt.Sprintf("%s/%d", r.path, id), nil, &out)
	return out, err
}

func (r *Resource[T]) Create(ctx context.Context, payload any) (T, error) {
	var created T
	if err := r.client.Post(ctx, r.path, payload, &created); err != nil {
		return created, err
	}
	r.Invalidate()
	return created, nil
}

func (r *Resource[T]) Update(ctx context.Context, id int, payload any) error {
	if err := r.client.Put(ctx, fmt.Sprintf("%s/%d", r.path, id), nil, payload, nil); err != nil {
		return err
	}
	r.Invalidate()
	return nil
}

func (r *Resource[T]) Delete(ctx context.Context, id int) error {
	if err := r.client.Delete(ctx, fmt.Sprintf("%s/%d", r.path, id)); err != nil {
		return err
	}
	r.Invalidate()
	return nil
}

// Invalidate drops every cached entry, forcing the next read to refetch.
func (r *Resource[T]) Invalidate() {
	r.mu.Lock()
	r.entries = make(map[string]cacheEntry[T])
	r.mu.Unlock()
}

// Sweep discards entries older than the staleness window and reports how many
// were dropped. The jobs scheduler calls this periodically so an idle gateway
// does not hold week-old lists in memory.
func (r *Resource[T]) Sweep() int {
	cutoff := r.now().Add(-r.staleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for key, entry := range r.entries {
		if entry.fetchedAt.Before(cutoff) {
			delete(r.entries, key)
			dropped++
		}
	}
	return dropped
}

func (r *Resource[T]) fresh(key string) ([]T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	if r.now().Sub(entry.fetchedAt) > r.staleTTL {
		return nil, false
	}
	return entry.items, true
}
