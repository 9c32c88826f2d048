// Package livequery keeps one live result per query key and fans refreshed results
// out to its subscribers. A query lives exactly as long as it has subscribers.
package livequery

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

var ErrEmptyKey = errors.New("live query key is empty")

// Fetcher recomputes the current value of a query.
type Fetcher[T any] func(ctx context.Context) (T, error)

type Registry[T any] struct {
	name    string
	mu      sync.Mutex
	queries map[string]*query[T]
	nextID  uint64
}

type query[T any] struct {
	fetch     Fetcher[T]
	subs      map[uint64]*Subscription[T]
	last      T
	hasLast   bool
	gen       uint64
	published uint64
}

// Subscription delivers the latest value of one query. Slow readers only miss
// intermediate values, never the newest one.
type Subscription[T any] struct {
	id       uint64
	key      string
	ch       chan T
	registry *Registry[T]
	once     sync.Once
}

// NewRegistry creates an empty registry; name only appears in logs.
func NewRegistry[T any](name string) *Registry[T] {
	return &Registry[T]{name: name, queries: make(map[string]*query[T])}
}

func (s *Subscription[T]) C() <-chan T { return s.ch }

func (s *Subscription[T]) Key() string { return s.key }

// Close detaches the subscription; the query is dropped with its last subscriber.
func (s *Subscription[T]) Close() {
	s.once.Do(func() { s.registry.remove(s) })
}

// Subscribe attaches to key, creating the query with fetch when it does not exist yet.
// The current value is delivered before Subscribe returns.
func (r *Registry[T]) Subscribe(ctx context.Context, key string, fetch Fetcher[T]) (*Subscription[T], error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrEmptyKey
	}

	r.mu.Lock()
	q, exists := r.queries[key]
	if !exists {
		q = &query[T]{fetch: fetch, subs: make(map[uint64]*Subscription[T])}
		r.queries[key] = q
	}
	r.nextID++
	sub := &Subscription[T]{id: r.nextID, key: key, ch: make(chan T, 1), registry: r}
	q.subs[sub.id] = sub
	if q.hasLast {
		deliver(sub, q.last)
		r.mu.Unlock()
		return sub, nil
	}
	r.mu.Unlock()

	if err := r.Refresh(ctx, key); err != nil {
		sub.Close()
		return nil, err
	}
	return sub, nil
}

// Refresh refetches key and pushes the result to every subscriber. Unknown keys are ignored.
func (r *Registry[T]) Refresh(ctx context.Context, key string) error {
	r.mu.Lock()
	q, ok := r.queries[key]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	q.gen++
	gen := q.gen
	fetch := q.fetch
	r.mu.Unlock()

	value, err := fetch(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.queries[key]; !ok || current != q || gen < q.published {
		return nil
	}
	q.published = gen
	q.last = value
	q.hasLast = true
	for _, sub := range q.subs {
		deliver(sub, value)
	}
	return nil
}

// RefreshMatching refreshes every live key accepted by match. Errors are logged per key.
func (r *Registry[T]) RefreshMatching(ctx context.Context, match func(key string) bool) int {
	r.mu.Lock()
	keys := make([]string, 0, len(r.queries))
	for key := range r.queries {
		if match(key) {
			keys = append(keys, key)
		}
	}
	r.mu.Unlock()

	for _, key := range keys {
		if err := r.Refresh(ctx, key); err != nil {
			slog.Warn("live query refresh failed", slog.String("registry", r.name), slog.String("key", key), slog.Any("error", err))
		}
	}
	return len(keys)
}

// RefreshPrefix refreshes every live key starting with prefix.
func (r *Registry[T]) RefreshPrefix(ctx context.Context, prefix string) int {
	return r.RefreshMatching(ctx, func(key string) bool { return strings.HasPrefix(key, prefix) })
}

// Subscribers reports how many subscriptions key currently has.
func (r *Registry[T]) Subscribers(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.queries[key]; ok {
		return len(q.subs)
	}
	return 0
}

// Len reports the number of live queries.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queries)
}

func (r *Registry[T]) remove(sub *Subscription[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.queries[sub.key]; ok {
		delete(q.subs, sub.id)
		if len(q.subs) == 0 {
			delete(r.queries, sub.key)
			slog.Debug("live query torn down", slog.String("registry", r.name), slog.String("key", sub.key))
		}
	}
	close(sub.ch)
}

// deliver must be called with the registry lock held.
func deliver[T any](sub *Subscription[T], value T) {
	select {
	case sub.ch <- value:
		return
	default:
	}
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- value:
	default:
	}
}
