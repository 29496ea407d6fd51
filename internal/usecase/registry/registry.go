package registry

import (
	"sync"
	"time"
)

// Registry is an in-memory session registry with sliding expiration. Every
// successful Get extends the session's deadline by the registry TTL. Expired
// sessions are invisible to Get immediately; a janitor goroutine removes
// them and runs the eviction hook so held resources can be released.
type Registry[T any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	items   map[string]*entry[T]
	onEvict func(id string, value T)
	stop    chan struct{}
	once    sync.Once
}

type entry[T any] struct {
	value    T
	deadline time.Time
}

// New creates a registry and starts its janitor. The eviction hook may be
// nil; when set it runs outside the registry lock, once per expired session.
func New[T any](ttl time.Duration, onEvict func(id string, value T)) *Registry[T] {
	r := &Registry[T]{
		ttl:     ttl,
		items:   make(map[string]*entry[T]),
		onEvict: onEvict,
		stop:    make(chan struct{}),
	}

	go r.janitor()

	return r
}

// Put registers a session under the given id, resetting its deadline.
func (r *Registry[T]) Put(id string, value T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[id] = &entry[T]{
		value:    value,
		deadline: time.Now().Add(r.ttl),
	}
}

// Get returns the session and extends its deadline. Expired sessions are
// reported as absent even before the janitor removes them.
func (r *Registry[T]) Get(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	item, ok := r.items[id]
	if !ok {
		return zero, false
	}
	if time.Now().After(item.deadline) {
		return zero, false
	}

	item.deadline = time.Now().Add(r.ttl)
	return item.value, true
}

// Remove deletes a session without running the eviction hook. Used when a
// session completes normally and its resources are already accounted for.
func (r *Registry[T]) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, id)
}

// Len returns the number of registered sessions, including expired ones the
// janitor has not collected yet.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

// Close stops the janitor.
func (r *Registry[T]) Close() {
	r.once.Do(func() {
		close(r.stop)
	})
}

func (r *Registry[T]) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stop:
			return
		}
	}
}

func (r *Registry[T]) sweep() {
	type evicted struct {
		id    string
		value T
	}

	r.mu.Lock()
	now := time.Now()
	var expired []evicted
	for id, item := range r.items {
		if now.After(item.deadline) {
			expired = append(expired, evicted{id: id, value: item.value})
			delete(r.items, id)
		}
	}
	r.mu.Unlock()

	if r.onEvict != nil {
		for _, e := range expired {
			r.onEvict(e.id, e.value)
		}
	}
}
