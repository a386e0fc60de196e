package events

import "sync"

// registry keeps listeners of type L keyed by registration id and,
// optionally, the most recent value of type T for late listeners.
type registry[T any, L any] struct {
	mu        sync.RWMutex
	listeners map[uint64]L
	nextID    uint64
	replay    bool
	last      T
	hasLast   bool
}

func newRegistry[T any, L any](replay bool) registry[T, L] {
	return registry[T, L]{
		listeners: make(map[uint64]L),
		replay:    replay,
	}
}

// add registers l and returns its id plus the value to replay, if any
func (r *registry[T, L]) add(l L) (uint64, T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = l
	return id, r.last, r.replay && r.hasLast
}

func (r *registry[T, L]) remove(id uint64) {
	r.mu.Lock()
	delete(r.listeners, id)
	r.mu.Unlock()
}

// record stores value for replay and returns a snapshot of the listeners
func (r *registry[T, L]) record(value T) []L {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replay {
		r.last = value
		r.hasLast = true
	}
	snapshot := make([]L, 0, len(r.listeners))
	for _, l := range r.listeners {
		snapshot = append(snapshot, l)
	}
	return snapshot
}

func (r *registry[T, L]) lastValue() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.hasLast
}

func (r *registry[T, L]) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}
