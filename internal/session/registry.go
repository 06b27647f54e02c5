package session

import (
	"container/list"
	"sync"
)

// Registry is the set of expressions currently handed out as result ids.
// It is safe for concurrent access. With a positive capacity the oldest
// entry is evicted first; otherwise entries live for the process lifetime.
type Registry struct {
	mu       sync.Mutex
	known    map[string]*list.Element
	order    *list.List // oldest at front
	capacity int
}

// NewRegistry constructs an empty Registry. capacity <= 0 means unbounded.
func NewRegistry(capacity int) *Registry {
	if capacity < 0 {
		capacity = 0
	}
	return &Registry{
		known:    make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
	}
}

// Remember records expr and reports whether it was new. Recording a known
// expression changes nothing.
func (r *Registry) Remember(expr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.known[expr]; ok {
		return false
	}
	r.known[expr] = r.order.PushBack(expr)
	if r.capacity > 0 && r.order.Len() > r.capacity {
		oldest := r.order.Front()
		r.order.Remove(oldest)
		delete(r.known, oldest.Value.(string))
	}
	return true
}

// IsKnown reports whether expr has been remembered and not evicted.
func (r *Registry) IsKnown(expr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.known[expr]
	return ok
}

// Len returns the number of remembered expressions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.known)
}

// Capacity returns the configured bound, 0 when unbounded.
func (r *Registry) Capacity() int {
	return r.capacity
}
