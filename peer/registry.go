package peer

import "sync"

// Registry is a thread-safe, unordered set of known peer addresses. The
// owner's own address is never inserted (callers are expected to check
// via Self before calling Add, and Add silently refuses self-insertion
// as a second line of defense).
//
// Grounded on Peernet.go's peerList map + peerlistMutex sync.RWMutex
// pattern, simplified to the spec's unauthenticated (host,port) keys.
type Registry struct {
	mu   sync.RWMutex
	self Address
	set  map[Address]struct{}
}

// NewRegistry creates a registry that will never contain self.
func NewRegistry(self Address) *Registry {
	return &Registry{
		self: self,
		set:  make(map[Address]struct{}),
	}
}

// Self returns the owner's own address.
func (r *Registry) Self() Address {
	return r.self
}

// Add inserts p into the set. A no-op if p equals self or is already
// present.
func (r *Registry) Add(p Address) {
	if p.Equal(r.self) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set[p] = struct{}{}
}

// Remove deletes p from the set. A no-op if p is absent.
func (r *Registry) Remove(p Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.set, p)
}

// Contains reports whether p is currently in the set.
func (r *Registry) Contains(p Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.set[p]
	return ok
}

// Snapshot returns a detached copy of the current set so callers may
// iterate without holding the registry's lock.
func (r *Registry) Snapshot() []Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Address, 0, len(r.set))
	for p := range r.set {
		out = append(out, p)
	}
	return out
}

// Len returns the number of known peers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.set)
}
