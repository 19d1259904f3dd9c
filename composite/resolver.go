package composite

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Resolver caches one Ordering per caller order of tags.
//
// Concurrent first requests for the same caller order share one derivation.
// Resolver is safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	orderings map[string]*Ordering
	group     singleflight.Group
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		orderings: make(map[string]*Ordering),
	}
}

// Resolve returns the cached ordering for tags, deriving it on first use.
// Failed derivations are not cached.
func (r *Resolver) Resolve(tags ...string) (*Ordering, error) {
	return r.ResolveIf(nil, tags...)
}

// ResolveIf is like Resolve, but a newly derived ordering is cached only when
// keep reports true for it; otherwise it is returned uncached. A nil keep
// caches every ordering. Cached orderings are returned without calling keep.
func (r *Resolver) ResolveIf(keep func(*Ordering) bool, tags ...string) (*Ordering, error) {
	// The caller order itself is the cache key, not the set key.
	key := SetKey(tags)

	r.mu.RLock()
	o, ok := r.orderings[key]
	r.mu.RUnlock()
	if ok {
		return o, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		r.mu.RLock()
		cached, ok := r.orderings[key]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		o, err := NewOrdering(tags...)
		if err != nil {
			return nil, err
		}
		if keep != nil && !keep(o) {
			return o, nil
		}
		r.mu.Lock()
		r.orderings[key] = o
		r.mu.Unlock()
		return o, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Ordering), nil
}

// Len returns the number of cached orderings.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orderings)
}

// Reset drops all cached orderings.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.orderings)
}
