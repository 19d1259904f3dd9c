package propdex

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/hupe1980/propdex/composite"
	"github.com/hupe1980/propdex/index"
	"github.com/hupe1980/propdex/model"
)

// Composite is an index keyed by the values of two or more properties.
//
// Keys are stored in canonical order, so every caller order of the same
// property set shares one Composite. Use Bind to read and write it in a
// particular order.
type Composite struct {
	r        *Registry
	name     string
	ordering *composite.Ordering
	// props in canonical order
	props []*property
	index *index.Typed[composite.Tuple]
}

// RegisterComposite registers a composite over the named properties, which
// must already be registered. Any order of the same names returns the same
// Composite.
func (r *Registry) RegisterComposite(names ...string) (*Composite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.registerCompositeLocked(names)
	if err != nil {
		r.metrics.RecordRegister(strings.Join(names, "+"), err)
	}
	r.logger.LogComposite(context.Background(), names, err)
	return c, err
}

func (r *Registry) registerCompositeLocked(names []string) (*Composite, error) {
	if len(names) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewProperties, len(names))
	}
	o, err := r.resolver.ResolveIf(r.knownLocked, names...)
	if err != nil {
		return nil, err
	}
	if c, ok := r.composites[o.Key()]; ok {
		return c, nil
	}

	canonical := o.Canonical()
	props := make([]*property, len(canonical))
	for i, name := range canonical {
		p, err := r.propertyLocked(name)
		if err != nil {
			return nil, err
		}
		props[i] = p
	}

	// The composite's own ordering is the canonical one.
	self, err := r.resolver.Resolve(canonical...)
	if err != nil {
		return nil, err
	}
	c := &Composite{
		r:        r,
		name:     strings.Join(canonical, "+"),
		ordering: self,
		props:    props,
		index:    index.NewTyped[composite.Tuple](),
	}
	r.composites[o.Key()] = c
	r.metrics.RecordRegister(c.name, nil)
	return c, nil
}

// RegisterComposites registers each property set and joins the failures.
func (r *Registry) RegisterComposites(sets ...[]string) error {
	var errs []error
	for _, names := range sets {
		if _, err := r.RegisterComposite(names...); err != nil {
			errs = append(errs, fmt.Errorf("composite %v: %w", names, err))
		}
	}
	return errors.Join(errs...)
}

// RegisterConfigured registers the composites declared through WithConfig.
// Call it once the member properties are registered.
func (r *Registry) RegisterConfigured() error {
	return r.RegisterComposites(r.opts.composites...)
}

// Composite returns the composite registered for the named property set, in any order.
func (r *Registry) Composite(names ...string) (*Composite, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, err := r.resolver.ResolveIf(r.knownLocked, names...)
	if err != nil {
		return nil, false
	}
	c, ok := r.composites[o.Key()]
	return c, ok
}

// knownLocked reports whether o's property set has a registered composite.
// Only orderings of registered sets are cached, so caller input cannot grow
// the resolver.
func (r *Registry) knownLocked(o *composite.Ordering) bool {
	_, ok := r.composites[o.Key()]
	return ok
}

// Composites returns the registered composites' property names in canonical order.
func (r *Registry) Composites() [][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([][]string, 0, len(r.composites))
	for _, c := range r.composites {
		out = append(out, c.ordering.Canonical())
	}
	return out
}

// Names returns the property names in canonical order.
func (c *Composite) Names() []string { return c.ordering.Canonical() }

// Name returns the canonical property names joined by "+".
func (c *Composite) Name() string { return c.name }

// Key identifies the property set.
func (c *Composite) Key() string { return c.ordering.Key() }

// Len returns the number of distinct value tuples.
func (c *Composite) Len() int {
	c.r.mu.RLock()
	defer c.r.mu.RUnlock()
	return c.index.Len()
}

// Bind returns a view reading and writing the composite with values given in
// the order of names. names must be a permutation of the composite's properties.
func (c *Composite) Bind(names ...string) (*View, error) {
	o, err := c.r.resolver.ResolveIf(func(o *composite.Ordering) bool {
		return o.Key() == c.ordering.Key()
	}, names...)
	if err != nil {
		return nil, err
	}
	if o.Key() != c.ordering.Key() {
		return nil, fmt.Errorf("%w: %v is not a permutation of %v", ErrTagSetMismatch, names, c.ordering.Canonical())
	}
	return &View{c: c, ordering: o}, nil
}

// View is a Composite seen through one caller order of its properties.
type View struct {
	c        *Composite
	ordering *composite.Ordering
}

// Names returns the property names in the view's order.
func (v *View) Names() []string { return v.ordering.Tags() }

// Ordering returns the mapping from the view's order to the canonical order.
func (v *View) Ordering() *composite.Ordering { return v.ordering }

func (v *View) tuple(values []any) (composite.Tuple, error) {
	if len(values) != v.ordering.Arity() {
		return nil, fmt.Errorf("%w: expected %d values, got %d", composite.ErrArity, v.ordering.Arity(), len(values))
	}
	perm := v.ordering.Permutation()
	for i, val := range values {
		p := v.c.props[perm[i]]
		if err := checkType(p.id.Name, p.id.Type, val); err != nil {
			return nil, err
		}
	}
	return composite.NewTuple(v.ordering, values...)
}

// Insert adds id to the entity set of the value tuple, given in view order.
func (v *View) Insert(id model.EntityID, values ...any) (bool, error) {
	start := time.Now()

	v.c.r.mu.Lock()
	defer v.c.r.mu.Unlock()

	added, err := v.insertLocked(id, values)
	v.c.r.metrics.RecordInsert(v.c.name, time.Since(start), err)
	return added, err
}

func (v *View) insertLocked(id model.EntityID, values []any) (bool, error) {
	t, err := v.tuple(values)
	if err != nil {
		return false, err
	}
	return v.c.index.InsertEntity(t, id), nil
}

// Remove removes id from the entity set of the value tuple.
func (v *View) Remove(id model.EntityID, values ...any) (bool, error) {
	v.c.r.mu.Lock()
	defer v.c.r.mu.Unlock()

	t, err := v.tuple(values)
	if err != nil {
		return false, err
	}
	return v.c.index.RemoveEntity(t, id), nil
}

// Get returns a snapshot of the entities holding the value tuple.
func (v *View) Get(values ...any) (index.Entities, bool, error) {
	start := time.Now()

	v.c.r.mu.RLock()
	defer v.c.r.mu.RUnlock()

	set, ok, err := v.getLocked(values)
	v.c.r.metrics.RecordLookup(v.c.name, ok, time.Since(start))
	return set, ok, err
}

func (v *View) getLocked(values []any) (index.Entities, bool, error) {
	t, err := v.tuple(values)
	if err != nil {
		return nil, false, err
	}
	set, ok := v.c.index.GetMut(t)
	if !ok {
		return nil, false, nil
	}
	return set.Clone(), true, nil
}

// Entries yields every value tuple, in view order, with a snapshot of its entities.
// The entries are collected before the first yield.
func (v *View) Entries() iter.Seq2[[]any, index.Entities] {
	type pair struct {
		values []any
		set    *index.EntitySet
	}

	v.c.r.mu.RLock()
	pairs := make([]pair, 0, v.c.index.Len())
	for t, set := range v.c.index.All() {
		values, _ := t.Values(v.ordering)
		pairs = append(pairs, pair{values: values, set: set.Clone()})
	}
	v.c.r.mu.RUnlock()

	return func(yield func([]any, index.Entities) bool) {
		for _, p := range pairs {
			if !yield(p.values, p.set) {
				return
			}
		}
	}
}

func (r *Registry) viewLocked(fields []Field) (*View, []any, error) {
	names := make([]string, len(fields))
	values := make([]any, len(fields))
	for i, f := range fields {
		names[i] = f.Name
		values[i] = f.Value
	}
	o, err := r.resolver.ResolveIf(r.knownLocked, names...)
	if err != nil {
		return nil, nil, err
	}
	c, ok := r.composites[o.Key()]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnknownComposite, names)
	}
	return &View{c: c, ordering: o}, values, nil
}

// InsertComposite adds id to the composite registered for the fields' property
// set. Fields may be given in any order.
func (r *Registry) InsertComposite(id model.EntityID, fields ...Field) (bool, error) {
	start := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	v, values, err := r.viewLocked(fields)
	if err != nil {
		return false, err
	}
	added, err := v.insertLocked(id, values)
	r.metrics.RecordInsert(v.c.name, time.Since(start), err)
	return added, err
}

// QueryComposite returns a snapshot of the entities holding every field value,
// answered by the composite registered for the fields' property set.
func (r *Registry) QueryComposite(fields ...Field) (index.Entities, bool, error) {
	start := time.Now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	v, values, err := r.viewLocked(fields)
	if err != nil {
		return nil, false, err
	}
	set, ok, err := v.getLocked(values)
	r.metrics.RecordLookup(v.c.name, ok, time.Since(start))
	return set, ok, err
}
