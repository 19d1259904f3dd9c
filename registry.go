package propdex

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/propdex/composite"
	"github.com/hupe1980/propdex/digest"
	"github.com/hupe1980/propdex/index"
	"github.com/hupe1980/propdex/model"
)

// PropertyID is the identity of a registered property: its name and value type.
type PropertyID struct {
	Name string
	Type reflect.Type
}

// String returns "name(type)".
func (id PropertyID) String() string {
	return fmt.Sprintf("%s(%v)", id.Name, id.Type)
}

// property binds an identity to its index. insert and remove are closures
// over the typed index so erased callers holding a value can still create entries.
type property struct {
	id     PropertyID
	index  index.Index
	insert func(v any, id model.EntityID) (bool, error)
	remove func(v any, id model.EntityID) (bool, error)
}

// Registry owns the property and composite indexes of one entity domain.
//
// The registry resolves property names to type identities and identities to
// index instances. It is safe for concurrent use: writes are serialized and
// lookups return snapshots of entity sets.
type Registry struct {
	mu sync.RWMutex

	// property name -> type identity
	names map[string]PropertyID
	// type identity -> index
	props map[PropertyID]*property
	// canonical set key -> composite
	composites map[string]*Composite

	resolver *composite.Resolver
	opts     options
	logger   *Logger
	metrics  MetricsCollector
}

// New creates an empty registry.
func New(optFns ...Option) *Registry {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		names:      make(map[string]PropertyID),
		props:      make(map[PropertyID]*property),
		composites: make(map[string]*Composite),
		resolver:   composite.NewResolver(),
		opts:       opts,
		logger:     opts.logger,
		metrics:    opts.metricsCollector,
	}
}

// Property is a typed handle naming a property whose values have type T.
type Property[T any] struct {
	name string
}

// NewProperty declares a property named name with value type T.
func NewProperty[T any](name string) Property[T] {
	return Property[T]{name: name}
}

// Name returns the property name.
func (p Property[T]) Name() string { return p.name }

// Type returns the value type of the property.
func (p Property[T]) Type() reflect.Type { return reflect.TypeFor[T]() }

// Register registers p and returns its typed index, creating an empty index on
// first registration. Registering the same name with a different type fails
// with ErrTypeMismatch.
func Register[T any](r *Registry, p Property[T]) (*index.Typed[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return registerLocked(r, p)
}

func registerLocked[T any](r *Registry, p Property[T]) (*index.Typed[T], error) {
	typ := p.Type()
	if p.name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidProperty)
	}

	if id, ok := r.names[p.name]; ok {
		if id.Type != typ {
			err := &TypeMismatchError{Property: p.name, Expected: id.Type, Actual: typ}
			r.metrics.RecordRegister(p.name, err)
			r.logger.LogRegister(context.Background(), p.name, typ.String(), err)
			return nil, err
		}
		return r.props[id].index.(*index.Typed[T]), nil
	}

	ix := index.NewTyped[T]()
	id := PropertyID{Name: p.name, Type: typ}
	r.names[p.name] = id
	r.props[id] = &property{
		id:    id,
		index: ix,
		insert: func(v any, e model.EntityID) (bool, error) {
			key, ok := v.(T)
			if !ok && v != nil {
				return false, &TypeMismatchError{Property: p.name, Expected: typ, Actual: reflect.TypeOf(v)}
			}
			return ix.InsertEntity(key, e), nil
		},
		remove: func(v any, e model.EntityID) (bool, error) {
			key, ok := v.(T)
			if !ok && v != nil {
				return false, &TypeMismatchError{Property: p.name, Expected: typ, Actual: reflect.TypeOf(v)}
			}
			return ix.RemoveEntity(key, e), nil
		},
	}

	r.metrics.RecordRegister(p.name, nil)
	r.logger.LogRegister(context.Background(), p.name, typ.String(), nil)
	return ix, nil
}

// Typed returns the typed index of p if it is registered with type T.
//
// The returned index is not synchronized; callers must not use it
// concurrently with registry writes.
func Typed[T any](r *Registry, p Property[T]) (*index.Typed[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.names[p.name]
	if !ok || id.Type != p.Type() {
		return nil, false
	}
	return r.props[id].index.(*index.Typed[T]), true
}

// Insert adds id to the entity set of value, registering p on first use.
// It reports whether id was newly added.
func Insert[T any](r *Registry, p Property[T], value T, id model.EntityID) (bool, error) {
	start := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	ix, err := registerLocked(r, p)
	if err != nil {
		r.metrics.RecordInsert(p.name, time.Since(start), err)
		return false, err
	}
	added := ix.InsertEntity(value, id)
	r.metrics.RecordInsert(p.name, time.Since(start), nil)
	return added, nil
}

// Remove removes id from the entity set of value and reports whether it was
// present. Entries left empty are pruned.
func Remove[T any](r *Registry, p Property[T], value T, id model.EntityID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pid, ok := r.names[p.name]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownProperty, p.name)
	}
	if pid.Type != p.Type() {
		return false, &TypeMismatchError{Property: p.name, Expected: pid.Type, Actual: p.Type()}
	}
	return r.props[pid].index.(*index.Typed[T]).RemoveEntity(value, id), nil
}

// Lookup returns a snapshot of the entities holding value.
// A miss, including an unregistered property, returns false.
func Lookup[T any](r *Registry, p Property[T], value T) (index.Entities, bool) {
	start := time.Now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	pid, ok := r.names[p.name]
	if !ok || pid.Type != p.Type() {
		r.metrics.RecordLookup(p.name, false, time.Since(start))
		return nil, false
	}
	set, ok := r.props[pid].index.(*index.Typed[T]).Get(value)
	r.metrics.RecordLookup(p.name, ok, time.Since(start))
	if !ok {
		return nil, false
	}
	return set.Clone(), true
}

func (r *Registry) propertyLocked(name string) (*property, error) {
	id, ok := r.names[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	return r.props[id], nil
}

// Index returns the type-erased index of the named property.
//
// The returned index is not synchronized; callers must not use it
// concurrently with registry writes.
func (r *Registry) Index(name string) (index.Index, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, err := r.propertyLocked(name)
	if err != nil {
		return nil, false
	}
	return p.index, true
}

// PropertyID returns the identity of the named property.
func (r *Registry) PropertyID(name string) (PropertyID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.names[name]
	return id, ok
}

// Properties returns the registered property names in sorted order.
func (r *Registry) Properties() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// InsertWithHash adds id to an existing entry of the named property.
// It never creates entries and fails with ErrNoSuchEntry when d is unknown.
func (r *Registry) InsertWithHash(name string, d digest.Digest, id model.EntityID) (bool, error) {
	start := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.propertyLocked(name)
	if err != nil {
		r.metrics.RecordInsert(name, time.Since(start), err)
		return false, err
	}
	added, err := p.index.InsertEntityWithHash(d, id)
	r.metrics.RecordInsert(name, time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("property %q: %w", name, err)
	}
	return added, nil
}

// RemoveWithHash removes id from an existing entry of the named property.
func (r *Registry) RemoveWithHash(name string, d digest.Digest, id model.EntityID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.propertyLocked(name)
	if err != nil {
		return false, err
	}
	removed, err := p.index.RemoveEntityWithHash(d, id)
	if err != nil {
		return false, fmt.Errorf("property %q: %w", name, err)
	}
	return removed, nil
}

// GetWithHash returns a snapshot of the entities of the named property's entry for d.
func (r *Registry) GetWithHash(name string, d digest.Digest) (index.Entities, bool) {
	start := time.Now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, err := r.propertyLocked(name)
	if err != nil {
		r.metrics.RecordLookup(name, false, time.Since(start))
		return nil, false
	}
	set, ok := p.index.GetWithHash(d)
	r.metrics.RecordLookup(name, ok, time.Since(start))
	if !ok {
		return nil, false
	}
	return set.Clone(), true
}

// HasHash reports whether the named property has an entry for d.
func (r *Registry) HasHash(name string, d digest.Digest) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, err := r.propertyLocked(name)
	if err != nil {
		return false
	}
	return p.index.HasHash(d)
}

// Field is a property name with a value, used by the untyped registry API.
type Field struct {
	Name  string
	Value any
}

// F is shorthand for Field{Name: name, Value: value}.
func F(name string, value any) Field {
	return Field{Name: name, Value: value}
}

// InsertField adds id to the entity set of f.Value in the named property,
// creating the entry if needed. The value's type must be identical to the
// registered type.
func (r *Registry) InsertField(id model.EntityID, f Field) (bool, error) {
	start := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	added, err := r.insertFieldLocked(id, f)
	r.metrics.RecordInsert(f.Name, time.Since(start), err)
	return added, err
}

func (r *Registry) insertFieldLocked(id model.EntityID, f Field) (bool, error) {
	p, err := r.propertyLocked(f.Name)
	if err != nil {
		return false, err
	}
	if err := checkType(f.Name, p.id.Type, f.Value); err != nil {
		return false, err
	}
	return p.insert(f.Value, id)
}

// RemoveField removes id from the entity set of f.Value in the named property.
func (r *Registry) RemoveField(id model.EntityID, f Field) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.propertyLocked(f.Name)
	if err != nil {
		return false, err
	}
	if err := checkType(f.Name, p.id.Type, f.Value); err != nil {
		return false, err
	}
	return p.remove(f.Value, id)
}

// Match returns the entities holding every field value, intersecting the
// single-property sets from the smallest. No fields match nothing.
func (r *Registry) Match(fields ...Field) (*index.EntitySet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sets := make([]index.Entities, 0, len(fields))
	for _, f := range fields {
		p, err := r.propertyLocked(f.Name)
		if err != nil {
			return nil, err
		}
		if err := checkType(f.Name, p.id.Type, f.Value); err != nil {
			return nil, err
		}
		set, ok := p.index.GetWithHash(p.index.KeyDigest(f.Value))
		if !ok {
			return index.NewEntitySet(), nil
		}
		sets = append(sets, set)
	}
	return index.Intersect(sets...), nil
}

// IndexStats describes one index held by the registry.
type IndexStats struct {
	// Name is the property name, or the canonical property names joined by "+"
	// for composites.
	Name string
	// Type is the key type.
	Type string
	// Composite reports whether the index is a composite index.
	Composite bool
	// Entries is the number of distinct keys.
	Entries int
}

// Stats returns statistics for every property and composite index, sorted by name.
func (r *Registry) Stats() []IndexStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make([]IndexStats, 0, len(r.props)+len(r.composites))
	for _, p := range r.props {
		stats = append(stats, IndexStats{
			Name:    p.id.Name,
			Type:    p.id.Type.String(),
			Entries: p.index.Len(),
		})
	}
	for _, c := range r.composites {
		stats = append(stats, IndexStats{
			Name:      c.name,
			Type:      c.index.KeyType().String(),
			Composite: true,
			Entries:   c.index.Len(),
		})
	}
	slices.SortFunc(stats, func(a, b IndexStats) int {
		return strings.Compare(a.Name, b.Name)
	})
	return stats
}
