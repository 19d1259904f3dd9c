package propdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/propdex/composite"
	"github.com/hupe1980/propdex/model"
)

// ctxCheckInterval is how many inserts a load worker performs between context checks.
const ctxCheckInterval = 1024

// Record is one entity with its property values.
type Record struct {
	ID     model.EntityID
	Fields []Field
}

// LoadError reports the records rejected by Load.
type LoadError struct {
	// Failed is the number of rejected records.
	Failed int
	// Total is the number of records passed to Load.
	Total int
	// Err joins the per-record errors.
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load: %d of %d records rejected: %v", e.Failed, e.Total, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type fieldOp struct {
	value any
	id    model.EntityID
}

type tupleOp struct {
	tuple composite.Tuple
	id    model.EntityID
}

// Load inserts records into the property indexes and into every composite
// whose properties a record fully carries.
//
// A record is rejected as a whole if any field names an unknown property,
// carries a value of the wrong type or repeats a property; accepted records
// are still loaded and the rejections are reported as a *LoadError.
// Indexes are filled concurrently, one worker per index, bounded by
// WithLoadWorkers. The registry is locked for writes for the whole load.
func (r *Registry) Load(ctx context.Context, records []Record) error {
	start := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	fieldOps := make(map[*property][]fieldOp)
	tupleOps := make(map[*Composite][]tupleOp)

	var (
		rejected []error
		values   = make(map[string]any)
	)

	for _, rec := range records {
		clear(values)
		if err := r.validateRecordLocked(rec, values); err != nil {
			rejected = append(rejected, fmt.Errorf("entity %v: %w", rec.ID, err))
			continue
		}
		for _, f := range rec.Fields {
			p := r.props[r.names[f.Name]]
			fieldOps[p] = append(fieldOps[p], fieldOp{value: f.Value, id: rec.ID})
		}
		for _, c := range r.composites {
			if t, ok := c.tupleFrom(values); ok {
				tupleOps[c] = append(tupleOps[c], tupleOp{tuple: t, id: rec.ID})
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.loadWorkers)

	for p, ops := range fieldOps {
		g.Go(func() error {
			for i, op := range ops {
				if i%ctxCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				if _, err := p.insert(op.value, op.id); err != nil {
					return fmt.Errorf("property %q: %w", p.id.Name, err)
				}
			}
			return nil
		})
	}
	for c, ops := range tupleOps {
		g.Go(func() error {
			for i, op := range ops {
				if i%ctxCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				c.index.InsertEntity(op.tuple, op.id)
			}
			return nil
		})
	}

	err := g.Wait()
	duration := time.Since(start)

	r.metrics.RecordLoad(len(records), len(rejected), duration)
	r.logger.LogLoad(ctx, len(records), len(rejected), duration)

	if err != nil {
		return err
	}
	if len(rejected) > 0 {
		return &LoadError{Failed: len(rejected), Total: len(records), Err: errors.Join(rejected...)}
	}
	return nil
}

// validateRecordLocked checks every field of rec and collects the values by name.
func (r *Registry) validateRecordLocked(rec Record, values map[string]any) error {
	for _, f := range rec.Fields {
		p, err := r.propertyLocked(f.Name)
		if err != nil {
			return err
		}
		if err := checkType(f.Name, p.id.Type, f.Value); err != nil {
			return err
		}
		if _, dup := values[f.Name]; dup {
			return fmt.Errorf("%w: %q given twice", ErrInvalidProperty, f.Name)
		}
		values[f.Name] = f.Value
	}
	return nil
}

// tupleFrom builds the canonical tuple of c from values, if every property is present.
func (c *Composite) tupleFrom(values map[string]any) (composite.Tuple, bool) {
	t := make(composite.Tuple, len(c.props))
	for i, p := range c.props {
		v, ok := values[p.id.Name]
		if !ok {
			return nil, false
		}
		t[i] = v
	}
	return t, true
}
