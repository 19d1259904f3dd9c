package benchmark_test

import (
	"testing"

	"github.com/hupe1980/propdex"
	"github.com/hupe1980/propdex/model"
	"github.com/hupe1980/propdex/testutil"
)

var (
	region = propdex.NewProperty[string]("region")
	age    = propdex.NewProperty[int]("age")
	tier   = propdex.NewProperty[string]("tier")
)

var tiers = []string{"free", "pro", "enterprise"}

type person struct {
	id     model.EntityID
	region string
	age    int
	tier   string
}

// people generates n records with Zipf-skewed regions.
func people(n, regions int) []person {
	rng := testutil.NewRNG(42)
	names := rng.Strings(regions, 8)
	out := make([]person, n)
	for i := range out {
		out[i] = person{
			id:     model.EntityID(i),
			region: names[rng.Zipf(regions, 1.1)],
			age:    18 + rng.Intn(60),
			tier:   tiers[rng.Intn(len(tiers))],
		}
	}
	return out
}

func records(ps []person) []propdex.Record {
	out := make([]propdex.Record, len(ps))
	for i, p := range ps {
		out[i] = propdex.Record{
			ID: p.id,
			Fields: []propdex.Field{
				propdex.F("region", p.region),
				propdex.F("age", p.age),
				propdex.F("tier", p.tier),
			},
		}
	}
	return out
}

// newRegistry returns a registry with region, age and tier registered.
func newRegistry(tb testing.TB, opts ...propdex.Option) *propdex.Registry {
	tb.Helper()
	r := propdex.New(opts...)
	if _, err := propdex.Register(r, region); err != nil {
		tb.Fatal(err)
	}
	if _, err := propdex.Register(r, age); err != nil {
		tb.Fatal(err)
	}
	if _, err := propdex.Register(r, tier); err != nil {
		tb.Fatal(err)
	}
	return r
}

// populated returns a registry filled sequentially with ps.
func populated(tb testing.TB, ps []person) *propdex.Registry {
	tb.Helper()
	r := newRegistry(tb)
	for _, p := range ps {
		_, _ = propdex.Insert(r, region, p.region, p.id)
		_, _ = propdex.Insert(r, age, p.age, p.id)
		_, _ = propdex.Insert(r, tier, p.tier, p.id)
	}
	return r
}
