// Package testutil provides testing utilities for propdex.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG for generating property values,
// skewed value distributions and tag orderings.
//
// # Random Values
//
//	rng := testutil.NewRNG(seed)
//	name := rng.String(12)       // random alphanumeric string
//	bucket := rng.Zipf(100, 1.5) // skewed value in [0, 100)
//	order := rng.Perm(4)         // random permutation of 0..3
package testutil
