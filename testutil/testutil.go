package testutil

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RNG is a seeded, thread-safe random source for tests and benchmarks.
type RNG struct {
	mu   sync.Mutex
	rand *rand.Rand
	seed int64
	// cumulative Zipf weights keyed by (n, s)
	zipf map[zipfKey][]float64
}

type zipfKey struct {
	n int
	s float64
}

// NewRNG creates an RNG seeded with seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: newRand(seed),
		seed: seed,
		zipf: make(map[zipfKey][]float64),
	}
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// Reset restarts the sequence from the initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = newRand(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a value in [0, n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Uint64 returns a random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// String returns a random alphanumeric string of length n.
func (r *RNG) String(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.rand.IntN(len(alphabet))]
	}
	return string(b)
}

// Strings returns num distinct random strings of length n.
// n must be large enough to hold num distinct values.
func (r *RNG) Strings(num, n int) []string {
	seen := make(map[string]struct{}, num)
	out := make([]string, 0, num)
	for len(out) < num {
		s := r.String(n)
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Perm returns a random permutation of [0, n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// Shuffle returns a shuffled copy of s.
func Shuffle[T any](r *RNG, s []T) []T {
	out := slices.Clone(s)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Zipf returns a value in [0, n) where P(k) is proportional to 1/(k+1)^s.
// Property values in real datasets (regions, statuses, ages) are skewed like this.
func (r *RNG) Zipf(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cdf := r.zipfCDF(n, s)
	u := r.rand.Float64() * cdf[n-1]
	k, _ := slices.BinarySearch(cdf, u)
	return min(k, n-1)
}

// zipfCDF returns the cumulative weights for (n, s). Caller holds r.mu.
func (r *RNG) zipfCDF(n int, s float64) []float64 {
	key := zipfKey{n: n, s: s}
	if cdf, ok := r.zipf[key]; ok {
		return cdf
	}
	cdf := make([]float64, n)
	var sum float64
	for k := range n {
		sum += 1 / math.Pow(float64(k+1), s)
		cdf[k] = sum
	}
	r.zipf[key] = cdf
	return cdf
}
