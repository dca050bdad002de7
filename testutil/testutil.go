package testutil

import (
	"math/rand"
	"strconv"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	vectors := make([][]float64, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float64()
		}
		vectors[i] = vec
	}

	return vectors
}

// GaussianVectors generates random vectors with values from a standard normal distribution.
func (r *RNG) GaussianVectors(num int, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.gaussianLocked(num, dimensions, nil, 1)
}

// ClusteredVectors generates vectors with Gaussian noise of the given
// spread around center.
func (r *RNG) ClusteredVectors(num int, center []float64, spread float64) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.gaussianLocked(num, len(center), center, spread)
}

// SeparableClasses generates two Gaussian blobs whose centers sit at
// +gap and -gap on every axis. Large gaps relative to the unit spread give
// linearly separable classes; small gaps give overlapping ones.
func (r *RNG) SeparableClasses(numPos, numNeg, dimensions int, gap float64) (pos, neg [][]float64) {
	up := make([]float64, dimensions)
	down := make([]float64, dimensions)
	for i := range dimensions {
		up[i] = gap
		down[i] = -gap
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pos = r.gaussianLocked(numPos, dimensions, up, 1)
	neg = r.gaussianLocked(numNeg, dimensions, down, 1)
	return pos, neg
}

// IDs returns n identifiers of the form "<prefix><i>".
func IDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range n {
		ids[i] = prefix + strconv.Itoa(i)
	}
	return ids
}

func (r *RNG) gaussianLocked(num, dimensions int, center []float64, spread float64) [][]float64 {
	data := make([]float64, num*dimensions)
	vectors := make([][]float64, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			v := r.rand.NormFloat64() * spread
			if center != nil {
				v += center[j]
			}
			vec[j] = v
		}
		vectors[i] = vec
	}

	return vectors
}
