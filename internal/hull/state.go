package hull

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/kozinec/kernel"
)

var (
	// ErrEmptyClass is returned when either class has no samples.
	ErrEmptyClass = errors.New("class has no samples")

	// ErrUndefinedMargin is returned when A + B - 2C <= 0, i.e. the hull
	// points coincide and the separating direction is undefined.
	ErrUndefinedMargin = errors.New("margin undefined: hull points coincide")
)

// Side identifies one of the two classes.
type Side uint8

const (
	// Positive is the class whose label matched.
	Positive Side = iota
	// Negative is every other sample.
	Negative
)

func (s Side) String() string {
	switch s {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return fmt.Sprintf("Side(%d)", s)
	}
}

// Stats holds the cached kernel statistics of a State.
//
// A, B and C describe the current hull points. D and E are k(x, c+) and
// k(x, c-) of the candidate most recently passed to Update.
type Stats struct {
	A float64
	B float64
	C float64
	D float64
	E float64
}

// Distance2 returns the squared feature-space distance A + B - 2C between the
// hull points.
func (s Stats) Distance2() float64 {
	return s.A + s.B - 2*s.C
}

// Distance returns sqrt(A + B - 2C). It is NaN when Distance2 is negative.
func (s Stats) Distance() float64 {
	return math.Sqrt(s.Distance2())
}

// Config configures a State.
type Config struct {
	// Kernel is evaluated without length checks; New validates dimensions.
	Kernel kernel.Func

	// Parallelism bounds the goroutines used per scan. Values <= 1 scan
	// sequentially.
	Parallelism int

	// MinChunk is the smallest number of samples handed to one goroutine.
	// Defaults to 256.
	MinChunk int
}

// class holds the per-class sample data and caches.
type class struct {
	x       [][]float64
	alpha   []float64
	support *roaring.Bitmap // indices with alpha > 0
	diag    []float64       // k(x_i, x_i)
	toPos   []float64       // k(x_i, c+)
	toNeg   []float64       // k(x_i, c-)
}

// State is the mutable S-K iterate: one convex combination per class plus
// the kernel caches derived from them.
type State struct {
	k        kernel.Func
	par      int
	minChunk int

	pos class
	neg class

	stats   Stats
	updates int
}

// New initializes a State with the first sample of each class as the sole
// hull representative (coefficient 1, all others 0) and computes A, B and C
// from the two representatives.
func New(pos, neg [][]float64, cfg Config) (*State, error) {
	if len(pos) == 0 {
		return nil, fmt.Errorf("%w: positive", ErrEmptyClass)
	}
	if len(neg) == 0 {
		return nil, fmt.Errorf("%w: negative", ErrEmptyClass)
	}
	if cfg.Kernel == nil {
		cfg.Kernel = kernel.Default().Func()
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = 256
	}

	dim := len(pos[0])
	for _, set := range [][][]float64{pos, neg} {
		for _, x := range set {
			if len(x) != dim {
				return nil, &kernel.ErrDimensionMismatch{Expected: dim, Actual: len(x)}
			}
		}
	}

	s := &State{
		k:        cfg.Kernel,
		par:      cfg.Parallelism,
		minChunk: cfg.MinChunk,
		pos:      newClass(pos),
		neg:      newClass(neg),
	}

	p0, n0 := pos[0], neg[0]
	s.stats.A = s.k(p0, p0)
	s.stats.B = s.k(n0, n0)
	s.stats.C = s.k(p0, n0)

	for _, c := range []*class{&s.pos, &s.neg} {
		s.forEach(len(c.x), func(i int) {
			x := c.x[i]
			c.diag[i] = s.k(x, x)
			c.toPos[i] = s.k(x, p0)
			c.toNeg[i] = s.k(x, n0)
		})
	}

	return s, nil
}

func newClass(x [][]float64) class {
	n := len(x)
	c := class{
		x:       x,
		alpha:   make([]float64, n),
		support: roaring.New(),
		diag:    make([]float64, n),
		toPos:   make([]float64, n),
		toNeg:   make([]float64, n),
	}
	c.alpha[0] = 1
	c.support.Add(0)
	return c
}

// EstimateBytes returns the cache footprint of a State over the given class
// sizes, excluding the samples themselves.
func EstimateBytes(numPos, numNeg int) int64 {
	// alpha, diag, toPos, toNeg per sample.
	return int64(numPos+numNeg) * 4 * 8
}

// Stats returns the current kernel statistics.
func (s *State) Stats() Stats {
	return s.stats
}

// Updates returns the number of Update calls applied so far, including
// zero-step ones.
func (s *State) Updates() int {
	return s.updates
}

// Len returns the number of samples on side.
func (s *State) Len(side Side) int {
	return len(s.class(side).x)
}

// Alpha returns a copy of side's coefficient vector.
func (s *State) Alpha(side Side) []float64 {
	c := s.class(side)
	out := make([]float64, len(c.alpha))
	copy(out, c.alpha)
	return out
}

// Support returns the indices with a non-zero coefficient on side.
// The returned bitmap is a copy.
func (s *State) Support(side Side) *roaring.Bitmap {
	return s.class(side).support.Clone()
}

// Projection returns the cached D = k(x_i, c+) and E = k(x_i, c-) of
// sample i on side.
func (s *State) Projection(side Side, i int) (d, e float64) {
	c := s.class(side)
	return c.toPos[i], c.toNeg[i]
}

func (s *State) class(side Side) *class {
	if side == Positive {
		return &s.pos
	}
	return &s.neg
}

// Refresh recomputes A, B, C and every cached projection directly from the
// coefficient vectors, discarding accumulated rounding error. Only support
// indices contribute, so the cost is O(n * |support|).
func (s *State) Refresh() {
	s.stats.A = s.selfKernel(&s.pos)
	s.stats.B = s.selfKernel(&s.neg)
	s.stats.C = s.crossKernel()

	for _, c := range []*class{&s.pos, &s.neg} {
		s.forEach(len(c.x), func(i int) {
			x := c.x[i]
			c.toPos[i] = s.combination(&s.pos, x)
			c.toNeg[i] = s.combination(&s.neg, x)
		})
	}
}

// combination returns Σ alpha_j k(x_j, y) over c's support.
func (s *State) combination(c *class, y []float64) float64 {
	var sum float64
	it := c.support.Iterator()
	for it.HasNext() {
		j := it.Next()
		sum += c.alpha[j] * s.k(c.x[j], y)
	}
	return sum
}

func (s *State) selfKernel(c *class) float64 {
	var sum float64
	it := c.support.Iterator()
	for it.HasNext() {
		i := it.Next()
		sum += c.alpha[i] * s.combination(c, c.x[i])
	}
	return sum
}

func (s *State) crossKernel() float64 {
	var sum float64
	it := s.pos.support.Iterator()
	for it.HasNext() {
		i := it.Next()
		sum += s.pos.alpha[i] * s.combination(&s.neg, s.pos.x[i])
	}
	return sum
}
