package kernel

import (
	"fmt"
	"math"
)

const (
	// DefaultDegree is the polynomial degree used when none is configured.
	DefaultDegree = 4
	// DefaultBias is the additive bias used when none is configured.
	DefaultBias = 1.0
)

// ErrDimensionMismatch is returned when a kernel is evaluated on vectors
// of different length.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Kernel evaluates an inner product in an implicit feature space.
// Implementations must be pure and safe for concurrent use.
type Kernel interface {
	// Eval returns k(x, y). x and y must have equal length.
	Eval(x, y []float64) (float64, error)
	// Name returns a stable identifier used in persisted models.
	Name() string
}

// Func is a function type for unchecked kernel evaluation.
// Callers guarantee equal-length inputs.
type Func func(x, y []float64) float64

// Polynomial is the kernel (dot(x, y) + Bias)^Degree.
type Polynomial struct {
	Degree int
	Bias   float64
}

// Default returns the polynomial kernel with degree 4 and bias 1.
func Default() Polynomial {
	return Polynomial{Degree: DefaultDegree, Bias: DefaultBias}
}

// Linear returns the polynomial kernel with degree 1 and bias 0.
func Linear() Polynomial {
	return Polynomial{Degree: 1, Bias: 0}
}

// Validate reports whether the kernel parameters are usable.
func (p Polynomial) Validate() error {
	if p.Degree < 1 {
		return fmt.Errorf("polynomial degree must be >= 1, got %d", p.Degree)
	}
	if math.IsNaN(p.Bias) || math.IsInf(p.Bias, 0) {
		return fmt.Errorf("polynomial bias must be finite, got %v", p.Bias)
	}
	return nil
}

// Eval implements Kernel.
func (p Polynomial) Eval(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, &ErrDimensionMismatch{Expected: len(x), Actual: len(y)}
	}
	return p.eval(x, y), nil
}

// Func returns the unchecked form of p.
func (p Polynomial) Func() Func {
	return p.eval
}

// Name implements Kernel.
func (p Polynomial) Name() string {
	return fmt.Sprintf("poly(degree=%d,bias=%g)", p.Degree, p.Bias)
}

func (p Polynomial) eval(x, y []float64) float64 {
	return powi(Dot(x, y)+p.Bias, p.Degree)
}

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float64) float64 {
	var s0, s1, s2, s3 float64
	n := len(a)
	i := 0
	for ; i+4 <= n; i += 4 {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}
	for ; i < n; i++ {
		s0 += a[i] * b[i]
	}
	return (s0 + s1) + (s2 + s3)
}

// powi raises base to a non-negative integer power by squaring.
func powi(base float64, times int) float64 {
	ret := 1.0
	for t := times; t > 0; t /= 2 {
		if t%2 == 1 {
			ret *= base
		}
		base *= base
	}
	return ret
}

// Combination returns Σ alpha_i * k(xs_i, y), the kernel value of the convex
// combination Σ alpha_i * φ(xs_i) against φ(y). Zero coefficients are skipped.
func Combination(k Kernel, alpha []float64, xs [][]float64, y []float64) (float64, error) {
	if len(alpha) != len(xs) {
		return 0, &ErrDimensionMismatch{Expected: len(xs), Actual: len(alpha)}
	}
	var sum float64
	for i, a := range alpha {
		if a == 0 {
			continue
		}
		v, err := k.Eval(xs[i], y)
		if err != nil {
			return 0, err
		}
		sum += a * v
	}
	return sum, nil
}

// Provider returns the kernel registered under name.
//
// Recognized names are "poly" (degree/bias applied) and "linear"
// (degree/bias ignored).
func Provider(name string, degree int, bias float64) (Polynomial, error) {
	switch name {
	case "", "poly", "polynomial":
		p := Polynomial{Degree: degree, Bias: bias}
		if err := p.Validate(); err != nil {
			return Polynomial{}, err
		}
		return p, nil
	case "linear":
		return Linear(), nil
	default:
		return Polynomial{}, fmt.Errorf("unsupported kernel: %q", name)
	}
}
