package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/kozinec/kernel"
)

// ErrInvalidModel is returned when a model's vectors are inconsistent.
var ErrInvalidModel = errors.New("invalid model")

// Status is the state of a training run.
type Status uint8

const (
	// StatusRunning is the state between initialization and termination.
	StatusRunning Status = iota
	// StatusConverged means the stop condition was met.
	StatusConverged
	// StatusBudgetExhausted means max updates were spent without convergence.
	StatusBudgetExhausted
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusConverged:
		return "converged"
	case StatusBudgetExhausted:
		return "budget_exhausted"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "running":
		*s = StatusRunning
	case "converged":
		*s = StatusConverged
	case "budget_exhausted":
		*s = StatusBudgetExhausted
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// Terminal reports whether s ends a training run.
func (s Status) Terminal() bool {
	return s == StatusConverged || s == StatusBudgetExhausted
}

// KernelStatistics are the cached kernel values of a training run.
// A = k(c+, c+), B = k(c-, c-), C = k(c+, c-); D and E are k(x, c+) and
// k(x, c-) of the last candidate that was stepped toward.
type KernelStatistics struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	D float64 `json:"d"`
	E float64 `json:"e"`
}

// Margin returns sqrt(A + B - 2C), the feature-space distance between the
// hull points.
func (s KernelStatistics) Margin() float64 {
	return math.Sqrt(s.A + s.B - 2*s.C)
}

// Model is a trained hull-distance classifier.
type Model struct {
	AlphaPos []float64 `json:"alpha_pos"`
	IDsPos   []string  `json:"ids_pos"`
	AlphaNeg []float64 `json:"alpha_neg"`
	IDsNeg   []string  `json:"ids_neg"`
	Status   Status    `json:"status"`

	// Label names the positive class, e.g. the class letter.
	Label      string            `json:"label,omitempty"`
	Kernel     kernel.Polynomial `json:"kernel"`
	Epsilon    float64           `json:"epsilon"`
	Iterations int               `json:"iterations"`
	Stats      KernelStatistics  `json:"stats"`
}

// Validate checks that coefficient and identifier vectors line up and that
// each coefficient vector is a convex combination.
func (m *Model) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil", ErrInvalidModel)
	}
	if len(m.AlphaPos) != len(m.IDsPos) {
		return fmt.Errorf("%w: %d positive coefficients for %d ids", ErrInvalidModel, len(m.AlphaPos), len(m.IDsPos))
	}
	if len(m.AlphaNeg) != len(m.IDsNeg) {
		return fmt.Errorf("%w: %d negative coefficients for %d ids", ErrInvalidModel, len(m.AlphaNeg), len(m.IDsNeg))
	}
	for _, alpha := range [][]float64{m.AlphaPos, m.AlphaNeg} {
		if err := checkSimplex(alpha); err != nil {
			return err
		}
	}
	if err := m.Kernel.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	return nil
}

func checkSimplex(alpha []float64) error {
	if len(alpha) == 0 {
		return fmt.Errorf("%w: empty coefficient vector", ErrInvalidModel)
	}
	var sum float64
	for i, a := range alpha {
		if a < 0 || math.IsNaN(a) {
			return fmt.Errorf("%w: coefficient %d is %v", ErrInvalidModel, i, a)
		}
		sum += a
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("%w: coefficients sum to %v", ErrInvalidModel, sum)
	}
	return nil
}

// Support returns the indices of the support vectors of each class.
func (m *Model) Support() (pos, neg *roaring.Bitmap) {
	return nonZero(m.AlphaPos), nonZero(m.AlphaNeg)
}

// SupportIDs returns the identifiers of the support vectors of each class.
func (m *Model) SupportIDs() (pos, neg []string) {
	sp, sn := m.Support()
	return pick(m.IDsPos, sp), pick(m.IDsNeg, sn)
}

func nonZero(alpha []float64) *roaring.Bitmap {
	rb := roaring.New()
	for i, a := range alpha {
		if a != 0 {
			rb.Add(uint32(i))
		}
	}
	return rb
}

func pick(ids []string, rb *roaring.Bitmap) []string {
	out := make([]string, 0, rb.GetCardinality())
	it := rb.Iterator()
	for it.HasNext() {
		out = append(out, ids[it.Next()])
	}
	return out
}
