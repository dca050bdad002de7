package kozinec

import (
	"fmt"

	"github.com/hupe1980/kozinec/dataset"
	"github.com/hupe1980/kozinec/kernel"
)

// Classifier evaluates a trained Model on new vectors.
//
// Only support vectors (non-zero coefficients) are kept, so a Classifier is
// usually much smaller than the training set. It is safe for concurrent use.
type Classifier struct {
	kernel kernel.Polynomial

	alphaPos []float64
	pos      [][]float64
	alphaNeg []float64
	neg      [][]float64

	// threshold is (A - B) / 2.
	threshold float64
}

// NewClassifier resolves the support IDs of m against the training sets.
// pos and neg must contain every support sample; other samples are ignored.
// IDs must be unique within each set.
func NewClassifier(m *Model, pos, neg dataset.SampleSet) (*Classifier, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	c := &Classifier{kernel: m.Kernel}

	var err error
	c.alphaPos, c.pos, err = supportVectors(m.AlphaPos, m.IDsPos, withIDs(pos))
	if err != nil {
		return nil, err
	}
	c.alphaNeg, c.neg, err = supportVectors(m.AlphaNeg, m.IDsNeg, withIDs(neg))
	if err != nil {
		return nil, err
	}
	if len(c.pos) > 0 && len(c.neg) > 0 && len(c.pos[0]) != len(c.neg[0]) {
		return nil, &ErrDimensionMismatch{Expected: len(c.pos[0]), Actual: len(c.neg[0])}
	}

	a := c.selfKernel(c.alphaPos, c.pos)
	b := c.selfKernel(c.alphaNeg, c.neg)
	c.threshold = (a - b) / 2

	return c, nil
}

func supportVectors(alpha []float64, ids []string, set dataset.SampleSet) ([]float64, [][]float64, error) {
	byID := make(map[string][]float64, set.Len())
	for i, id := range set.IDs {
		if _, dup := byID[id]; dup {
			return nil, nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		byID[id] = set.Vectors[i]
	}

	var (
		coef []float64
		vecs [][]float64
	)
	for i, a := range alpha {
		if a == 0 {
			continue
		}
		v, ok := byID[ids[i]]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrMissingSupport, ids[i])
		}
		coef = append(coef, a)
		vecs = append(vecs, v)
	}
	return coef, vecs, nil
}

func (c *Classifier) selfKernel(alpha []float64, xs [][]float64) float64 {
	k := c.kernel.Func()
	var sum float64
	for i := range xs {
		for j := range xs {
			sum += alpha[i] * alpha[j] * k(xs[i], xs[j])
		}
	}
	return sum
}

// Dim returns the expected input dimension.
func (c *Classifier) Dim() int {
	if len(c.pos) > 0 {
		return len(c.pos[0])
	}
	return len(c.neg[0])
}

// SupportSize returns the number of kept support vectors per class.
func (c *Classifier) SupportSize() (pos, neg int) {
	return len(c.pos), len(c.neg)
}

// Decision returns k(x, c+) - k(x, c-) - (A - B) / 2. Positive values are
// closer to the positive hull point.
func (c *Classifier) Decision(x []float64) (float64, error) {
	if len(x) != c.Dim() {
		return 0, &ErrDimensionMismatch{Expected: c.Dim(), Actual: len(x)}
	}
	d, err := kernel.Combination(c.kernel, c.alphaPos, c.pos, x)
	if err != nil {
		return 0, translateError(err)
	}
	e, err := kernel.Combination(c.kernel, c.alphaNeg, c.neg, x)
	if err != nil {
		return 0, translateError(err)
	}
	return d - e - c.threshold, nil
}

// Predict reports whether x is classified positive.
func (c *Classifier) Predict(x []float64) (bool, error) {
	f, err := c.Decision(x)
	if err != nil {
		return false, err
	}
	return f > 0, nil
}

// Accuracy is a binary confusion matrix.
type Accuracy struct {
	Total          int
	Correct        int
	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int
}

// Rate returns Correct / Total, or 0 for an empty evaluation.
func (a Accuracy) Rate() float64 {
	if a.Total == 0 {
		return 0
	}
	return float64(a.Correct) / float64(a.Total)
}

// Evaluate classifies samples and compares against pred.
func (c *Classifier) Evaluate(samples []dataset.Sample, pred dataset.Predicate) (Accuracy, error) {
	var acc Accuracy
	for _, s := range samples {
		got, err := c.Predict(s.Vector)
		if err != nil {
			return acc, fmt.Errorf("sample %s: %w", s.ID, err)
		}
		want := pred(s)
		acc.Total++
		switch {
		case got && want:
			acc.TruePositives++
		case got && !want:
			acc.FalsePositives++
		case !got && !want:
			acc.TrueNegatives++
		default:
			acc.FalseNegatives++
		}
		if got == want {
			acc.Correct++
		}
	}
	return acc, nil
}
