package hull

import (
	"fmt"
	"math"
)

// Candidate is the most margin-violating sample of one side.
type Candidate struct {
	Side  Side
	Index int
	// Score is the sample's projected distance onto the separating direction.
	Score float64
	// D and E are k(x, c+) and k(x, c-).
	D float64
	E float64
}

// Select scans both classes and returns the minimum-score candidate of each.
//
// For a positive sample m(x) = (D - E + B - C) / sqrt(A + B - 2C); for a
// negative sample m(x) = (-D + E + A - C) / sqrt(A + B - 2C). Ties go to the
// lowest index.
func (s *State) Select() (pos, neg Candidate, err error) {
	st := s.stats
	d2 := st.Distance2()
	if !(d2 > 0) {
		return Candidate{}, Candidate{}, fmt.Errorf("%w: A+B-2C=%g", ErrUndefinedMargin, d2)
	}
	norm := math.Sqrt(d2)

	pc := &s.pos
	idx, score := s.argmin(len(pc.x), func(i int) float64 {
		return (pc.toPos[i] - pc.toNeg[i] + st.B - st.C) / norm
	})
	pos = Candidate{Side: Positive, Index: idx, Score: score, D: pc.toPos[idx], E: pc.toNeg[idx]}

	nc := &s.neg
	idx, score = s.argmin(len(nc.x), func(i int) float64 {
		return (-nc.toPos[i] + nc.toNeg[i] + st.A - st.C) / norm
	})
	neg = Candidate{Side: Negative, Index: idx, Score: score, D: nc.toPos[idx], E: nc.toNeg[idx]}

	return pos, neg, nil
}

// Verdict is the outcome of one stop-condition check.
type Verdict struct {
	// Margin is sqrt(A + B - 2C).
	Margin   float64
	DeltaPos float64
	DeltaNeg float64
	Stop     bool
}

// Evaluate computes delta = sqrt(A + B - 2C) - m_min for both sides and
// reports Stop when both are below epsilon. It does not mutate anything.
func Evaluate(st Stats, pos, neg Candidate, epsilon float64) Verdict {
	margin := st.Distance()
	v := Verdict{
		Margin:   margin,
		DeltaPos: margin - pos.Score,
		DeltaNeg: margin - neg.Score,
	}
	v.Stop = v.DeltaPos < epsilon && v.DeltaNeg < epsilon
	return v
}

// Pick returns the candidate with the larger delta. The positive side wins
// ties.
func (v Verdict) Pick(pos, neg Candidate) Candidate {
	if v.DeltaNeg > v.DeltaPos {
		return neg
	}
	return pos
}
