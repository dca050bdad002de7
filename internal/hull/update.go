package hull

// Step describes one applied Kozinec update.
type Step struct {
	Side   Side
	Index  int
	Lambda float64
}

// Update moves the hull point of c.Side toward sample c.Index:
//
//	c' = (1 - λ) c + λ x
//
// λ is the exact minimizer of the post-update distance ||c+' - c-'||², clipped
// to [0, 1]. For a positive candidate
//
//	λ = (A - C - D + E) / (A - 2D + k(x,x))
//
// and for a negative candidate
//
//	λ = (B - C + D - E) / (B - 2E + k(x,x)).
//
// A (or B), C and every cached projection are updated by bilinearity. A zero
// step leaves the State unchanged but still counts as an update.
func (s *State) Update(c Candidate) Step {
	s.updates++

	cl := s.class(c.Side)
	x := cl.x[c.Index]
	kxx := cl.diag[c.Index]
	d, e := cl.toPos[c.Index], cl.toNeg[c.Index]
	st := &s.stats
	st.D, st.E = d, e

	var num, den float64
	if c.Side == Positive {
		num = st.A - st.C - d + e
		den = st.A - 2*d + kxx
	} else {
		num = st.B - st.C + d - e
		den = st.B - 2*e + kxx
	}

	lambda := 0.0
	if den > 0 {
		lambda = clamp01(num / den)
	}

	step := Step{Side: c.Side, Index: c.Index, Lambda: lambda}
	if lambda == 0 {
		return step
	}

	keep := 1 - lambda
	if c.Side == Positive {
		st.A = keep*keep*st.A + 2*lambda*keep*d + lambda*lambda*kxx
		st.C = keep*st.C + lambda*e
	} else {
		st.B = keep*keep*st.B + 2*lambda*keep*e + lambda*lambda*kxx
		st.C = keep*st.C + lambda*d
	}

	scaleCoefficients(cl, keep, c.Index, lambda)

	// One kernel row against x refreshes the moved side's projections.
	for _, other := range []*class{&s.pos, &s.neg} {
		proj := other.toPos
		if c.Side == Negative {
			proj = other.toNeg
		}
		s.forEach(len(other.x), func(i int) {
			proj[i] = keep*proj[i] + lambda*s.k(other.x[i], x)
		})
	}

	return step
}

// scaleCoefficients applies alpha <- keep*alpha, alpha[k] += lambda.
func scaleCoefficients(cl *class, keep float64, k int, lambda float64) {
	if keep == 0 {
		it := cl.support.Iterator()
		for it.HasNext() {
			cl.alpha[it.Next()] = 0
		}
		cl.support.Clear()
	} else {
		var dropped []uint32
		it := cl.support.Iterator()
		for it.HasNext() {
			i := it.Next()
			cl.alpha[i] *= keep
			if cl.alpha[i] == 0 {
				dropped = append(dropped, i)
			}
		}
		for _, i := range dropped {
			cl.support.Remove(i)
		}
	}

	cl.alpha[k] += lambda
	cl.support.Add(uint32(k))
}

func clamp01(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v > 0:
		return v
	default:
		// Also maps NaN to 0.
		return 0
	}
}
