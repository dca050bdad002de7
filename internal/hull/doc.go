// Package hull implements the Schlesinger–Kozinec iteration over two convex
// hulls in a kernel-induced feature space.
//
// A State tracks one point inside each class hull as a convex combination of
// that class's samples. The hull points are never materialized; instead the
// State caches the kernel statistics A = k(c+, c+), B = k(c-, c-),
// C = k(c+, c-) together with every sample's projection onto both hull points.
// All caches are updated incrementally by bilinearity when a hull point moves,
// so one update costs a single kernel row rather than a full re-summation.
//
// The iteration is:
//
//	pos, neg, _ := state.Select()           // most violating sample per side
//	v := hull.Evaluate(state.Stats(), pos, neg, eps)
//	if !v.Stop {
//	    state.Update(v.Pick(pos, neg))      // Kozinec step toward the sample
//	}
//
// A State has a single owner and is not safe for concurrent use. The sample
// slices it is built from are only read and may be shared between States.
package hull
