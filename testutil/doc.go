// Package testutil provides testing utilities for kozinec.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded generators for feature vectors and for pairs of
// separable or overlapping classes.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.UniformVectors(100, 16) // uniform [0, 1)
//	vecs = rng.GaussianVectors(100, 16) // standard normal
//
// # Two-Class Data
//
//	pos, neg := rng.SeparableClasses(50, 50, 8, 2.0)
package testutil
