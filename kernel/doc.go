// Package kernel provides the kernel functions used to train and evaluate
// hull-distance classifiers.
//
// # Supported Kernels
//
//   - Polynomial: (dot(x, y) + bias)^degree, the default (degree 4, bias 1)
//   - Linear: dot(x, y), a polynomial kernel with degree 1 and bias 0
//
// # Usage
//
//	k := kernel.Polynomial{Degree: 4, Bias: 1}
//	v, err := k.Eval(x, y)
//
// A convex combination of samples is never materialized. Its kernel value
// against a vector is the weighted sum of the member kernel values:
//
//	v, err := kernel.Combination(k, alpha, samples, y)
package kernel
