// Package model defines the trained-classifier types shared by the trainer,
// persistence and registry packages.
//
// # Model
//
// A Model is the tuple (AlphaPos, IDsPos, AlphaNeg, IDsNeg, Status): one
// convex-combination coefficient per training sample of each class, the
// sample identifiers in the same order, and the terminal training status.
// No weight vector is stored; decisions are evaluated through the kernel
// against the support vectors (samples with a non-zero coefficient).
//
// # Status
//
//   - StatusConverged: both margin deltas fell below epsilon
//   - StatusBudgetExhausted: the update budget ran out first; the model is
//     usable but carries no margin guarantee
package model
