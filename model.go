package kozinec

import "github.com/hupe1980/kozinec/model"

// Model is a trained classifier: per-class convex coefficients, the sample
// IDs they refer to and the terminal Status.
type Model = model.Model

// Status is the terminal state of a training run.
type Status = model.Status

// KernelStatistics are the cached kernel sums A, B, C, D and E.
type KernelStatistics = model.KernelStatistics

const (
	StatusRunning         = model.StatusRunning
	StatusConverged       = model.StatusConverged
	StatusBudgetExhausted = model.StatusBudgetExhausted
)
