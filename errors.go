package kozinec

import (
	"errors"
	"fmt"

	"github.com/hupe1980/kozinec/dataset"
	"github.com/hupe1980/kozinec/internal/hull"
	"github.com/hupe1980/kozinec/kernel"
	"github.com/hupe1980/kozinec/model"
)

var (
	// ErrEmptyClass is returned when either training class has no samples.
	ErrEmptyClass = hull.ErrEmptyClass
	// ErrUndefinedMargin is returned when the hull points coincide
	// (A + B - 2C <= 0), e.g. for overlapping classes.
	ErrUndefinedMargin = hull.ErrUndefinedMargin
	// ErrNoData is returned when no positive samples could be loaded.
	ErrNoData = dataset.ErrNoData
	// ErrDuplicateID is returned when two samples of one class share an ID.
	ErrDuplicateID = dataset.ErrDuplicateID
	// ErrInvalidModel is returned for inconsistent coefficient vectors.
	ErrInvalidModel = model.ErrInvalidModel
	// ErrMissingSupport is returned when a classifier cannot find the
	// vector of a support sample.
	ErrMissingSupport = errors.New("support vector not found")
)

// ErrDimensionMismatch indicates samples of different dimensionality.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidConfig indicates a rejected training option.
type ErrInvalidConfig struct {
	Field  string
	Reason string
	cause  error
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

func (e *ErrInvalidConfig) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *kernel.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	return err
}
