package dataset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/kozinec/kernel"
)

var (
	// ErrNoData is returned when a load or partition yields no usable samples.
	ErrNoData = errors.New("no data")
	// ErrDuplicateID is returned when two samples of one set share an ID.
	ErrDuplicateID = errors.New("duplicate sample id")
)

// Sample is one labeled feature vector.
type Sample struct {
	ID     string
	Label  string
	Vector []float64
}

// SampleSet is an ordered set of vectors with parallel identifiers.
// It is never mutated by training and may be shared between runs.
type SampleSet struct {
	IDs     []string
	Vectors [][]float64
}

// Len returns the number of samples.
func (s SampleSet) Len() int {
	return len(s.Vectors)
}

// Dim returns the vector dimension, or 0 for an empty set.
func (s SampleSet) Dim() int {
	if len(s.Vectors) == 0 {
		return 0
	}
	return len(s.Vectors[0])
}

// Validate checks that IDs line up with vectors and are unique, and that
// all vectors share one dimension.
func (s SampleSet) Validate() error {
	if len(s.IDs) != len(s.Vectors) {
		return fmt.Errorf("dataset: %d ids for %d vectors", len(s.IDs), len(s.Vectors))
	}
	seen := make(map[string]struct{}, len(s.IDs))
	for _, id := range s.IDs {
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}
	return checkDims(s.Vectors)
}

func checkDims(vectors [][]float64) error {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	for _, v := range vectors[1:] {
		if len(v) != dim {
			return &kernel.ErrDimensionMismatch{Expected: dim, Actual: len(v)}
		}
	}
	return nil
}

// Predicate reports whether a sample belongs to the positive class.
type Predicate func(Sample) bool

// LabelIs matches samples whose label equals label, ignoring case.
func LabelIs(label string) Predicate {
	return func(s Sample) bool {
		return strings.EqualFold(s.Label, label)
	}
}

// Partition splits samples by pred, preserving order. An empty positive
// side yields ErrNoData; an empty negative side is left for the trainer
// to reject.
func Partition(samples []Sample, pred Predicate) (pos, neg SampleSet, err error) {
	for _, s := range samples {
		if pred(s) {
			pos.IDs = append(pos.IDs, s.ID)
			pos.Vectors = append(pos.Vectors, s.Vector)
		} else {
			neg.IDs = append(neg.IDs, s.ID)
			neg.Vectors = append(neg.Vectors, s.Vector)
		}
	}
	if pos.Len() == 0 {
		return pos, neg, fmt.Errorf("%w: no positive samples", ErrNoData)
	}
	return pos, neg, nil
}

// Labels returns the distinct labels of samples in first-seen order.
func Labels(samples []Sample) []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, s := range samples {
		if _, ok := seen[s.Label]; !ok {
			seen[s.Label] = struct{}{}
			labels = append(labels, s.Label)
		}
	}
	return labels
}
