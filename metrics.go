package kozinec

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/kozinec/model"
)

// MetricsCollector receives training telemetry.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordSelection is called after each candidate scan.
	RecordSelection(duration time.Duration)

	// RecordUpdate is called after each update step. zeroStep is true when
	// the clipped step size was 0 and the hull did not move.
	RecordUpdate(zeroStep bool, duration time.Duration)

	// RecordTraining is called once per Train call.
	RecordTraining(status model.Status, iterations int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSelection(time.Duration)                         {}
func (NoopMetricsCollector) RecordUpdate(bool, time.Duration)                      {}
func (NoopMetricsCollector) RecordTraining(model.Status, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	SelectionCount      atomic.Int64
	SelectionTotalNanos atomic.Int64
	UpdateCount         atomic.Int64
	ZeroSteps           atomic.Int64
	UpdateTotalNanos    atomic.Int64
	TrainingCount       atomic.Int64
	TrainingErrors      atomic.Int64
	Converged           atomic.Int64
	BudgetExhausted     atomic.Int64
	TrainingTotalNanos  atomic.Int64
}

// RecordSelection implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSelection(duration time.Duration) {
	b.SelectionCount.Add(1)
	b.SelectionTotalNanos.Add(duration.Nanoseconds())
}

// RecordUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdate(zeroStep bool, duration time.Duration) {
	b.UpdateCount.Add(1)
	b.UpdateTotalNanos.Add(duration.Nanoseconds())
	if zeroStep {
		b.ZeroSteps.Add(1)
	}
}

// RecordTraining implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTraining(status model.Status, _ int, duration time.Duration, err error) {
	b.TrainingCount.Add(1)
	b.TrainingTotalNanos.Add(duration.Nanoseconds())
	switch {
	case err != nil:
		b.TrainingErrors.Add(1)
	case status == model.StatusConverged:
		b.Converged.Add(1)
	case status == model.StatusBudgetExhausted:
		b.BudgetExhausted.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SelectionCount:    b.SelectionCount.Load(),
		SelectionAvgNanos: avg(b.SelectionTotalNanos.Load(), b.SelectionCount.Load()),
		UpdateCount:       b.UpdateCount.Load(),
		ZeroSteps:         b.ZeroSteps.Load(),
		UpdateAvgNanos:    avg(b.UpdateTotalNanos.Load(), b.UpdateCount.Load()),
		TrainingCount:     b.TrainingCount.Load(),
		TrainingErrors:    b.TrainingErrors.Load(),
		Converged:         b.Converged.Load(),
		BudgetExhausted:   b.BudgetExhausted.Load(),
		TrainingAvgNanos:  avg(b.TrainingTotalNanos.Load(), b.TrainingCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SelectionCount    int64
	SelectionAvgNanos int64
	UpdateCount       int64
	ZeroSteps         int64
	UpdateAvgNanos    int64
	TrainingCount     int64
	TrainingErrors    int64
	Converged         int64
	BudgetExhausted   int64
	TrainingAvgNanos  int64
}
