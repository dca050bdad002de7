package kozinec

import (
	"context"
	"time"

	"github.com/hupe1980/kozinec/model"
	"golang.org/x/time/rate"
)

// Progress is a snapshot of a running training.
type Progress struct {
	// Iteration is the number of updates applied so far.
	Iteration int
	// Margin is the current hull distance sqrt(A + B - 2C).
	Margin   float64
	DeltaPos float64
	DeltaNeg float64
	Stats    model.KernelStatistics
}

// Observer receives progress reports.
type Observer interface {
	Observe(ctx context.Context, p Progress)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, p Progress)

// Observe implements Observer.
func (f ObserverFunc) Observe(ctx context.Context, p Progress) { f(ctx, p) }

// LogObserver logs progress reports, at most one per interval.
type LogObserver struct {
	logger    *Logger
	sometimes *rate.Sometimes
}

// NewLogObserver logs through logger. minInterval <= 0 logs every report.
func NewLogObserver(logger *Logger, minInterval time.Duration) *LogObserver {
	if logger == nil {
		logger = NoopLogger()
	}
	s := &rate.Sometimes{Interval: minInterval}
	if minInterval <= 0 {
		s = &rate.Sometimes{Every: 1}
	}
	return &LogObserver{logger: logger, sometimes: s}
}

// Observe implements Observer.
func (o *LogObserver) Observe(ctx context.Context, p Progress) {
	o.sometimes.Do(func() {
		o.logger.LogProgress(ctx, p)
	})
}
