package kozinec

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/kozinec/model"
)

// Logger wraps slog.Logger with training-specific helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))}
}

// WithClass tags every record with the positive class label.
func (l *Logger) WithClass(label string) *Logger {
	return &Logger{Logger: l.Logger.With("class", label)}
}

// LogTrainStart logs the shape of a training run.
func (l *Logger) LogTrainStart(ctx context.Context, numPos, numNeg, dim int, kernelName string, epsilon float64, maxUpdates int) {
	l.InfoContext(ctx, "training started",
		"positives", numPos,
		"negatives", numNeg,
		"dimension", dim,
		"kernel", kernelName,
		"epsilon", epsilon,
		"max_updates", maxUpdates,
	)
}

// LogProgress logs one progress report.
func (l *Logger) LogProgress(ctx context.Context, p Progress) {
	l.InfoContext(ctx, "training step",
		"iteration", p.Iteration,
		"margin", p.Margin,
		"delta_pos", p.DeltaPos,
		"delta_neg", p.DeltaNeg,
		"a", p.Stats.A,
		"b", p.Stats.B,
		"c", p.Stats.C,
	)
}

// LogTrainDone logs the outcome of a training run.
func (l *Logger) LogTrainDone(ctx context.Context, status model.Status, iterations int, margin float64, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "training failed",
			"iterations", iterations,
			"elapsed", elapsed,
			"error", err,
		)
		return
	}

	level := slog.LevelInfo
	if status == model.StatusBudgetExhausted {
		level = slog.LevelWarn
	}
	l.Log(ctx, level, "training finished",
		"status", status.String(),
		"iterations", iterations,
		"margin", margin,
		"elapsed", elapsed,
	)
}

// LogSave logs a model write.
func (l *Logger) LogSave(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "model save failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "model saved",
			"name", name,
		)
	}
}
