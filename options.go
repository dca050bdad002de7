package kozinec

import (
	"log/slog"
	"math"

	"github.com/hupe1980/kozinec/kernel"
)

const (
	// DefaultEpsilon is the default margin tolerance.
	DefaultEpsilon = 1e-3
	// DefaultMaxUpdates is the default update budget.
	DefaultMaxUpdates = 100000
	// DefaultProgressInterval is the number of iterations between progress
	// reports.
	DefaultProgressInterval = 1000
)

type options struct {
	epsilon          float64
	maxUpdates       int
	kernel           kernel.Polynomial
	parallelism      int
	observer         Observer
	progressInterval int
	refreshInterval  int
	label            string
	logger           *Logger
	metricsCollector MetricsCollector
}

func defaultOptions() options {
	return options{
		epsilon:          DefaultEpsilon,
		maxUpdates:       DefaultMaxUpdates,
		kernel:           kernel.Default(),
		progressInterval: DefaultProgressInterval,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
}

// Option configures a Trainer.
type Option func(*options)

// WithEpsilon sets the margin tolerance of the stop condition. Must be > 0.
func WithEpsilon(epsilon float64) Option {
	return func(o *options) { o.epsilon = epsilon }
}

// WithMaxUpdates sets the update budget. The state reached by the last
// permitted update is still evaluated, so a run whose final update reaches
// the optimum converges. 0 returns the initial hulls with
// StatusBudgetExhausted.
func WithMaxUpdates(n int) Option {
	return func(o *options) { o.maxUpdates = n }
}

// WithKernel replaces the kernel.
func WithKernel(k kernel.Polynomial) Option {
	return func(o *options) { o.kernel = k }
}

// WithDegree sets the polynomial kernel degree (default 4).
func WithDegree(degree int) Option {
	return func(o *options) { o.kernel.Degree = degree }
}

// WithBias sets the polynomial kernel bias (default 1).
func WithBias(bias float64) Option {
	return func(o *options) { o.kernel.Bias = bias }
}

// WithParallelism bounds the goroutines used by one candidate scan.
// 0 uses GOMAXPROCS; 1 scans sequentially.
func WithParallelism(n int) Option {
	return func(o *options) { o.parallelism = n }
}

// WithObserver receives a Progress report every progress interval.
// Observers cannot influence training.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithProgressInterval sets how many iterations pass between Progress
// reports (default 1000).
func WithProgressInterval(n int) Option {
	return func(o *options) { o.progressInterval = n }
}

// WithRefreshInterval recomputes all cached kernel sums from the support
// vectors every n updates, bounding floating-point drift on long runs.
// 0 disables refreshes.
func WithRefreshInterval(n int) Option {
	return func(o *options) { o.refreshInterval = n }
}

// WithLabel records the positive class label in trained models.
func WithLabel(label string) Option {
	return func(o *options) { o.label = label }
}

// WithLogger sets the logger. nil disables logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel installs a text logger on stderr at level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) { o.logger = NewTextLogger(level) }
}

// WithMetricsCollector sets the metrics sink. nil disables metrics.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

func (o *options) validate() error {
	if !(o.epsilon > 0) || math.IsInf(o.epsilon, 0) {
		return &ErrInvalidConfig{Field: "epsilon", Reason: "must be a positive finite number"}
	}
	if o.maxUpdates < 0 {
		return &ErrInvalidConfig{Field: "max_updates", Reason: "must be >= 0"}
	}
	if err := o.kernel.Validate(); err != nil {
		return &ErrInvalidConfig{Field: "kernel", Reason: err.Error(), cause: err}
	}
	if o.parallelism < 0 {
		return &ErrInvalidConfig{Field: "parallelism", Reason: "must be >= 0"}
	}
	if o.progressInterval < 0 {
		return &ErrInvalidConfig{Field: "progress_interval", Reason: "must be >= 0"}
	}
	if o.refreshInterval < 0 {
		return &ErrInvalidConfig{Field: "refresh_interval", Reason: "must be >= 0"}
	}
	return nil
}
