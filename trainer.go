package kozinec

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/hupe1980/kozinec/dataset"
	"github.com/hupe1980/kozinec/internal/hull"
	"github.com/hupe1980/kozinec/model"
)

// Trainer runs the Schlesinger–Kozinec algorithm. A Trainer holds only
// configuration and may run any number of trainings concurrently.
type Trainer struct {
	opts options
}

// New validates the options and creates a Trainer.
func New(optFns ...Option) (*Trainer, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.parallelism == 0 {
		opts.parallelism = runtime.GOMAXPROCS(0)
	}
	return &Trainer{opts: opts}, nil
}

// EstimateBytes returns the cache memory a training over the given class
// sizes holds, excluding the samples.
func EstimateBytes(numPos, numNeg int) int64 {
	return hull.EstimateBytes(numPos, numNeg)
}

// Train finds the closest points of the positive and negative convex hulls.
//
// Each iteration evaluates the stop condition and, unless it holds, applies
// one update. The run ends Converged when both margin deltas are below
// epsilon, or BudgetExhausted after max updates. Errors are returned for
// empty classes, mismatched dimensions, coinciding hulls and context
// cancellation; budget exhaustion is not an error.
func (t *Trainer) Train(ctx context.Context, pos, neg dataset.SampleSet) (*Model, error) {
	start := time.Now()
	o := &t.opts
	log := o.logger
	if o.label != "" {
		log = log.WithClass(o.label)
	}

	m, err := t.train(ctx, log, pos, neg)

	iterations := 0
	status := StatusRunning
	margin := 0.0
	if m != nil {
		iterations, status, margin = m.Iterations, m.Status, m.Stats.Margin()
	}
	elapsed := time.Since(start)
	log.LogTrainDone(ctx, status, iterations, margin, elapsed, err)
	o.metricsCollector.RecordTraining(status, iterations, elapsed, err)

	return m, err
}

func (t *Trainer) train(ctx context.Context, log *Logger, pos, neg dataset.SampleSet) (*Model, error) {
	o := &t.opts

	pos = withIDs(pos)
	neg = withIDs(neg)
	for _, set := range []dataset.SampleSet{pos, neg} {
		if err := set.Validate(); err != nil {
			return nil, translateError(err)
		}
	}

	log.LogTrainStart(ctx, pos.Len(), neg.Len(), pos.Dim(), o.kernel.Name(), o.epsilon, o.maxUpdates)

	state, err := hull.New(pos.Vectors, neg.Vectors, hull.Config{
		Kernel:      o.kernel.Func(),
		Parallelism: o.parallelism,
	})
	if err != nil {
		return nil, translateError(err)
	}
	if st := state.Stats(); !(st.Distance2() > 0) {
		return nil, undefinedMargin(st)
	}

	status := StatusRunning
	if o.maxUpdates == 0 {
		status = StatusBudgetExhausted
	}
	for status == StatusRunning {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		updates := state.Updates()
		selStart := time.Now()
		cpos, cneg, err := state.Select()
		if err != nil {
			return nil, err
		}
		o.metricsCollector.RecordSelection(time.Since(selStart))

		verdict := hull.Evaluate(state.Stats(), cpos, cneg, o.epsilon)
		if o.observer != nil && o.progressInterval > 0 && updates%o.progressInterval == 0 {
			o.observer.Observe(ctx, Progress{
				Iteration: updates,
				Margin:    verdict.Margin,
				DeltaPos:  verdict.DeltaPos,
				DeltaNeg:  verdict.DeltaNeg,
				Stats:     statistics(state.Stats()),
			})
		}
		if verdict.Stop {
			status = StatusConverged
			break
		}
		// The state after the last permitted update has been evaluated.
		if updates >= o.maxUpdates {
			status = StatusBudgetExhausted
			break
		}

		updStart := time.Now()
		step := state.Update(verdict.Pick(cpos, cneg))
		if o.refreshInterval > 0 && state.Updates()%o.refreshInterval == 0 {
			state.Refresh()
		}
		o.metricsCollector.RecordUpdate(step.Lambda == 0, time.Since(updStart))
	}

	return &Model{
		AlphaPos:   state.Alpha(hull.Positive),
		IDsPos:     append([]string(nil), pos.IDs...),
		AlphaNeg:   state.Alpha(hull.Negative),
		IDsNeg:     append([]string(nil), neg.IDs...),
		Status:     status,
		Label:      o.label,
		Kernel:     o.kernel,
		Epsilon:    o.epsilon,
		Iterations: state.Updates(),
		Stats:      statistics(state.Stats()),
	}, nil
}

func undefinedMargin(st hull.Stats) error {
	return fmt.Errorf("%w: A+B-2C = %g", ErrUndefinedMargin, st.Distance2())
}

func statistics(st hull.Stats) model.KernelStatistics {
	return model.KernelStatistics{A: st.A, B: st.B, C: st.C, D: st.D, E: st.E}
}

// withIDs fills in positional IDs for sets built without identifiers.
func withIDs(s dataset.SampleSet) dataset.SampleSet {
	if s.IDs != nil || len(s.Vectors) == 0 {
		return s
	}
	ids := make([]string, len(s.Vectors))
	for i := range ids {
		ids[i] = strconv.Itoa(i)
	}
	s.IDs = ids
	return s
}
