package kozinec

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/kozinec/dataset"
	"github.com/hupe1980/kozinec/kernel"
	"github.com/hupe1980/kozinec/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diagonalSets() (pos, neg dataset.SampleSet) {
	pos = dataset.SampleSet{
		IDs:     []string{"p0", "p1"},
		Vectors: [][]float64{{2, 2}, {3, 3}},
	}
	neg = dataset.SampleSet{
		IDs:     []string{"n0", "n1"},
		Vectors: [][]float64{{-2, -2}, {-3, -3}},
	}
	return pos, neg
}

func xorSets() (pos, neg dataset.SampleSet) {
	pos = dataset.SampleSet{Vectors: [][]float64{{1, 1}, {-1, -1}}}
	neg = dataset.SampleSet{Vectors: [][]float64{{1, -1}, {-1, 1}}}
	return pos, neg
}

func newTrainer(t *testing.T, opts ...Option) *Trainer {
	t.Helper()
	tr, err := New(opts...)
	require.NoError(t, err)
	return tr
}

func distance2(m *Model) float64 {
	return m.Stats.A + m.Stats.B - 2*m.Stats.C
}

func TestNewValidatesOptions(t *testing.T) {
	tests := []struct {
		name  string
		opt   Option
		field string
	}{
		{"ZeroEpsilon", WithEpsilon(0), "epsilon"},
		{"NegativeEpsilon", WithEpsilon(-1), "epsilon"},
		{"NaNEpsilon", WithEpsilon(math.NaN()), "epsilon"},
		{"InfEpsilon", WithEpsilon(math.Inf(1)), "epsilon"},
		{"NegativeBudget", WithMaxUpdates(-1), "max_updates"},
		{"ZeroDegree", WithDegree(0), "kernel"},
		{"NaNBias", WithBias(math.NaN()), "kernel"},
		{"NegativeParallelism", WithParallelism(-2), "parallelism"},
		{"NegativeProgressInterval", WithProgressInterval(-1), "progress_interval"},
		{"NegativeRefreshInterval", WithRefreshInterval(-1), "refresh_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			var ic *ErrInvalidConfig
			require.ErrorAs(t, err, &ic)
			assert.Equal(t, tt.field, ic.Field)
		})
	}

	t.Run("Defaults", func(t *testing.T) {
		tr := newTrainer(t)
		assert.Equal(t, DefaultEpsilon, tr.opts.epsilon)
		assert.Equal(t, DefaultMaxUpdates, tr.opts.maxUpdates)
		assert.Equal(t, kernel.Default(), tr.opts.kernel)
		assert.Positive(t, tr.opts.parallelism)
	})
}

func TestTrainLinearScenario(t *testing.T) {
	pos, neg := diagonalSets()
	tr := newTrainer(t, WithKernel(kernel.Linear()), WithEpsilon(0.01), WithMaxUpdates(100))

	m, err := tr.Train(context.Background(), pos, neg)
	require.NoError(t, err)

	assert.Equal(t, StatusConverged, m.Status)
	assert.InDelta(t, 32, distance2(m), 1e-9)
	assert.InDelta(t, math.Sqrt(32), m.Stats.Margin(), 1e-9)
	assert.LessOrEqual(t, m.Iterations, 100)
	assert.Equal(t, []string{"p0", "p1"}, m.IDsPos)
	assert.Equal(t, []string{"n0", "n1"}, m.IDsNeg)
	assert.Equal(t, kernel.Linear(), m.Kernel)
	assert.Equal(t, 0.01, m.Epsilon)
	require.NoError(t, m.Validate())
}

func TestTrainXORWithPolynomialKernel(t *testing.T) {
	pos, neg := xorSets()
	mc := &BasicMetricsCollector{}
	tr := newTrainer(t, WithDegree(2), WithBias(1), WithMetricsCollector(mc))

	m, err := tr.Train(context.Background(), pos, neg)
	require.NoError(t, err)

	assert.Equal(t, StatusConverged, m.Status)
	assert.Equal(t, 2, m.Iterations)
	assert.InDelta(t, 8, distance2(m), 1e-9)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, m.AlphaPos, 1e-12)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, m.AlphaNeg, 1e-12)
	assert.Equal(t, []string{"0", "1"}, m.IDsPos)

	stats := mc.GetStats()
	assert.Equal(t, int64(3), stats.SelectionCount)
	assert.Equal(t, int64(2), stats.UpdateCount)
	assert.Equal(t, int64(1), stats.TrainingCount)
	assert.Equal(t, int64(1), stats.Converged)
	assert.Zero(t, stats.TrainingErrors)
}

func TestTrainZeroBudget(t *testing.T) {
	pos, neg := diagonalSets()
	mc := &BasicMetricsCollector{}
	tr := newTrainer(t, WithKernel(kernel.Linear()), WithMaxUpdates(0), WithMetricsCollector(mc))

	m, err := tr.Train(context.Background(), pos, neg)
	require.NoError(t, err)

	assert.Equal(t, StatusBudgetExhausted, m.Status)
	assert.Zero(t, m.Iterations)
	assert.Equal(t, []float64{1, 0}, m.AlphaPos)
	assert.Equal(t, []float64{1, 0}, m.AlphaNeg)
	assert.Zero(t, mc.GetStats().UpdateCount)
	assert.Equal(t, int64(1), mc.GetStats().BudgetExhausted)
}

func TestTrainRespectsBudget(t *testing.T) {
	rng := testutil.NewRNG(7)
	p, n := rng.SeparableClasses(60, 60, 3, 1)
	pos := dataset.SampleSet{Vectors: p}
	neg := dataset.SampleSet{Vectors: n}

	for _, budget := range []int{1, 5, 25} {
		tr := newTrainer(t, WithKernel(kernel.Linear()), WithEpsilon(1e-12), WithMaxUpdates(budget))
		m, err := tr.Train(context.Background(), pos, neg)
		require.NoError(t, err)
		assert.True(t, m.Status.Terminal())
		assert.LessOrEqual(t, m.Iterations, budget)
		if m.Status == StatusBudgetExhausted {
			assert.Equal(t, budget, m.Iterations)
		}
		require.NoError(t, m.Validate())
	}
}

func TestTrainFinalUpdateConverges(t *testing.T) {
	pos := dataset.SampleSet{Vectors: [][]float64{{0, 2}, {2, 0}}}
	neg := dataset.SampleSet{Vectors: [][]float64{{-5, -5}}}

	for _, budget := range []int{1, 2} {
		mc := &BasicMetricsCollector{}
		tr := newTrainer(t, WithKernel(kernel.Linear()), WithMaxUpdates(budget), WithMetricsCollector(mc))

		m, err := tr.Train(context.Background(), pos, neg)
		require.NoError(t, err)

		assert.Equal(t, StatusConverged, m.Status, "budget %d", budget)
		assert.Equal(t, 1, m.Iterations)
		assert.InDeltaSlice(t, []float64{0.5, 0.5}, m.AlphaPos, 1e-12)
		assert.Equal(t, []float64{1}, m.AlphaNeg)
		assert.InDelta(t, 72, distance2(m), 1e-9)

		stats := mc.GetStats()
		assert.Equal(t, int64(2), stats.SelectionCount)
		assert.Equal(t, int64(1), stats.UpdateCount)
		assert.Zero(t, stats.BudgetExhausted)
	}
}

func TestTrainErrors(t *testing.T) {
	ctx := context.Background()
	tr := newTrainer(t, WithKernel(kernel.Linear()))

	t.Run("IdenticalClasses", func(t *testing.T) {
		set := dataset.SampleSet{Vectors: [][]float64{{1, 1}, {2, 2}}}
		_, err := tr.Train(ctx, set, set)
		assert.ErrorIs(t, err, ErrUndefinedMargin)
	})

	t.Run("EmptyNegative", func(t *testing.T) {
		pos, _ := diagonalSets()
		_, err := tr.Train(ctx, pos, dataset.SampleSet{})
		assert.ErrorIs(t, err, ErrEmptyClass)
	})

	t.Run("DimensionMismatchAcrossClasses", func(t *testing.T) {
		pos, _ := diagonalSets()
		neg := dataset.SampleSet{Vectors: [][]float64{{1, 2, 3}}}
		_, err := tr.Train(ctx, pos, neg)
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 2, dm.Expected)
		assert.Equal(t, 3, dm.Actual)
	})

	t.Run("DimensionMismatchWithinClass", func(t *testing.T) {
		_, neg := diagonalSets()
		pos := dataset.SampleSet{Vectors: [][]float64{{1, 2}, {1}}}
		_, err := tr.Train(ctx, pos, neg)
		var dm *ErrDimensionMismatch
		assert.ErrorAs(t, err, &dm)
	})

	t.Run("Canceled", func(t *testing.T) {
		pos, neg := diagonalSets()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := tr.Train(cctx, pos, neg)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("ErrorsAreCounted", func(t *testing.T) {
		mc := &BasicMetricsCollector{}
		tr := newTrainer(t, WithMetricsCollector(mc))
		set := dataset.SampleSet{Vectors: [][]float64{{1, 1}}}
		_, err := tr.Train(ctx, set, set)
		require.Error(t, err)
		assert.Equal(t, int64(1), mc.GetStats().TrainingErrors)
	})
}

func TestTrainObserver(t *testing.T) {
	rng := testutil.NewRNG(3)
	p, n := rng.SeparableClasses(30, 30, 2, 1.5)
	pos := dataset.SampleSet{Vectors: p}
	neg := dataset.SampleSet{Vectors: n}

	var reports []Progress
	obs := ObserverFunc(func(_ context.Context, p Progress) {
		reports = append(reports, p)
	})

	tr := newTrainer(t,
		WithKernel(kernel.Linear()),
		WithEpsilon(1e-3),
		WithMaxUpdates(40),
		WithObserver(obs),
		WithProgressInterval(1),
	)
	m, err := tr.Train(context.Background(), pos, neg)
	require.NoError(t, err)

	require.Len(t, reports, m.Iterations+1)
	for i, r := range reports {
		assert.Equal(t, i, r.Iteration)
		assert.GreaterOrEqual(t, r.Margin, 0.0)
	}
	for i := 1; i < len(reports); i++ {
		assert.LessOrEqual(t, reports[i].Margin, reports[i-1].Margin+1e-9)
	}

	t.Run("Interval", func(t *testing.T) {
		var calls int
		tr := newTrainer(t,
			WithKernel(kernel.Linear()),
			WithEpsilon(1e-12),
			WithMaxUpdates(10),
			WithObserver(ObserverFunc(func(_ context.Context, p Progress) {
				assert.Zero(t, p.Iteration%4)
				calls++
			})),
			WithProgressInterval(4),
		)
		_, err := tr.Train(context.Background(), pos, neg)
		require.NoError(t, err)
		assert.Positive(t, calls)
	})
}

func TestTrainParallelMatchesSequential(t *testing.T) {
	rng := testutil.NewRNG(11)
	p, n := rng.SeparableClasses(700, 650, 4, 1)
	pos := dataset.SampleSet{Vectors: p}
	neg := dataset.SampleSet{Vectors: n}

	train := func(parallelism int) *Model {
		tr := newTrainer(t, WithDegree(2), WithEpsilon(1e-2), WithMaxUpdates(50), WithParallelism(parallelism))
		m, err := tr.Train(context.Background(), pos, neg)
		require.NoError(t, err)
		return m
	}

	seq := train(1)
	par := train(4)
	assert.Equal(t, seq.Iterations, par.Iterations)
	assert.Equal(t, seq.Status, par.Status)
	assert.InDeltaSlice(t, seq.AlphaPos, par.AlphaPos, 1e-9)
	assert.InDeltaSlice(t, seq.AlphaNeg, par.AlphaNeg, 1e-9)
}

func directDistance2(t *testing.T, k kernel.Polynomial, m *Model, pos, neg dataset.SampleSet) float64 {
	t.Helper()
	var a, b, c float64
	for i, x := range pos.Vectors {
		v, err := kernel.Combination(k, m.AlphaPos, pos.Vectors, x)
		require.NoError(t, err)
		a += m.AlphaPos[i] * v
		w, err := kernel.Combination(k, m.AlphaNeg, neg.Vectors, x)
		require.NoError(t, err)
		c += m.AlphaPos[i] * w
	}
	for j, x := range neg.Vectors {
		v, err := kernel.Combination(k, m.AlphaNeg, neg.Vectors, x)
		require.NoError(t, err)
		b += m.AlphaNeg[j] * v
	}
	return a + b - 2*c
}

func TestTrainCachedStatsMatchDirect(t *testing.T) {
	rng := testutil.NewRNG(5)
	p, n := rng.SeparableClasses(40, 40, 3, 1)
	pos := dataset.SampleSet{Vectors: p}
	neg := dataset.SampleSet{Vectors: n}
	k := kernel.Polynomial{Degree: 2, Bias: 1}

	for _, refresh := range []int{0, 10} {
		tr := newTrainer(t, WithKernel(k), WithEpsilon(1e-6), WithMaxUpdates(200), WithRefreshInterval(refresh))
		m, err := tr.Train(context.Background(), pos, neg)
		require.NoError(t, err)

		want := directDistance2(t, k, m, pos, neg)
		assert.InDelta(t, want, distance2(m), 1e-6*math.Max(1, want))
	}
}

func TestTrainLabelAndLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	pos, neg := diagonalSets()
	tr := newTrainer(t, WithKernel(kernel.Linear()), WithLabel("a"), WithLogger(logger))
	m, err := tr.Train(context.Background(), pos, neg)
	require.NoError(t, err)

	assert.Equal(t, "a", m.Label)
	out := buf.String()
	assert.Contains(t, out, "training started")
	assert.Contains(t, out, "class=a")
	assert.Contains(t, out, "status=converged")
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, nil))

	t.Run("EveryReport", func(t *testing.T) {
		buf.Reset()
		obs := NewLogObserver(logger, 0)
		for i := range 3 {
			obs.Observe(context.Background(), Progress{Iteration: i})
		}
		assert.Equal(t, 3, strings.Count(buf.String(), "training step"))
	})

	t.Run("Throttled", func(t *testing.T) {
		buf.Reset()
		obs := NewLogObserver(logger, time.Hour)
		for i := range 5 {
			obs.Observe(context.Background(), Progress{Iteration: i})
		}
		assert.Equal(t, 1, strings.Count(buf.String(), "training step"))
	})

	t.Run("NilLogger", func(t *testing.T) {
		obs := NewLogObserver(nil, 0)
		assert.NotPanics(t, func() {
			obs.Observe(context.Background(), Progress{})
		})
	})
}
