package kozinec

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/kozinec/dataset"
	"github.com/hupe1980/kozinec/resource"
	"golang.org/x/sync/errgroup"
)

// OneVsRest trains one model per label, each separating that label from all
// other samples. Runs proceed concurrently as far as ctrl allows; a nil ctrl
// runs every label at once. labels defaults to every label in samples.
//
// The first failing run cancels the others and its error is returned.
func (t *Trainer) OneVsRest(ctx context.Context, samples []dataset.Sample, labels []string, ctrl *resource.Controller) (map[string]*Model, error) {
	if len(labels) == 0 {
		labels = dataset.Labels(samples)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no labels", ErrNoData)
	}

	var (
		mu     sync.Mutex
		models = make(map[string]*Model, len(labels))
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, label := range labels {
		g.Go(func() error {
			pos, neg, err := dataset.Partition(samples, dataset.LabelIs(label))
			if err != nil {
				return fmt.Errorf("label %s: %w", label, err)
			}

			release, err := ctrl.AcquireRun(ctx, EstimateBytes(pos.Len(), neg.Len()))
			if err != nil {
				return fmt.Errorf("label %s: %w", label, err)
			}
			defer release()

			run := &Trainer{opts: t.opts}
			run.opts.label = label
			m, err := run.Train(ctx, pos, neg)
			if err != nil {
				return fmt.Errorf("label %s: %w", label, err)
			}

			mu.Lock()
			models[label] = m
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return models, nil
}
