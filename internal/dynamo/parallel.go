package dynamo

import (
	"context"
	"errors"
	"sync"
)

// Ensemble runs independent simulations concurrently. Each run gets its own
// body from the factory, so no body is ever shared between goroutines.
type Ensemble struct {
	factory func(idx int) (Body, []Metric, error)
	numRuns int
}

func NewEnsemble(numRuns int, factory func(idx int) (Body, []Metric, error)) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns}
}

// Run returns every run's result alongside the joined errors. A run whose
// factory failed has a nil result; a run that diverged keeps its partial one.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body, metrics, err := e.factory(idx)
			if err != nil {
				errs[idx] = err
				return
			}

			s := New(body)
			for _, m := range metrics {
				s.AddMetric(m)
			}

			results[idx], errs[idx] = s.Run(ctx, cfg)
		}(i)
	}

	wg.Wait()

	return results, errors.Join(errs...)
}
