// Package optim searches body and step parameters for the run that minimises
// a metric.
package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/softsim/internal/config"
	"github.com/san-kum/softsim/internal/dynamo"
	"github.com/san-kum/softsim/internal/experiment"
	"github.com/san-kum/softsim/internal/logging"
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d params but %d ranges", dynamo.ErrInvalidConfig, len(params), len(ranges))
	}
	probe := config.DefaultConfig()
	for i, name := range params {
		if err := probe.SetParam(name, 0); err != nil {
			return nil, err
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("%w: no values for %s", dynamo.ErrInvalidConfig, name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs base at every grid point and returns the parameters with the
// lowest metric. Points that fail validation or diverge are skipped; if
// every point is skipped the best value is +Inf and the params are nil.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (map[string]float64, float64, error) {
	registry := experiment.NewRegistry()
	if _, err := registry.GetMetric(metricName, base.Sim.Dt); err != nil {
		return nil, 0, err
	}

	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) error {
		cfg := base.Clone()
		for k, v := range params {
			if err := cfg.SetParam(k, v); err != nil {
				return err
			}
		}

		m, err := registry.GetMetric(metricName, cfg.Sim.Dt)
		if err != nil {
			return err
		}
		exp := experiment.New(cfg)
		if err := exp.Setup([]dynamo.Metric{m}); err != nil {
			logging.Debug("grid point rejected", "params", params, "err", err)
			return nil
		}

		result, err := exp.Run(ctx)
		if experiment.IsUnstable(err) {
			logging.Debug("grid point diverged", "params", params)
			return nil
		}
		if err != nil {
			return err
		}

		val := result.Metrics[metricName]
		if val < best {
			best = val
			bestParams = make(map[string]float64, len(params))
			for k, v := range params {
				bestParams[k] = v
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	visit func(map[string]float64) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return visit(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, visit); err != nil {
			return err
		}
	}
	return nil
}
