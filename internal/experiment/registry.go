package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/softsim/internal/dynamo"
	"github.com/san-kum/softsim/internal/integrators"
	"github.com/san-kum/softsim/internal/metrics"
)

type Registry struct {
	integrators map[string]func() dynamo.Integrator
	metrics     map[string]func(dt float64) dynamo.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
		metrics:     make(map[string]func(dt float64) dynamo.Metric),
	}

	r.integrators["verlet"] = func() dynamo.Integrator { return integrators.NewVerlet() }

	r.metrics["min_height"] = func(float64) dynamo.Metric { return metrics.NewMinHeight() }
	r.metrics["max_stretch"] = func(float64) dynamo.Metric { return metrics.NewMaxStretch() }
	r.metrics["kinetic_energy"] = func(dt float64) dynamo.Metric { return metrics.NewKineticEnergy(dt) }
	r.metrics["stability"] = func(float64) dynamo.Metric { return metrics.NewStability(metrics.DefaultStretchThreshold) }
	r.metrics["lambda_magnitude"] = func(float64) dynamo.Metric { return metrics.NewLambdaMagnitude() }

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetMetric(name string, dt float64) (dynamo.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(dt), nil
}

// Metrics builds the named metrics, or every registered one when names is
// empty.
func (r *Registry) Metrics(names []string, dt float64) ([]dynamo.Metric, error) {
	if len(names) == 0 {
		names = r.ListMetrics()
	}
	out := make([]dynamo.Metric, 0, len(names))
	for _, name := range names {
		m, err := r.GetMetric(name, dt)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
