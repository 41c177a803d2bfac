package dynamo

import (
	"context"
	"math"
)

type Simulator struct {
	body      Body
	metrics   []Metric
	observers []Observer
}

func New(body Body) *Simulator {
	return &Simulator{
		body:      body,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Body() Body { return s.body }

// Step advances the body by exactly one frame.
func (s *Simulator) Step(cfg Config) {
	s.body.Integrate(cfg.Dt, cfg.Gravity)
	s.body.SolveConstraints(cfg.Dt, cfg.Iterations)
	s.body.SolveFloorCollision(cfg.FloorY)
}

// Run steps the body cfg.Steps times. The context is only consulted between
// steps, so a started step always completes.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Times:      make([]float64, 0, cfg.Steps+1),
		MinHeights: make([]float64, 0, cfg.Steps+1),
		Metrics:    make(map[string]float64),
		Errors:     make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	t := 0.0
	result.Times = append(result.Times, t)
	result.MinHeights = append(result.MinHeights, LowestY(s.body.Particles()))

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			s.collect(result)
			return result, ctx.Err()
		default:
		}

		s.Step(cfg)
		t += cfg.Dt

		if cfg.ValidateState && !s.body.Particles().Valid() {
			err := &SimulationError{Step: i, Time: t, Wrapped: ErrUnstable}
			result.Errors = append(result.Errors, err)
			s.collect(result)
			return result, err
		}

		result.StepsTaken++
		result.Times = append(result.Times, t)
		result.MinHeights = append(result.MinHeights, LowestY(s.body.Particles()))

		for _, m := range s.metrics {
			m.Observe(s.body, i, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(s.body, i, t)
		}
	}

	s.collect(result)
	return result, nil
}

func (s *Simulator) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

// LowestY returns the minimum current y over all particles, or 0 for an
// empty particle set.
func LowestY(p *Particles) float64 {
	if p == nil || len(p.Positions) == 0 {
		return 0
	}
	lowest := math.Inf(1)
	for _, v := range p.Positions {
		if v.Y() < lowest {
			lowest = v.Y()
		}
	}
	return lowest
}
