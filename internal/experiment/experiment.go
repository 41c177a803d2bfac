// Package experiment turns a run configuration into a soft body, steps it
// headless and describes the result for storage.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/softsim/internal/config"
	"github.com/san-kum/softsim/internal/dynamo"
	"github.com/san-kum/softsim/internal/logging"
	"github.com/san-kum/softsim/internal/mesh"
	"github.com/san-kum/softsim/internal/physics"
	"github.com/san-kum/softsim/internal/scene"
	"github.com/san-kum/softsim/internal/storage"
)

type Experiment struct {
	cfg       *config.Config
	loader    mesh.Loader
	body      *physics.SoftBody
	simulator *dynamo.Simulator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg, loader: mesh.Default}
}

// WithLoader replaces the mesh loader used by Setup.
func (e *Experiment) WithLoader(l mesh.Loader) *Experiment {
	e.loader = l
	return e
}

func (e *Experiment) Setup(metrics []dynamo.Metric) error {
	body, err := BuildBody(e.cfg, e.loader)
	if err != nil {
		return err
	}
	e.body = body
	e.simulator = dynamo.New(body)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	logging.Info("run started", "name", e.cfg.Name, "source", e.cfg.Mesh.Source, "steps", e.cfg.Sim.Steps)
	start := time.Now()
	result, err := e.simulator.Run(ctx, e.cfg.SimConfig())
	if err != nil {
		logging.Warn("run stopped", "name", e.cfg.Name, "err", err)
		return result, err
	}
	logging.Info("run finished", "name", e.cfg.Name, "steps", result.StepsTaken, "elapsed", time.Since(start))
	return result, nil
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *dynamo.Simulator {
	return e.simulator
}

func (e *Experiment) Body() *physics.SoftBody { return e.body }

// Info describes the run for the store. Setup must have succeeded.
func (e *Experiment) Info() storage.RunInfo {
	info := storage.RunInfo{
		Name:         e.cfg.Name,
		Source:       e.cfg.Mesh.Source,
		Dt:           e.cfg.Sim.Dt,
		Steps:        e.cfg.Sim.Steps,
		Iterations:   e.cfg.Sim.Iterations,
		FloorY:       e.cfg.Sim.FloorY,
		Compliance:   e.cfg.Body.Compliance,
		LambdaPolicy: e.cfg.Body.LambdaPolicy,
	}
	if e.body != nil {
		info.Particles = e.body.NumParticles()
		info.Constraints = len(e.body.Constraints())
		info.Triangles = len(e.body.Indices()) / 3
	}
	return info
}

// Save stores the run and its final positions. A run that ended in
// ErrUnstable is still saved.
func (e *Experiment) Save(st *storage.Store, result *dynamo.Result) (string, error) {
	if e.body == nil {
		return "", fmt.Errorf("experiment not setup")
	}
	return st.Save(e.Info(), result, e.body.Snapshot(nil))
}

// BuildBody validates cfg and constructs its soft body, applying pin modes.
func BuildBody(cfg *config.Config, loader mesh.Loader) (*physics.SoftBody, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := cfg.BodyOptions()
	if err != nil {
		return nil, err
	}
	if cfg.Sim.Integrator != "" {
		integ, err := NewRegistry().GetIntegrator(cfg.Sim.Integrator)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
		}
		opts.Integrator = integ
	}
	body, err := physics.LoadSoftBody(loader, cfg.Mesh.Source, opts)
	if err != nil {
		return nil, err
	}
	switch cfg.Body.Pin {
	case config.PinTop:
		n := body.PinTop(config.DefaultPinEps)
		logging.Debug("pinned top particles", "count", n)
	case config.PinEdge:
		n := body.PinEdge(config.DefaultPinEps)
		logging.Debug("pinned edge particles", "count", n)
	}
	return body, nil
}

// BuildScene wraps the configured body in a scene named after the config.
func BuildScene(cfg *config.Config, loader mesh.Loader) (*scene.Scene, error) {
	body, err := BuildBody(cfg, loader)
	if err != nil {
		return nil, err
	}
	s := scene.New(cfg.SimConfig())
	s.Add(cfg.Name, scene.SoftBodyComponent(body))
	return s, nil
}

// IsUnstable reports whether err is a divergence worth keeping the run for.
func IsUnstable(err error) bool {
	return errors.Is(err, dynamo.ErrUnstable)
}
