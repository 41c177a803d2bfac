// Package automation runs scripted batches of soft body simulations:
// scenario files, one-parameter sweeps and randomised drop trials.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/softsim/internal/config"
	"github.com/san-kum/softsim/internal/dynamo"
	"github.com/san-kum/softsim/internal/experiment"
	"github.com/san-kum/softsim/internal/logging"
	"github.com/san-kum/softsim/internal/mesh"
	"github.com/san-kum/softsim/internal/storage"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset or a config file (preset wins when both
// are set, defaults when neither) and applies Params on top.
type ScenarioStep struct {
	Name    string             `yaml:"name"`
	Preset  string             `yaml:"preset"`
	Config  string             `yaml:"config"`
	Params  map[string]float64 `yaml:"params"`
	Metrics []string           `yaml:"metrics"`
}

// StepResult is one scenario step's outcome. Err is set for unstable runs,
// which are still stored.
type StepResult struct {
	Name   string
	RunID  string
	Result *dynamo.Result
	Err    error
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: scenario %q has no steps", dynamo.ErrInvalidConfig, scenario.Name)
	}

	return &scenario, nil
}

// Resolve builds the step's config.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	switch {
	case s.Preset != "":
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", dynamo.ErrInvalidConfig, s.Preset)
		}
	case s.Config != "":
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if s.Name != "" {
		cfg.Name = s.Name
	}
	for k, v := range s.Params {
		if err := cfg.SetParam(k, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// RunScenario executes all steps in order, storing each run when st is not
// nil. It stops at the first step that cannot be built or is cancelled;
// unstable steps are recorded and the scenario continues.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))
	registry := experiment.NewRegistry()

	for i, step := range scenario.Steps {
		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logging.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "name", cfg.Name)

		metrics, err := registry.Metrics(step.Metrics, cfg.Sim.Dt)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(metrics); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, runErr := exp.Run(ctx)
		if runErr != nil && !experiment.IsUnstable(runErr) {
			return results, fmt.Errorf("step %d run: %w", i+1, runErr)
		}

		sr := StepResult{Name: cfg.Name, Result: result, Err: runErr}
		if st != nil {
			if sr.RunID, err = exp.Save(st, result); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// ParameterSweep runs Base once per value of Param between Min and Max.
// Log spaces the values geometrically, which suits compliance.
type ParameterSweep struct {
	Base    *config.Config
	Param   string
	Min     float64
	Max     float64
	Count   int
	Log     bool
	Metrics []string
}

// SweepResult holds one sweep point.
type SweepResult struct {
	Value      float64
	StepsTaken int
	Metrics    map[string]float64
	Stable     bool
}

// Values returns the sweep points.
func (s *ParameterSweep) Values() ([]float64, error) {
	if s.Count < 1 {
		return nil, fmt.Errorf("%w: sweep count must be positive, got %d", dynamo.ErrInvalidConfig, s.Count)
	}
	if s.Log && (s.Min <= 0 || s.Max <= 0) {
		return nil, fmt.Errorf("%w: log sweep needs positive bounds", dynamo.ErrInvalidConfig)
	}
	values := make([]float64, s.Count)
	for i := range values {
		f := 0.0
		if s.Count > 1 {
			f = float64(i) / float64(s.Count-1)
		}
		if s.Log {
			values[i] = s.Min * math.Pow(s.Max/s.Min, f)
		} else {
			values[i] = s.Min + f*(s.Max-s.Min)
		}
	}
	return values, nil
}

// RunSweep runs every sweep point concurrently. Each point owns its body
// and step settings.
func RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	values, err := sweep.Values()
	if err != nil {
		return nil, err
	}

	configs := make([]*config.Config, len(values))
	for i, v := range values {
		cfg := sweep.Base.Clone()
		if err := cfg.SetParam(sweep.Param, v); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}
		configs[i] = cfg
	}

	results, err := runAll(ctx, configs, sweep.Metrics)
	if err != nil {
		return nil, err
	}

	out := make([]SweepResult, len(values))
	for i, r := range results {
		out[i] = SweepResult{
			Value:      values[i],
			StepsTaken: r.StepsTaken,
			Metrics:    r.Metrics,
			Stable:     len(r.Errors) == 0,
		}
	}
	return out, nil
}

// runAll runs each config on its own goroutine, tolerating divergence.
func runAll(ctx context.Context, configs []*config.Config, metricNames []string) ([]*dynamo.Result, error) {
	type outcome struct {
		result *dynamo.Result
		err    error
	}
	registry := experiment.NewRegistry()
	done := make([]chan outcome, len(configs))

	for i, cfg := range configs {
		done[i] = make(chan outcome, 1)
		go func(cfg *config.Config, ch chan<- outcome) {
			metrics, err := registry.Metrics(metricNames, cfg.Sim.Dt)
			if err != nil {
				ch <- outcome{err: err}
				return
			}
			exp := experiment.New(cfg)
			if err := exp.Setup(metrics); err != nil {
				ch <- outcome{err: err}
				return
			}
			r, err := exp.Run(ctx)
			if experiment.IsUnstable(err) {
				err = nil
			}
			ch <- outcome{result: r, err: err}
		}(cfg, done[i])
	}

	results := make([]*dynamo.Result, len(configs))
	var errs []error
	for i, ch := range done {
		o := <-ch
		results[i] = o.result
		errs = append(errs, o.err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloConfig drops Base NumTrials times, each from a height jittered
// by up to Perturbation metres and launched upward at up to Perturbation m/s.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
}

// MonteCarloResult holds one trial.
type MonteCarloResult struct {
	TrialID    int
	DropOffset float64
	LowestY    float64
	MaxStretch float64
	Stable     bool
}

// RunMonteCarlo executes the trials on a dynamo.Ensemble. Every trial shares
// the base step settings.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("%w: trials must be positive, got %d", dynamo.ErrInvalidConfig, cfg.NumTrials)
	}
	if err := cfg.Base.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	// Draw every offset up front; the factory runs concurrently.
	trials := make([]*config.Config, cfg.NumTrials)
	drops := make([]float64, cfg.NumTrials)
	for i := range trials {
		t := cfg.Base.Clone()
		drops[i] = (rng.Float64()*2 - 1) * cfg.Perturbation
		t.Mesh.Offset[1] += drops[i]
		t.Body.LaunchOffset = rng.Float64() * cfg.Perturbation * t.Sim.Dt
		trials[i] = t
	}

	ens := dynamo.NewEnsemble(cfg.NumTrials, func(idx int) (dynamo.Body, []dynamo.Metric, error) {
		body, err := experiment.BuildBody(trials[idx], mesh.Default)
		if err != nil {
			return nil, nil, err
		}
		metrics, err := experiment.NewRegistry().Metrics([]string{"min_height", "max_stretch"}, trials[idx].Sim.Dt)
		return body, metrics, err
	})

	results, err := ens.Run(ctx, cfg.Base.SimConfig())
	if err != nil && !errors.Is(err, dynamo.ErrUnstable) {
		return nil, err
	}

	out := make([]MonteCarloResult, len(results))
	for i, r := range results {
		if r == nil {
			return nil, fmt.Errorf("trial %d: %w", i, err)
		}
		out[i] = MonteCarloResult{
			TrialID:    i,
			DropOffset: drops[i],
			LowestY:    r.Metrics["min_height"],
			MaxStretch: r.Metrics["max_stretch"],
			Stable:     len(r.Errors) == 0,
		}
	}
	return out, nil
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
