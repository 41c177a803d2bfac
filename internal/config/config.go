package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/softsim/internal/dynamo"
	"github.com/san-kum/softsim/internal/physics"
)

const (
	DefaultSource     = "builtin:cube"
	DefaultPinEps     = 1e-6
	PinNone           = ""
	PinTop            = "top"
	PinEdge           = "edge"
	DefaultLambdaTag  = "persist"
	DefaultIntegrator = "verlet"
)

type Config struct {
	Name string     `yaml:"name" toml:"name"`
	Mesh MeshConfig `yaml:"mesh" toml:"mesh"`
	Body BodyConfig `yaml:"body" toml:"body"`
	Sim  SimConfig  `yaml:"sim" toml:"sim"`
}

type MeshConfig struct {
	// Source is a builtin:, sdf: or OBJ path, see mesh.Open.
	Source string     `yaml:"source" toml:"source"`
	Offset [3]float64 `yaml:"offset" toml:"offset"`
}

type BodyConfig struct {
	Compliance   float64 `yaml:"compliance" toml:"compliance"`
	InvMass      float64 `yaml:"inv_mass" toml:"inv_mass"`
	Pin          string  `yaml:"pin" toml:"pin"`
	PinIndices   []int   `yaml:"pin_indices,omitempty" toml:"pin_indices,omitempty"`
	LambdaPolicy string  `yaml:"lambda_policy" toml:"lambda_policy"`
	LaunchOffset float64 `yaml:"launch_offset" toml:"launch_offset"`
}

type SimConfig struct {
	Integrator    string     `yaml:"integrator" toml:"integrator"`
	Dt            float64    `yaml:"dt" toml:"dt"`
	Steps         int        `yaml:"steps" toml:"steps"`
	Iterations    int        `yaml:"iterations" toml:"iterations"`
	Gravity       [3]float64 `yaml:"gravity" toml:"gravity"`
	FloorY        float64    `yaml:"floor_y" toml:"floor_y"`
	ValidateState bool       `yaml:"validate_state" toml:"validate_state"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "softbody",
		Mesh: MeshConfig{Source: DefaultSource},
		Body: BodyConfig{
			Compliance:   physics.DefaultCompliance,
			InvMass:      physics.DefaultInvMass,
			LambdaPolicy: DefaultLambdaTag,
		},
		Sim: SimConfig{
			Integrator:    DefaultIntegrator,
			Dt:            dynamo.DefaultDt,
			Steps:         dynamo.DefaultSteps,
			Iterations:    dynamo.DefaultIterations,
			Gravity:       [3]float64{0, dynamo.DefaultGravity, 0},
			ValidateState: true,
		},
	}
}

// Load reads a YAML or TOML file, chosen by extension, over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", dynamo.ErrInvalidConfig, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		data, err = toml.Marshal(cfg)
	case ".yaml", ".yml", "":
		data, err = yaml.Marshal(cfg)
	default:
		return fmt.Errorf("%w: unsupported config format %q", dynamo.ErrInvalidConfig, ext)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Mesh.Source == "" {
		return fmt.Errorf("%w: mesh source is empty", dynamo.ErrInvalidConfig)
	}
	if err := c.SimConfig().Validate(); err != nil {
		return err
	}
	switch c.Body.Pin {
	case PinNone, PinTop, PinEdge:
	default:
		return fmt.Errorf("%w: unknown pin mode %q", dynamo.ErrInvalidConfig, c.Body.Pin)
	}
	_, err := c.BodyOptions()
	return err
}

func (c *Config) SimConfig() dynamo.Config {
	return dynamo.Config{
		Dt:            c.Sim.Dt,
		Steps:         c.Sim.Steps,
		Iterations:    c.Sim.Iterations,
		Gravity:       mgl64.Vec3(c.Sim.Gravity),
		FloorY:        c.Sim.FloorY,
		ValidateState: c.Sim.ValidateState,
	}
}

// BodyOptions converts the body section. The "top" and "edge" pin modes are
// applied after the body exists, since they depend on the loaded rest
// positions.
func (c *Config) BodyOptions() (physics.Options, error) {
	policy, err := physics.ParseLambdaPolicy(c.Body.LambdaPolicy)
	if err != nil {
		return physics.Options{}, err
	}
	if c.Body.Compliance < 0 {
		return physics.Options{}, fmt.Errorf("%w: compliance must be non-negative, got %g", dynamo.ErrInvalidConfig, c.Body.Compliance)
	}
	if c.Body.InvMass < 0 {
		return physics.Options{}, fmt.Errorf("%w: inverse mass must be non-negative, got %g", dynamo.ErrInvalidConfig, c.Body.InvMass)
	}
	return physics.Options{
		Compliance:   c.Body.Compliance,
		InvMass:      c.Body.InvMass,
		Pinned:       append([]int(nil), c.Body.PinIndices...),
		LambdaPolicy: policy,
		Offset:       mgl64.Vec3(c.Mesh.Offset),
		LaunchOffset: c.Body.LaunchOffset,
	}, nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Body.PinIndices = append([]int(nil), c.Body.PinIndices...)
	return &out
}

// Tunable lists the parameter names SetParam accepts.
var Tunable = []string{"compliance", "inv_mass", "launch_offset", "dt", "steps", "iterations", "floor_y"}

// SetParam assigns a numeric parameter by name. Integer parameters are
// rounded.
func (c *Config) SetParam(name string, v float64) error {
	switch name {
	case "compliance":
		c.Body.Compliance = v
	case "inv_mass":
		c.Body.InvMass = v
	case "launch_offset":
		c.Body.LaunchOffset = v
	case "dt":
		c.Sim.Dt = v
	case "steps":
		c.Sim.Steps = int(math.Round(v))
	case "iterations":
		c.Sim.Iterations = int(math.Round(v))
	case "floor_y":
		c.Sim.FloorY = v
	default:
		return fmt.Errorf("%w: unknown parameter %q (tunable: %v)", dynamo.ErrInvalidConfig, name, Tunable)
	}
	return nil
}
