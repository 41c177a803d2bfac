package config

import (
	"sort"

	"github.com/san-kum/softsim/internal/dynamo"
)

var Presets = map[string]*Config{
	"cube_drop": {
		Name: "cube_drop",
		Mesh: MeshConfig{Source: "builtin:cube", Offset: [3]float64{0, 1, 0}},
		Body: BodyConfig{Compliance: 1e-6, InvMass: 1, LambdaPolicy: "persist"},
		Sim:  defaultSim(),
	},
	"soft_cube": {
		Name: "soft_cube",
		Mesh: MeshConfig{Source: "builtin:cube", Offset: [3]float64{0, 1, 0}},
		Body: BodyConfig{Compliance: 1e-3, InvMass: 1, LambdaPolicy: "persist"},
		Sim:  SimConfig{Integrator: DefaultIntegrator, Dt: 0.016, Steps: 240, Iterations: 10, Gravity: [3]float64{0, -9.81, 0}, ValidateState: true},
	},
	"cloth": {
		Name: "cloth",
		Mesh: MeshConfig{Source: "builtin:sheet:12", Offset: [3]float64{0, 2, 0}},
		Body: BodyConfig{Compliance: 1e-5, InvMass: 1, Pin: PinEdge, LambdaPolicy: "persist"},
		Sim:  SimConfig{Integrator: DefaultIntegrator, Dt: 0.016, Steps: 300, Iterations: 8, Gravity: [3]float64{0, -9.81, 0}, ValidateState: true},
	},
	"sphere_drop": {
		Name: "sphere_drop",
		Mesh: MeshConfig{Source: "sdf:sphere:0.5", Offset: [3]float64{0, 1.5, 0}},
		Body: BodyConfig{Compliance: 1e-5, InvMass: 1, LambdaPolicy: "persist", LaunchOffset: 0.001},
		Sim:  SimConfig{Integrator: DefaultIntegrator, Dt: 0.016, Steps: 180, Iterations: 6, Gravity: [3]float64{0, -9.81, 0}, ValidateState: true},
	},
	"reset_lambda": {
		Name: "reset_lambda",
		Mesh: MeshConfig{Source: "builtin:cube", Offset: [3]float64{0, 1, 0}},
		Body: BodyConfig{Compliance: 1e-6, InvMass: 1, LambdaPolicy: "reset"},
		Sim:  defaultSim(),
	},
}

func defaultSim() SimConfig {
	return SimConfig{
		Integrator:    DefaultIntegrator,
		Dt:            dynamo.DefaultDt,
		Steps:         dynamo.DefaultSteps,
		Iterations:    dynamo.DefaultIterations,
		Gravity:       [3]float64{0, dynamo.DefaultGravity, 0},
		ValidateState: true,
	}
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
