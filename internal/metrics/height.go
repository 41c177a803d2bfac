package metrics

import (
	"math"

	"github.com/san-kum/softsim/internal/dynamo"
)

// MinHeight is the lowest particle y over the run.
type MinHeight struct {
	name   string
	lowest float64
}

func NewMinHeight() *MinHeight {
	return &MinHeight{name: "min_height", lowest: math.Inf(1)}
}

func (m *MinHeight) Name() string { return m.name }

func (m *MinHeight) Observe(b dynamo.Body, step int, t float64) {
	if len(b.Particles().Positions) == 0 {
		return
	}
	m.lowest = math.Min(m.lowest, dynamo.LowestY(b.Particles()))
}

func (m *MinHeight) Value() float64 {
	if math.IsInf(m.lowest, 1) {
		return 0
	}
	return m.lowest
}

func (m *MinHeight) Reset() { m.lowest = math.Inf(1) }

// LambdaMagnitude reports the mean absolute multiplier after the most recent
// step. Under the persist policy this grows while a body rests.
type LambdaMagnitude struct {
	name string
	mean float64
}

func NewLambdaMagnitude() *LambdaMagnitude {
	return &LambdaMagnitude{name: "lambda_magnitude"}
}

func (l *LambdaMagnitude) Name() string { return l.name }

func (l *LambdaMagnitude) Observe(b dynamo.Body, step int, t float64) {
	cs := b.Constraints()
	if len(cs) == 0 {
		l.mean = 0
		return
	}
	sum := 0.0
	for _, c := range cs {
		sum += math.Abs(c.Lambda)
	}
	l.mean = sum / float64(len(cs))
}

func (l *LambdaMagnitude) Value() float64 { return l.mean }

func (l *LambdaMagnitude) Reset() { l.mean = 0 }

// Default returns the standard metric set for a run with step size dt.
func Default(dt float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewMinHeight(),
		NewMaxStretch(),
		NewKineticEnergy(dt),
		NewStability(DefaultStretchThreshold),
		NewLambdaMagnitude(),
	}
}
