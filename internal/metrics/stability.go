package metrics

import (
	"github.com/san-kum/softsim/internal/dynamo"
)

// DefaultStretchThreshold is the stretch ratio above which a step counts as
// unstable.
const DefaultStretchThreshold = 1.5

type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(b dynamo.Body, step int, t float64) {
	s.samples++
	if !b.Particles().Valid() || stretch(b) >= s.threshold {
		s.violations++
	}
}

// Value is the fraction of observed steps that stayed below the threshold.
func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// MaxStretch tracks the largest current/rest length ratio seen.
type MaxStretch struct {
	name string
	max  float64
}

func NewMaxStretch() *MaxStretch {
	return &MaxStretch{name: "max_stretch", max: 1}
}

func (m *MaxStretch) Name() string { return m.name }

func (m *MaxStretch) Observe(b dynamo.Body, step int, t float64) {
	if r := stretch(b); r > m.max {
		m.max = r
	}
}

func (m *MaxStretch) Value() float64 { return m.max }

func (m *MaxStretch) Reset() { m.max = 1 }

func stretch(b dynamo.Body) float64 {
	p := b.Particles()
	ratio := 1.0
	for _, c := range b.Constraints() {
		if c.RestLength == 0 {
			continue
		}
		if r := p.Positions[c.I1].Sub(p.Positions[c.I0]).Len() / c.RestLength; r > ratio {
			ratio = r
		}
	}
	return ratio
}
