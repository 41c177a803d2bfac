package analysis

import (
	"fmt"
	"math"
)

// DefaultContactTolerance is how close to the floor the lowest particle must
// be to count as touching it.
const DefaultContactTolerance = 1e-4

// Summary describes how a body met the floor.
type Summary struct {
	Samples int
	// Landed is false when the trace never came within tolerance of the floor.
	Landed      bool
	LandingTime float64
	// Bounces counts lift-offs after the first contact.
	Bounces int
	// SettleTime is the earliest time after which the trace stays within
	// tolerance of its final value. NaN when the final sample is the first
	// to qualify.
	SettleTime float64
	FinalY     float64
	// Frequency is the dominant oscillation of the trace after landing, hz.
	Frequency float64
}

// Summarize analyses a lowest-height trace against floorY.
func Summarize(times, minY []float64, floorY, tol float64) (Summary, error) {
	if len(times) != len(minY) {
		return Summary{}, fmt.Errorf("trace has %d times but %d heights", len(times), len(minY))
	}
	s := Summary{Samples: len(minY), SettleTime: math.NaN()}
	if len(minY) == 0 {
		return s, nil
	}
	s.FinalY = minY[len(minY)-1]

	contact := -1
	touching := false
	for i, y := range minY {
		on := y-floorY <= tol
		if on && contact < 0 {
			contact = i
			s.Landed = true
			s.LandingTime = times[i]
		}
		if contact >= 0 && touching && !on {
			s.Bounces++
		}
		touching = on
	}

	settled := len(minY) - 1
	for i := len(minY) - 1; i >= 0; i-- {
		if math.Abs(minY[i]-s.FinalY) > tol {
			break
		}
		settled = i
	}
	if settled < len(minY)-1 {
		s.SettleTime = times[settled]
	}

	if contact >= 0 && len(times) > 1 {
		dt := times[1] - times[0]
		s.Frequency = DominantFrequency(minY[contact:], dt)
	}
	return s, nil
}
