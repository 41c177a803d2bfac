package analysis

import (
	"math"
	"testing"
)

func TestDominantFrequency(t *testing.T) {
	dt := 0.01
	data := make([]float64, 200)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*5*float64(i)*dt)
	}
	f := DominantFrequency(data, dt)
	if math.Abs(f-5) > 0.5 {
		t.Errorf("expected ~5 hz, got %v", f)
	}

	if f := DominantFrequency([]float64{1, 1, 1, 1, 1}, dt); f != 0 {
		t.Errorf("flat signal should give 0, got %v", f)
	}
	if f := DominantFrequency(data, 0); f != 0 {
		t.Errorf("zero dt should give 0, got %v", f)
	}
}

func TestPowerSpectrum(t *testing.T) {
	ps := PowerSpectrum(make([]float64, 100))
	if len(ps) != 50 {
		t.Errorf("expected 50 bins, got %d", len(ps))
	}
	for i, v := range PowerSpectrum([]float64{2, 2, 2, 2, 2, 2}) {
		if v > 1e-12 {
			t.Errorf("constant signal has power %v in bin %d", v, i)
		}
	}
}

func trace(ys ...float64) ([]float64, []float64) {
	times := make([]float64, len(ys))
	for i := range times {
		times[i] = float64(i) * 0.1
	}
	return times, ys
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name       string
		ys         []float64
		landed     bool
		landing    float64
		bounces    int
		settleTime float64
	}{
		{"never lands", []float64{1, 0.8, 0.5}, false, 0, 0, math.NaN()},
		{"lands and rests", []float64{1, 0.5, 0, 0, 0}, true, 0.2, 0, 0.2},
		{"one bounce", []float64{1, 0, 0.2, 0, 0, 0}, true, 0.1, 1, 0.3},
		{"two bounces", []float64{0.5, 0, 0.3, 0, 0.1, 0}, true, 0.1, 2, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			times, ys := trace(tt.ys...)
			s, err := Summarize(times, ys, 0, DefaultContactTolerance)
			if err != nil {
				t.Fatal(err)
			}
			if s.Landed != tt.landed || s.Bounces != tt.bounces {
				t.Errorf("landed=%v bounces=%d, want %v %d", s.Landed, s.Bounces, tt.landed, tt.bounces)
			}
			if tt.landed && math.Abs(s.LandingTime-tt.landing) > 1e-12 {
				t.Errorf("landing %v, want %v", s.LandingTime, tt.landing)
			}
			if math.IsNaN(tt.settleTime) != math.IsNaN(s.SettleTime) ||
				(!math.IsNaN(tt.settleTime) && math.Abs(s.SettleTime-tt.settleTime) > 1e-12) {
				t.Errorf("settle %v, want %v", s.SettleTime, tt.settleTime)
			}
			if s.FinalY != tt.ys[len(tt.ys)-1] {
				t.Errorf("final %v", s.FinalY)
			}
		})
	}
}

func TestSummarize_Errors(t *testing.T) {
	if _, err := Summarize([]float64{0}, nil, 0, 1e-4); err == nil {
		t.Error("expected length mismatch error")
	}
	s, err := Summarize(nil, nil, 0, 1e-4)
	if err != nil || s.Samples != 0 || s.Landed {
		t.Errorf("empty trace: %+v %v", s, err)
	}
}
