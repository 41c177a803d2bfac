package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum removes the mean and returns the magnitudes of the first
// half of the transform.
func PowerSpectrum(data []float64) []float64 {
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	if len(data) > 0 {
		mean /= float64(len(data))
	}
	centred := make([]float64, len(data))
	for i, v := range data {
		centred[i] = v - mean
	}

	spectrum := fft.FFTReal(centred)
	ps := make([]float64, len(spectrum)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}

	return ps
}

// DominantFrequency returns the frequency in hz of the strongest non-DC bin,
// or 0 when the signal is flat or too short.
func DominantFrequency(data []float64, dt float64) float64 {
	if dt <= 0 || len(data) < 4 {
		return 0
	}
	ps := PowerSpectrum(data)
	maxPower := 1e-12
	maxIdx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > maxPower {
			maxPower = ps[i]
			maxIdx = i
		}
	}
	return float64(maxIdx) / (float64(len(data)) * dt)
}
