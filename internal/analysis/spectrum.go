package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the magnitudes of the lower half of the discrete
// Fourier transform of series with its mean removed. Any length is accepted.
func PowerSpectrum(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))

	centered := make([]float64, len(series))
	for i, v := range series {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	ps := make([]float64, len(coeffs)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}
	return ps
}

// DominantPeriod returns the period of the strongest component of series,
// sampled every interval. It reports false for constant series.
func DominantPeriod(series []float64, interval float64) (float64, bool) {
	ps := PowerSpectrum(series)
	if len(ps) < 2 {
		return 0, false
	}

	best := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	// numerical noise of a constant series
	if ps[best] < 1e-12 {
		return 0, false
	}
	return float64(len(series)) * interval / float64(best), true
}
