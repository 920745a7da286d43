package metrics

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of each non-negative frequency bin of
// the mean-removed series, sampled at sampleRate Hz, and the bin width.
func PowerSpectrum(series []float64, sampleRate float64) (power []float64, binHz float64) {
	n := len(series)
	if n < 2 || !(sampleRate > 0) {
		return nil, 0
	}
	mean := stat.Mean(series, nil)
	centered := make([]float64, n)
	for i, v := range series {
		centered[i] = v - mean
	}

	coeff := fourier.NewFFT(n).Coefficients(nil, centered)
	power = make([]float64, len(coeff))
	for i, c := range coeff {
		power[i] = cmplx.Abs(c)
	}
	return power, sampleRate / float64(n)
}

// DominantFrequency is the frequency of the strongest non-constant bin.
// It returns 0 when the series is too short or flat.
func DominantFrequency(series []float64, sampleRate float64) (hz, power float64) {
	ps, bin := PowerSpectrum(series, sampleRate)
	best := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > power {
			best, power = i, ps[i]
		}
	}
	return float64(best) * bin, power
}
