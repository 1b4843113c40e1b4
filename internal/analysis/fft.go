package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitudes of the first half of the DFT of data.
func PowerSpectrum(data []float64) []float64 {
	spectrum := fft.FFTReal(data)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantPeriod returns the period of the strongest non-constant component
// of a channel sampled every dt. The mean is removed and the series is
// zero-padded to a power of two. ok is false for series that are too short
// or carry no oscillation.
func DominantPeriod(values []float64, dt float64) (period float64, ok bool) {
	if len(values) < 4 || dt <= 0 {
		return 0, false
	}
	n := 1
	for n < len(values) {
		n <<= 1
	}
	padded := make([]float64, n)
	copy(padded, values)
	floats.AddConst(-stat.Mean(values, nil), padded[:len(values)])

	ps := PowerSpectrum(padded)
	if len(ps) < 2 {
		return 0, false
	}
	k := floats.MaxIdx(ps[1:]) + 1
	if ps[k] <= 1e-9*math.Max(1, floats.Norm(values, math.Inf(1))) {
		return 0, false
	}
	return float64(n) * dt / float64(k), true
}
