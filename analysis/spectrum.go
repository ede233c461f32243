package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// ToFloat converts samples to float64.
func ToFloat(x []int64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}

// DB converts a magnitude ratio to decibels.
func DB(ratio float64) float64 {
	return 20 * math.Log10(ratio)
}

// Spectrum returns the one-sided magnitude spectrum of x after removing the
// mean and applying a periodic Hann window. A tone centered on a bin then
// spreads into its two neighbours only.
func Spectrum(x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}

	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))

	buf := make([]float64, len(x))
	w := periodicHann(len(x))
	for i, v := range x {
		buf[i] = (v - mean) * w[i]
	}

	return magnitudes(fft.FFTReal(buf))
}

// Tone summarizes a single-tone measurement.
type Tone struct {
	// Bin is the spectrum bin holding the peak.
	Bin int
	// Signal is the power in the bins around the peak.
	Signal float64
	// Noise is the power in every other bin above DC.
	Noise float64
}

// SNR returns the signal-to-noise ratio in decibels.
func (t Tone) SNR() float64 {
	if t.Noise == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(t.Signal/t.Noise)
}

// Frequency returns the peak frequency for a sample rate and transform size.
func (t Tone) Frequency(rate float64, n int) float64 {
	return float64(t.Bin) * rate / float64(n)
}

// MeasureTone finds the strongest component of x and splits the spectrum
// into the power within span bins of it and the rest. The span bins next to
// DC are ignored.
func MeasureTone(x []float64, span int) Tone {
	mags := Spectrum(x)

	t := Tone{}
	peak := -1.0
	for k := span + 1; k < len(mags); k++ {
		if mags[k] > peak {
			peak = mags[k]
			t.Bin = k
		}
	}

	for k := span + 1; k < len(mags); k++ {
		p := mags[k] * mags[k]
		if k >= t.Bin-span && k <= t.Bin+span {
			t.Signal += p
		} else {
			t.Noise += p
		}
	}

	return t
}

// periodicHann is the n+1 point symmetric window without its last point.
func periodicHann(n int) []float64 {
	return window.Hann(n + 1)[:n]
}

func magnitudes(spec []complex128) []float64 {
	n := len(spec)/2 + 1
	out := make([]float64, n)
	for k := range out {
		out[k] = cmplx.Abs(spec[k])
	}
	return out
}
