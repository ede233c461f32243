// Package analysis provides floating-point reference models and spectral
// measurements used to check the fixed-point decimation chain.
package analysis

import (
	"math"

	"github.com/mjibson/go-dsp/fft"

	"github.com/sarchlab/dsmdec/fixed"
	"github.com/sarchlab/dsmdec/timing/mac"
	"github.com/sarchlab/dsmdec/timing/pipeline"
)

// Reference is the chain modelled as one full-rate FIR followed by a
// decimator. It has no truncation, so it bounds what the fixed-point chain
// should produce to within a few output LSBs.
type Reference struct {
	response   []float64
	decimation int
	alignment  int
}

// NewReference composes the stage responses of p.
func NewReference(p *pipeline.Pipeline) *Reference {
	c := p.CIC().Config()

	h := []float64{1}
	box := make([]float64, c.Decimation*c.DiffDelay)
	for i := range box {
		box[i] = 1
	}
	for i := 0; i < c.Order; i++ {
		h = Convolve(h, box)
	}
	scale := math.Ldexp(1, -int(c.RegisterWidth()-c.ResultWidth()))

	stride := c.Decimation
	for _, m := range []*mac.Stage{p.Compensation(), p.Halfband1(), p.Halfband2()} {
		mc := m.Config()
		h = Convolve(h, upsample(mc.Coefficients, stride))
		scale = math.Ldexp(scale, -int(m.Discard()))
		stride *= mc.Decimation
	}

	for i := range h {
		h[i] *= scale
	}

	return &Reference{
		response:   h,
		decimation: p.Decimation(),
		alignment:  p.LatencyTable().Alignment(),
	}
}

// Response returns the composed impulse response in output units per input
// unit.
func (r *Reference) Response() []float64 {
	return append([]float64(nil), r.response...)
}

// DCGain returns the gain at zero frequency.
func (r *Reference) DCGain() float64 {
	var sum float64
	for _, v := range r.response {
		sum += v
	}
	return sum
}

// SignalWidth returns the signed width that holds the steady-state output
// for a full-scale DC input of inputWidth bits.
func (r *Reference) SignalWidth(inputWidth uint) uint {
	peak := -float64(fixed.MinValue(inputWidth)) * math.Abs(r.DCGain())
	if peak < 1 {
		return 1
	}
	return 1 + uint(math.Ceil(math.Log2(peak)-1e-6))
}

// GainAt returns the magnitude response at freq for a full-rate sample rate
// of rate.
func (r *Reference) GainAt(freq, rate float64) float64 {
	w := 2 * math.Pi * freq / rate
	var re, im float64
	for n, v := range r.response {
		re += v * math.Cos(w*float64(n))
		im -= v * math.Sin(w*float64(n))
	}
	return math.Hypot(re, im)
}

// FrequencyResponse returns the magnitude response on n/2+1 evenly spaced
// bins from DC to the full-rate Nyquist frequency. n is raised to the
// response length when smaller.
func (r *Reference) FrequencyResponse(n int) []float64 {
	if n < len(r.response) {
		n = len(r.response)
	}
	buf := make([]float64, n)
	copy(buf, r.response)
	return magnitudes(fft.FFTReal(buf))
}

// Filter returns the outputs the chain produces for x, one per complete
// window of Decimation input samples.
func (r *Reference) Filter(x []int64) []float64 {
	out := make([]float64, len(x)/r.decimation)
	for k := range out {
		n := k*r.decimation + r.alignment
		var acc float64
		for j, h := range r.response {
			i := n - j
			if i < 0 {
				break
			}
			if i < len(x) {
				acc += h * float64(x[i])
			}
		}
		out[k] = acc
	}
	return out
}

// Convolve returns the full linear convolution of a and b. It works in the
// time domain so integer-valued responses stay exact.
func Convolve(a, b []float64) []float64 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

func upsample(coefs []int64, stride int) []float64 {
	out := make([]float64, (len(coefs)-1)*stride+1)
	for i, c := range coefs {
		out[i*stride] = float64(c)
	}
	return out
}
