package stimulus

import "math"

// Modulator is a second-order multi-bit delta-sigma modulator with noise
// transfer function (1 - z^-1)^2, in error-feedback form.
type Modulator struct {
	width    uint
	min, max int64

	e1, e2 float64
}

// NewModulator returns a modulator whose output words are width bits wide.
func NewModulator(width uint) *Modulator {
	return &Modulator{
		width: width,
		min:   -(int64(1) << (width - 1)),
		max:   int64(1)<<(width-1) - 1,
	}
}

// Width returns the output word width.
func (m *Modulator) Width() uint {
	return m.width
}

// FullScale returns the output level corresponding to an input of 1.0.
func (m *Modulator) FullScale() float64 {
	return float64(m.max)
}

// Step quantizes one input sample. u is relative to full scale; inputs with
// magnitude above roughly 0.6 overload the quantizer.
func (m *Modulator) Step(u float64) int64 {
	y := u*m.FullScale() + 2*m.e1 - m.e2

	v := int64(math.Round(y))
	if v > m.max {
		v = m.max
	}
	if v < m.min {
		v = m.min
	}

	m.e2 = m.e1
	m.e1 = y - float64(v)
	return v
}

// Reset clears the modulator state.
func (m *Modulator) Reset() {
	m.e1 = 0
	m.e2 = 0
}
