// Package stimulus generates modulator input sequences for simulation and
// tests.
package stimulus

import "math"

// Constant returns n copies of v.
func Constant(n int, v int64) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Alternating returns n samples toggling between hi and lo, starting with hi.
func Alternating(n int, hi, lo int64) []int64 {
	out := make([]int64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = hi
		} else {
			out[i] = lo
		}
	}
	return out
}

// Impulse returns n samples that are zero except for amp at index at.
func Impulse(n, at int, amp int64) []int64 {
	out := make([]int64, n)
	if at >= 0 && at < n {
		out[at] = amp
	}
	return out
}

// Sine returns n samples of a full-rate sine quantized by m.
//
// amplitude is relative to the modulator full scale; freq and rate are in Hz.
func Sine(m *Modulator, n int, freq, rate, amplitude float64) []int64 {
	out := make([]int64, n)
	for i := range out {
		u := amplitude * math.Sin(2*math.Pi*freq*float64(i)/rate)
		out[i] = m.Step(u)
	}
	return out
}
