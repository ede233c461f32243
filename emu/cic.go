package emu

import (
	"github.com/sarchlab/dsmdec/fixed"
	"github.com/sarchlab/dsmdec/timing/cic"
)

// cicModel is the textbook Hogenauer structure: a full-rate integrator
// cascade, a decimator, and low-rate combs. The integrator output is read
// through a delay line so that results line up with the pipelined hardware.
type cicModel struct {
	r     int
	width uint
	drop  uint

	integ []int64
	hist  []int64 // integrator output, hist[0] newest
	combs [][]int64
	phase int
}

// pipelineDelay returns the number of input samples by which the pipelined
// integrator and comb chains trail the textbook structure.
func pipelineDelay(c cic.Config) int {
	return 1 + (c.Order-1)*(c.Decimation+1)
}

func newCICModel(c cic.Config) *cicModel {
	width := c.RegisterWidth()
	m := &cicModel{
		r:     c.Decimation,
		width: width,
		drop:  width - c.ResultWidth(),
		integ: make([]int64, c.Order),
		hist:  make([]int64, pipelineDelay(c)+1),
		combs: make([][]int64, c.Order),
	}
	for i := range m.combs {
		m.combs[i] = make([]int64, c.DiffDelay)
	}
	return m
}

func (m *cicModel) push(x int64) (int64, bool) {
	v := fixed.Wrap(x, m.width)
	for i := range m.integ {
		m.integ[i] = fixed.Wrap(m.integ[i]+v, m.width)
		v = m.integ[i]
	}

	copy(m.hist[1:], m.hist[:len(m.hist)-1])
	m.hist[0] = v

	m.phase++
	if m.phase < m.r {
		return 0, false
	}
	m.phase = 0

	y := m.hist[len(m.hist)-1]
	for _, d := range m.combs {
		oldest := d[len(d)-1]
		copy(d[1:], d[:len(d)-1])
		d[0] = y
		y = fixed.Wrap(y-oldest, m.width)
	}

	return fixed.Truncate(y, m.drop), true
}

func (m *cicModel) reset() {
	clear(m.integ)
	clear(m.hist)
	for _, d := range m.combs {
		clear(d)
	}
	m.phase = 0
}
