package core

import "github.com/sarchlab/dsmdec/fixed"

// SliceSource presents samples from a slice, one valid strobe every Spacing
// cycles with idle cycles in between.
type SliceSource struct {
	samples []int64
	spacing int
	pos     int
	phase   int
}

// NewSliceSource returns a source for samples. A spacing below 1 is treated
// as 1.
func NewSliceSource(samples []int64, spacing int) *SliceSource {
	if spacing < 1 {
		spacing = 1
	}
	return &SliceSource{samples: samples, spacing: spacing}
}

// Next implements Source.
func (s *SliceSource) Next() (fixed.Strobe, bool) {
	if s.pos >= len(s.samples) {
		return fixed.Strobe{}, false
	}

	if s.phase != 0 {
		s.phase = (s.phase + 1) % s.spacing
		return fixed.Strobe{}, true
	}

	v := s.samples[s.pos]
	s.pos++
	s.phase = 1 % s.spacing
	return fixed.Valid(v), true
}

// Remaining returns the number of samples not yet presented.
func (s *SliceSource) Remaining() int {
	return len(s.samples) - s.pos
}

// SliceSink collects output samples and the cycles they appeared on.
type SliceSink struct {
	Samples []int64
	Cycles  []uint64
}

// Accept implements Sink.
func (s *SliceSink) Accept(cycle uint64, value int64) {
	s.Samples = append(s.Samples, value)
	s.Cycles = append(s.Cycles, cycle)
}
