package pipeline

import "github.com/sarchlab/dsmdec/fixed"

// Stage is one clocked stage of the pipeline. Tick consumes the strobe its
// producer presented during the cycle and returns the stage's output register
// after the edge; Output returns that register without advancing.
type Stage interface {
	Tick(in fixed.Strobe) fixed.Strobe
	Output() fixed.Strobe
	Reset()
}

// LinkRegister records the most recent sample seen on one stage-to-stage link.
type LinkRegister struct {
	// Valid indicates the link carried a sample on the last edge.
	Valid bool

	// Value is the sample carried on the link.
	Value int64

	// Cycle is the edge on which the sample appeared.
	Cycle uint64

	// Count is the number of samples the link has carried.
	Count uint64
}

// Latch updates the register from a stage output.
func (r *LinkRegister) Latch(s fixed.Strobe, cycle uint64) {
	r.Valid = s.Valid
	if !s.Valid {
		return
	}
	r.Value = s.Value
	r.Cycle = cycle
	r.Count++
}

// Clear resets the link register to empty state.
func (r *LinkRegister) Clear() {
	r.Valid = false
	r.Value = 0
	r.Cycle = 0
	r.Count = 0
}
