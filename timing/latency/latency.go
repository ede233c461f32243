// Package latency models the cycle timing of the decimation pipeline: the
// per-stage budget of the serial MAC stages and the fixed startup latency.
//
// The values here are derived from the stage configurations alone and are
// checked against the cycle-level simulation in the pipeline tests.
package latency

import (
	"github.com/sarchlab/dsmdec/timing/cic"
	"github.com/sarchlab/dsmdec/timing/mac"
)

// Entry describes one stage of the pipeline.
type Entry struct {
	// Name identifies the stage.
	Name string
	// Decimation is the stage rate change factor.
	Decimation int
	// InputSpacing is the guaranteed number of cycles between stage inputs.
	InputSpacing int
	// Multiplies is the number of MAC steps per input (zero for the CIC).
	Multiplies int
	// Required is the number of cycles one input keeps the stage busy.
	Required int
	// Headroom is InputSpacing - Required.
	Headroom int
}

// Table holds the timing of every stage, front to back.
type Table struct {
	entries        []Entry
	inputSpacing   int
	cicOrder       int
	cicDecimation  int
	totalDecimated int
}

// NewTable builds the timing table for a CIC followed by serial MAC stages.
// inputSpacing is the guaranteed spacing of valid pulses at the pipeline
// input; 1 means a sample may arrive every cycle.
func NewTable(c *cic.Stage, inputSpacing int, macs ...*mac.Stage) *Table {
	if inputSpacing < 1 {
		inputSpacing = 1
	}

	cfg := c.Config()
	t := &Table{
		inputSpacing:   inputSpacing,
		cicOrder:       cfg.Order,
		cicDecimation:  cfg.Decimation,
		totalDecimated: cfg.Decimation,
	}
	t.entries = append(t.entries, Entry{
		Name:         "cic",
		Decimation:   cfg.Decimation,
		InputSpacing: inputSpacing,
		Required:     1,
		Headroom:     inputSpacing - 1,
	})

	for _, m := range macs {
		mc := m.Config()
		b := m.Budget()
		t.entries = append(t.entries, Entry{
			Name:         mc.Name,
			Decimation:   mc.Decimation,
			InputSpacing: b.Available,
			Multiplies:   b.Multiplies,
			Required:     b.Required,
			Headroom:     b.Headroom(),
		})
		t.totalDecimated *= mc.Decimation
	}

	return t
}

// Entries returns the stage entries, front to back.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Decimation returns the total rate change factor.
func (t *Table) Decimation() int {
	return t.totalDecimated
}

// DrainLatency returns the number of cycles from the edge that accepts the
// last input of an output window to the edge that raises the output valid.
//
// The CIC needs one edge to run its combs after capturing; every MAC stage
// then spends one edge accepting, one shifting, one per multiply, and one
// emitting.
func (t *Table) DrainLatency() int {
	cycles := 1
	for _, e := range t.entries[1:] {
		cycles += e.Multiplies + 3
	}
	return cycles
}

// StartupLatency returns the cycle offset between the first accepted input
// after reset and the first output valid, for input arriving every
// InputSpacing cycles.
func (t *Table) StartupLatency() int {
	return (t.totalDecimated-1)*t.inputSpacing + t.DrainLatency()
}

// OutputPeriod returns the steady-state number of cycles between outputs.
func (t *Table) OutputPeriod() int {
	return t.totalDecimated * t.inputSpacing
}

// Alignment returns the input index, relative to the output index times the
// total decimation, of the newest input sample that contributes to an output
// under the full-rate composition of the stage responses.
//
// Output k equals (h * x)[k*D + Alignment] where h is the composed impulse
// response of all stages and D the total decimation.
func (t *Table) Alignment() int {
	r := t.cicDecimation
	n := t.cicOrder

	// The CIC captures the last integrator before its update on input R-1 of
	// each window, and its integrator and comb chains are pipelined one
	// register per stage.
	offset := (r - 2) - (n-1)*(r+1)

	stride := r
	for _, e := range t.entries[1:] {
		offset += stride * (e.Decimation - 1)
		stride *= e.Decimation
	}

	return offset
}
