// Package emu provides a functional, sample-domain model of the decimation
// chain.
//
// The emulator has no notion of clock cycles: every call to Step consumes one
// modulator sample and reports whether an output sample was produced. Its
// outputs are bit-identical to the cycle-level pipeline for the same input
// sequence, which makes it the golden model the timing tests compare against.
package emu

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/sarchlab/dsmdec/config"
	"github.com/sarchlab/dsmdec/fixed"
)

// ErrSampleLimit is returned once the configured sample limit is reached.
var ErrSampleLimit = errors.New("sample limit reached")

// StepResult represents the result of consuming a single input sample.
type StepResult struct {
	// Valid is true if an output sample was produced.
	Valid bool

	// Output is the output sample when Valid is set.
	Output int64

	// Err is set if the sample could not be consumed.
	Err error
}

// Emulator runs the decimation chain functionally.
type Emulator struct {
	config *config.Config

	cic  *cicModel
	firs []*firModel

	trace io.Writer

	sampleCount uint64
	outputCount uint64
	maxSamples  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithTrace writes one line per output sample to w.
func WithTrace(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.trace = w
	}
}

// WithMaxSamples sets the maximum number of input samples to consume.
// A value of 0 means no limit.
func WithMaxSamples(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxSamples = max
	}
}

// NewEmulator creates an emulator for the given configuration.
func NewEmulator(cfg *config.Config, opts ...EmulatorOption) (*Emulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Emulator{
		config: cfg.Clone(),
		cic:    newCICModel(cfg.CIC),
	}
	for _, opt := range opts {
		opt(e)
	}

	width := cfg.CIC.ResultWidth()
	stages := []struct {
		name  string
		stage config.StageConfig
	}{
		{"compensation", cfg.Compensation},
		{"halfband1", cfg.Halfband1},
		{"halfband2", cfg.Halfband2},
	}
	for _, s := range stages {
		set, err := e.config.CoefficientSet(s.name, s.stage)
		if err != nil {
			return nil, err
		}

		acc := fixed.AccumulatorWidth(width, s.stage.CoefWidth, set.Len())
		if err := fixed.CheckWidth(s.name+" accumulator", acc); err != nil {
			return nil, err
		}
		if s.stage.OutputWidth > acc {
			return nil, errors.Errorf("%s: output width %d exceeds accumulator width %d",
				s.name, s.stage.OutputWidth, acc)
		}

		e.firs = append(e.firs, &firModel{
			coefs:      set.Values(),
			inputWidth: width,
			drop:       acc - s.stage.OutputWidth,
			decimation: 2,
			line:       make([]int64, set.Len()),
		})
		width = s.stage.OutputWidth
	}

	return e, nil
}

// SampleCount returns the number of input samples consumed.
func (e *Emulator) SampleCount() uint64 {
	return e.sampleCount
}

// OutputCount returns the number of output samples produced.
func (e *Emulator) OutputCount() uint64 {
	return e.outputCount
}

// Decimation returns the total rate change factor.
func (e *Emulator) Decimation() int {
	d := e.config.CIC.Decimation
	for _, f := range e.firs {
		d *= f.decimation
	}
	return d
}

// Reset returns the emulator to its initial state.
func (e *Emulator) Reset() {
	e.cic.reset()
	for _, f := range e.firs {
		f.reset()
	}
	e.sampleCount = 0
	e.outputCount = 0
}

// Step consumes one modulator sample.
func (e *Emulator) Step(x int64) StepResult {
	if e.maxSamples > 0 && e.sampleCount >= e.maxSamples {
		return StepResult{Err: ErrSampleLimit}
	}
	e.sampleCount++

	v, ok := e.cic.push(x)
	if !ok {
		return StepResult{}
	}
	for _, f := range e.firs {
		v, ok = f.push(v)
		if !ok {
			return StepResult{}
		}
	}

	e.outputCount++
	if e.trace != nil {
		fmt.Fprintf(e.trace, "%d %d\n", e.sampleCount-1, v)
	}

	return StepResult{Valid: true, Output: v}
}

// Run consumes samples until they are exhausted or an error occurs, and
// returns the outputs produced.
func (e *Emulator) Run(samples []int64) ([]int64, error) {
	var out []int64
	for _, x := range samples {
		r := e.Step(x)
		if r.Err != nil {
			return out, r.Err
		}
		if r.Valid {
			out = append(out, r.Output)
		}
	}
	return out, nil
}
