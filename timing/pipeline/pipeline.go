// Package pipeline provides the cycle-level model of the decimation chain:
//
//	CIC (R) -> compensation FIR (2) -> halfband (2) -> halfband (2)
//
// Every stage shares one clock. A stage's input valid is exactly its
// producer's output valid on the same cycle; the coordinator adds nothing to
// the data it forwards.
package pipeline

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/dsmdec/config"
	"github.com/sarchlab/dsmdec/fixed"
	"github.com/sarchlab/dsmdec/timing/cic"
	"github.com/sarchlab/dsmdec/timing/latency"
	"github.com/sarchlab/dsmdec/timing/mac"
)

// Tap counts of the MAC stages.
const (
	CompensationTaps = 26
	HalfbandTaps     = 7
)

// MACDecimation is the rate change of every MAC stage.
const MACDecimation = 2

// Stage indices along the chain.
const (
	StageCIC = iota
	StageCompensation
	StageHalfband1
	StageHalfband2
	NumStages
)

// Statistics holds pipeline activity counters. Cycles restart at zero after
// every reset.
type Statistics struct {
	// Cycles is the number of edges since the last reset.
	Cycles uint64
	// Inputs is the number of valid input samples presented.
	Inputs uint64
	// Outputs is the number of valid output samples emitted.
	Outputs uint64
	// Overruns is the number of samples dropped by busy MAC stages.
	Overruns uint64
	// FirstInputCycle is the edge index of the first valid input.
	FirstInputCycle uint64
	// FirstOutputCycle is the edge index of the first valid output.
	FirstOutputCycle uint64
}

// StartupLatency returns the measured cycles from the first input to the
// first output, and false when no output has appeared yet.
func (s Statistics) StartupLatency() (uint64, bool) {
	if s.Outputs == 0 || s.Inputs == 0 {
		return 0, false
	}
	return s.FirstOutputCycle - s.FirstInputCycle, true
}

// Ratio returns the number of inputs per output.
func (s Statistics) Ratio() float64 {
	if s.Outputs == 0 {
		return 0
	}
	return float64(s.Inputs) / float64(s.Outputs)
}

// Observer is called for every valid sample leaving a stage.
type Observer func(cycle uint64, stage int, value int64)

// Option is a functional option for configuring the Pipeline.
type Option func(*Pipeline)

// WithInputSpacing declares the guaranteed minimum number of cycles between
// valid input samples. The MAC timing budgets are checked against it.
// Default: 1 (a sample may arrive every cycle).
func WithInputSpacing(cycles int) Option {
	return func(p *Pipeline) {
		p.inputSpacing = cycles
	}
}

// WithObserver installs a callback for samples on every link.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// Pipeline owns one CIC and three MAC stages
// and moves strobes between them.
type Pipeline struct {
	config *config.Config

	cic          *cic.Stage
	compensation *mac.Stage
	halfband1    *mac.Stage
	halfband2    *mac.Stage
	stages       [NumStages]Stage

	links [NumStages]LinkRegister

	inputSpacing int
	table        *latency.Table
	observer     Observer

	resetAsserted bool
	stats         Statistics
}

// New builds the pipeline from a configuration. All design-time violations
// (bit growth, timing budget, tap counts) are reported here. The returned
// pipeline has been through a power-on reset.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		config:       cfg.Clone(),
		inputSpacing: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inputSpacing < 1 {
		return nil, errors.Errorf("input spacing must be >= 1, got %d", p.inputSpacing)
	}

	var err error
	p.cic, err = cic.New(p.config.CIC)
	if err != nil {
		return nil, err
	}

	width := p.cic.OutputWidth()
	spacing := p.inputSpacing * p.config.CIC.Decimation

	p.compensation, err = p.buildMAC("compensation", p.config.Compensation,
		CompensationTaps, width, spacing)
	if err != nil {
		return nil, err
	}

	width = p.config.Compensation.OutputWidth
	spacing *= MACDecimation
	p.halfband1, err = p.buildMAC("halfband1", p.config.Halfband1,
		HalfbandTaps, width, spacing)
	if err != nil {
		return nil, err
	}

	width = p.config.Halfband1.OutputWidth
	spacing *= MACDecimation
	p.halfband2, err = p.buildMAC("halfband2", p.config.Halfband2,
		HalfbandTaps, width, spacing)
	if err != nil {
		return nil, err
	}

	p.stages = [NumStages]Stage{p.cic, p.compensation, p.halfband1, p.halfband2}
	p.table = latency.NewTable(p.cic, p.inputSpacing,
		p.compensation, p.halfband1, p.halfband2)

	p.Reset()

	return p, nil
}

func (p *Pipeline) buildMAC(
	name string,
	sc config.StageConfig,
	taps int,
	inputWidth uint,
	spacing int,
) (*mac.Stage, error) {
	set, err := p.config.CoefficientSet(name, sc)
	if err != nil {
		return nil, err
	}
	if err := set.ExpectLen(taps); err != nil {
		return nil, err
	}

	return mac.New(mac.Config{
		Name:            name,
		Coefficients:    set.Values(),
		CoefWidth:       sc.CoefWidth,
		InputWidth:      inputWidth,
		OutputWidth:     sc.OutputWidth,
		Decimation:      MACDecimation,
		Symmetric:       sc.Symmetric,
		SkipZeros:       sc.SkipZeros,
		MinInputSpacing: spacing,
	})
}

// Config returns a copy of the configuration the pipeline was built from.
func (p *Pipeline) Config() *config.Config {
	return p.config.Clone()
}

// CIC returns the CIC stage.
func (p *Pipeline) CIC() *cic.Stage {
	return p.cic
}

// Compensation returns the droop-compensation stage.
func (p *Pipeline) Compensation() *mac.Stage {
	return p.compensation
}

// Halfband1 returns the first halfband stage.
func (p *Pipeline) Halfband1() *mac.Stage {
	return p.halfband1
}

// Halfband2 returns the second halfband stage.
func (p *Pipeline) Halfband2() *mac.Stage {
	return p.halfband2
}

// Link returns the register of the link leaving stage i.
func (p *Pipeline) Link(i int) LinkRegister {
	return p.links[i]
}

// LatencyTable returns the timing table of the configured stages.
func (p *Pipeline) LatencyTable() *latency.Table {
	return p.table
}

// Decimation returns the total rate change factor.
func (p *Pipeline) Decimation() int {
	return p.table.Decimation()
}

// OutputWidth returns the width of the samples the pipeline emits.
func (p *Pipeline) OutputWidth() uint {
	return p.halfband2.Config().OutputWidth
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	s := p.stats
	s.Overruns = p.compensation.Stats().Overruns +
		p.halfband1.Stats().Overruns +
		p.halfband2.Stats().Overruns
	return s
}

// Output returns the pipeline output register.
func (p *Pipeline) Output() fixed.Strobe {
	return p.halfband2.Output()
}

// Tick advances every stage by one clock edge.
//
// Stages are evaluated back to front, so each one consumes the output
// register its producer held before this edge, as a synchronous design would.
func (p *Pipeline) Tick(in fixed.Strobe) fixed.Strobe {
	if p.resetAsserted {
		p.Reset()
		return fixed.Strobe{}
	}

	cycle := p.stats.Cycles
	p.stats.Cycles++

	if in.Valid {
		if p.stats.Inputs == 0 {
			p.stats.FirstInputCycle = cycle
		}
		p.stats.Inputs++
	}

	for i := NumStages - 1; i >= 0; i-- {
		src := in
		if i > 0 {
			src = p.stages[i-1].Output()
		}
		out := p.stages[i].Tick(src)
		p.links[i].Latch(out, cycle)
		if out.Valid && p.observer != nil {
			p.observer(cycle, i, out.Value)
		}
	}

	out := p.stages[NumStages-1].Output()
	if out.Valid {
		if p.stats.Outputs == 0 {
			p.stats.FirstOutputCycle = cycle
		}
		p.stats.Outputs++
	}

	return out
}

// Process feeds samples on consecutive cycles and returns the outputs
// emitted while doing so.
func (p *Pipeline) Process(samples []int64) []int64 {
	var out []int64
	for _, x := range samples {
		o := p.Tick(fixed.Valid(x))
		if o.Valid {
			out = append(out, o.Value)
		}
	}
	return out
}

// Flush runs idle cycles until every complete output window already
// accepted has been emitted, and returns those outputs.
func (p *Pipeline) Flush() []int64 {
	var out []int64
	for i := 0; i < p.DrainCycles(); i++ {
		o := p.Tick(fixed.Strobe{})
		if o.Valid {
			out = append(out, o.Value)
		}
	}
	return out
}

// DrainCycles returns the number of idle cycles Flush runs.
func (p *Pipeline) DrainCycles() int {
	return p.table.DrainLatency() + 1
}

// RunCycles ticks n cycles with the input held idle and reports how many
// outputs appeared.
func (p *Pipeline) RunCycles(n uint64) uint64 {
	var emitted uint64
	for i := uint64(0); i < n; i++ {
		if p.Tick(fixed.Strobe{}).Valid {
			emitted++
		}
	}
	return emitted
}

// AssertReset holds the synchronous reset. While asserted every state
// element stays cleared, inputs are ignored, and outputs stay low.
func (p *Pipeline) AssertReset() {
	p.resetAsserted = true
	p.Reset()
}

// ReleaseReset releases the reset; normal operation resumes on the next edge.
func (p *Pipeline) ReleaseReset() {
	p.resetAsserted = false
}

// InReset reports whether reset is asserted.
func (p *Pipeline) InReset() bool {
	return p.resetAsserted
}

// Reset clears all pipeline state at once.
func (p *Pipeline) Reset() {
	for _, s := range p.stages {
		s.Reset()
	}
	for i := range p.links {
		p.links[i].Clear()
	}
	p.stats = Statistics{}
}
