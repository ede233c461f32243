// Package mac provides the serial multiply-accumulate decimator used for the
// droop-compensation FIR and the halfband stages.
//
// A single multiplier is shared across all taps. For every accepted input the
// stage walks an explicit state machine:
//
//	Idle -> Shifting -> Accumulating(tap 0..E-1) -> [Emitting] -> Idle
//
// where E is the number of scheduled multiplies and Emitting is entered on
// every Decimation-th input. The walk has to finish before the next input can
// arrive; New refuses configurations that cannot guarantee this.
package mac

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/dsmdec/fixed"
)

// ErrTimingBudget reports a schedule that does not fit the cycles available
// between upstream samples.
var ErrTimingBudget = errors.New("serial schedule exceeds timing budget")

// State is the sequencer state.
type State int

// Sequencer states.
const (
	StateIdle State = iota
	StateShifting
	StateAccumulating
	StateEmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateShifting:
		return "shifting"
	case StateAccumulating:
		return "accumulating"
	case StateEmitting:
		return "emitting"
	default:
		return "unknown"
	}
}

// Config holds the parameters of one serial MAC decimator.
type Config struct {
	// Name identifies the stage in errors and reports.
	Name string `json:"name"`

	// Coefficients are the K filter taps; tap 0 multiplies the newest sample.
	Coefficients []int64 `json:"coefficients"`

	// CoefWidth is the signed width of every coefficient.
	CoefWidth uint `json:"coef_width"`

	// InputWidth is the width of accepted samples.
	InputWidth uint `json:"input_width"`

	// OutputWidth is the truncation point of the accumulator.
	OutputWidth uint `json:"output_width"`

	// Decimation is the number of accepted inputs per emitted output.
	Decimation int `json:"decimation"`

	// Symmetric folds mirrored taps into one multiply.
	Symmetric bool `json:"symmetric"`

	// SkipZeros removes multiplies by coefficients that are exactly zero.
	SkipZeros bool `json:"skip_zeros"`

	// MinInputSpacing is the guaranteed minimum number of cycles between two
	// upstream valid pulses.
	MinInputSpacing int `json:"min_input_spacing"`
}

// AccumulatorWidth returns input + coefficient + ceil(log2 K).
func (c Config) AccumulatorWidth() uint {
	return fixed.AccumulatorWidth(c.InputWidth, c.CoefWidth, len(c.Coefficients))
}

// Budget compares the cycles one input sample occupies with the cycles the
// upstream producer guarantees.
type Budget struct {
	// Multiplies is the number of scheduled MAC steps per input.
	Multiplies int
	// Required counts the shift, accumulate, and emit cycles.
	Required int
	// Available is the guaranteed spacing between upstream samples.
	Available int
}

// Headroom returns the spare cycles per input sample.
func (b Budget) Headroom() int {
	return b.Available - b.Required
}

// Fits reports whether the schedule completes before the next input.
func (b Budget) Fits() bool {
	return b.Required < b.Available
}

func budgetFor(ops []Op, spacing int) Budget {
	return Budget{
		Multiplies: len(ops),
		Required:   len(ops) + 2,
		Available:  spacing,
	}
}

// Validate checks widths, coefficients, and the timing budget.
func (c Config) Validate() error {
	_, err := c.validate()
	return err
}

func (c Config) validate() ([]Op, error) {
	name := c.Name
	if name == "" {
		name = "mac"
	}

	if c.Decimation < 1 {
		return nil, errors.Errorf("%s: decimation must be >= 1, got %d", name, c.Decimation)
	}
	if c.InputWidth == 0 || c.CoefWidth == 0 || c.OutputWidth == 0 {
		return nil, errors.Errorf("%s: input, coefficient and output widths must be > 0", name)
	}
	if c.MinInputSpacing < 1 {
		return nil, errors.Errorf("%s: minimum input spacing must be >= 1, got %d",
			name, c.MinInputSpacing)
	}

	for i, v := range c.Coefficients {
		if !fixed.Fits(v, c.CoefWidth) {
			return nil, errors.Errorf("%s: coefficient %d (%d) does not fit %d bits",
				name, i, v, c.CoefWidth)
		}
	}

	ops, err := BuildSchedule(c.Coefficients, c.Symmetric, c.SkipZeros)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}

	acc := c.AccumulatorWidth()
	if err := fixed.CheckWidth(name+" accumulator", acc); err != nil {
		return nil, err
	}
	if c.OutputWidth > acc {
		return nil, errors.Errorf("%s: output width %d exceeds accumulator width %d",
			name, c.OutputWidth, acc)
	}

	b := budgetFor(ops, c.MinInputSpacing)
	if !b.Fits() {
		return nil, errors.Wrapf(ErrTimingBudget,
			"%s: %d cycles per sample, upstream guarantees %d",
			name, b.Required, b.Available)
	}

	return ops, nil
}

// Statistics holds per-stage activity counters.
type Statistics struct {
	// Cycles is the number of clock edges seen.
	Cycles uint64
	// Accepted is the number of input samples taken into the delay line.
	Accepted uint64
	// Emitted is the number of output samples produced.
	Emitted uint64
	// Multiplies is the number of MAC steps performed.
	Multiplies uint64
	// BusyCycles is the number of edges spent outside Idle.
	BusyCycles uint64
	// Overruns counts inputs that arrived while the sequencer was busy.
	// They are dropped.
	Overruns uint64
}

// Stage is one serial MAC decimator instance.
type Stage struct {
	config   Config
	schedule []Op
	budget   Budget
	accWidth uint
	drop     uint

	line    []int64 // line[0] is the newest sample
	pending int64

	state   State
	tap     int
	acc     int64
	phase   int
	emitDue bool

	out   fixed.Strobe
	stats Statistics
}

// New builds a stage in its reset state.
func New(config Config) (*Stage, error) {
	ops, err := config.validate()
	if err != nil {
		return nil, err
	}

	config.Coefficients = append([]int64(nil), config.Coefficients...)
	acc := config.AccumulatorWidth()

	return &Stage{
		config:   config,
		schedule: ops,
		budget:   budgetFor(ops, config.MinInputSpacing),
		accWidth: acc,
		drop:     acc - config.OutputWidth,
		line:     make([]int64, len(config.Coefficients)),
	}, nil
}

// Config returns the stage configuration.
func (s *Stage) Config() Config {
	return s.config
}

// Schedule returns the multiply sequence.
func (s *Stage) Schedule() []Op {
	return append([]Op(nil), s.schedule...)
}

// Budget returns the timing budget of the schedule.
func (s *Stage) Budget() Budget {
	return s.budget
}

// AccumulatorWidth returns the accumulator width in bits.
func (s *Stage) AccumulatorWidth() uint {
	return s.accWidth
}

// Discard returns the number of accumulator bits dropped on output.
func (s *Stage) Discard() uint {
	return s.drop
}

// State returns the sequencer state.
func (s *Stage) State() State {
	return s.state
}

// TapIndex returns the index of the next schedule step.
func (s *Stage) TapIndex() int {
	return s.tap
}

// Accumulator returns the accumulator register.
func (s *Stage) Accumulator() int64 {
	return s.acc
}

// DelayLine returns a copy of the tap delay line, newest first.
func (s *Stage) DelayLine() []int64 {
	return append([]int64(nil), s.line...)
}

// Output returns the output register.
func (s *Stage) Output() fixed.Strobe {
	return s.out
}

// Stats returns the activity counters.
func (s *Stage) Stats() Statistics {
	return s.stats
}

// Tick advances the stage by one clock edge and returns the output register
// after the edge.
func (s *Stage) Tick(in fixed.Strobe) fixed.Strobe {
	s.stats.Cycles++

	idle := s.state == StateIdle
	out := fixed.Strobe{}

	switch s.state {
	case StateIdle:
	case StateShifting:
		s.shift()
	case StateAccumulating:
		s.accumulate()
	case StateEmitting:
		out = fixed.Valid(fixed.Truncate(s.acc, s.drop))
		s.stats.Emitted++
		s.state = StateIdle
	}

	if !idle {
		s.stats.BusyCycles++
	}

	if in.Valid {
		if idle {
			s.pending = fixed.Wrap(in.Value, s.config.InputWidth)
			s.state = StateShifting
			s.stats.Accepted++
		} else {
			s.stats.Overruns++
		}
	}

	s.out = out
	return out
}

func (s *Stage) shift() {
	copy(s.line[1:], s.line[:len(s.line)-1])
	s.line[0] = s.pending

	s.phase++
	s.emitDue = s.phase == s.config.Decimation
	if s.emitDue {
		s.phase = 0
	}

	s.acc = 0
	s.tap = 0
	s.state = StateAccumulating
}

func (s *Stage) accumulate() {
	op := s.schedule[s.tap]
	x := s.line[op.Tap]
	if op.Folded() {
		x += s.line[op.Mirror]
	}
	s.acc += op.Coef * x
	s.stats.Multiplies++

	s.tap++
	if s.tap < len(s.schedule) {
		return
	}
	if s.emitDue {
		s.state = StateEmitting
	} else {
		s.state = StateIdle
	}
}

// Reset clears the delay line, accumulator, counters, and output.
func (s *Stage) Reset() {
	clear(s.line)
	s.pending = 0
	s.state = StateIdle
	s.tap = 0
	s.acc = 0
	s.phase = 0
	s.emitDue = false
	s.out = fixed.Strobe{}
	s.stats = Statistics{}
}
