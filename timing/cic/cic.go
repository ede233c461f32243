// Package cic provides the cascaded integrator-comb decimation stage.
//
// The stage runs at the input sample rate and uses only additions and
// subtractions. Registers are modeled as fixed-size slices that update once
// per clock edge from the values they held before the edge.
package cic

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/dsmdec/fixed"
)

// Config holds the CIC stage parameters.
type Config struct {
	// Order is the number of integrator and comb stages (N).
	Order int `json:"order"`

	// Decimation is the rate change factor (R).
	Decimation int `json:"decimation"`

	// DiffDelay is the differential delay of each comb (M).
	DiffDelay int `json:"diff_delay"`

	// InputWidth is the modulator word width (W0).
	InputWidth uint `json:"input_width"`

	// Width is the integrator and comb register width. Zero selects the
	// minimum overflow-free width W0 + N*ceil(log2(R*M)).
	Width uint `json:"width,omitempty"`

	// OutputWidth narrows the stage output by dropping least significant
	// bits. Zero keeps the full register width.
	OutputWidth uint `json:"output_width,omitempty"`
}

// DefaultConfig returns a fifth-order, decimate-by-16 CIC for a 4-bit
// modulator.
func DefaultConfig() Config {
	return Config{
		Order:      5,
		Decimation: 16,
		DiffDelay:  1,
		InputWidth: 4,
	}
}

// RequiredWidth returns the minimum register width for the configuration.
func (c Config) RequiredWidth() uint {
	return fixed.CICWidth(c.InputWidth, c.Order, c.Decimation, c.DiffDelay)
}

// RegisterWidth returns the register width the stage will use.
func (c Config) RegisterWidth() uint {
	if c.Width == 0 {
		return c.RequiredWidth()
	}
	return c.Width
}

// ResultWidth returns the width of the samples the stage emits.
func (c Config) ResultWidth() uint {
	if c.OutputWidth == 0 {
		return c.RegisterWidth()
	}
	return c.OutputWidth
}

// Validate checks the parameters and the bit-growth bound.
func (c Config) Validate() error {
	if c.Order < 1 {
		return errors.Errorf("cic: order must be >= 1, got %d", c.Order)
	}
	if c.Decimation < 2 {
		return errors.Errorf("cic: decimation must be >= 2, got %d", c.Decimation)
	}
	if c.DiffDelay < 1 {
		return errors.Errorf("cic: differential delay must be >= 1, got %d", c.DiffDelay)
	}
	if c.InputWidth == 0 {
		return errors.New("cic: input width must be > 0")
	}

	required := c.RequiredWidth()
	if c.Width != 0 && c.Width < required {
		return errors.Wrapf(fixed.ErrBitGrowth,
			"cic: register width %d below required %d", c.Width, required)
	}
	if err := fixed.CheckWidth("cic register", c.RegisterWidth()); err != nil {
		return err
	}
	if c.OutputWidth > c.RegisterWidth() {
		return errors.Errorf("cic: output width %d exceeds register width %d",
			c.OutputWidth, c.RegisterWidth())
	}
	return nil
}

// Statistics holds per-stage activity counters.
type Statistics struct {
	// Cycles is the number of clock edges seen.
	Cycles uint64
	// Accepted is the number of valid input samples consumed.
	Accepted uint64
	// Emitted is the number of valid output samples produced.
	Emitted uint64
}

// Stage is a CIC decimator instance.
type Stage struct {
	config Config
	width  uint
	drop   uint

	integ []int64

	count      int
	decim      int64
	decimValid bool

	comb  []int64
	delay [][]int64 // delay[i][0] is the newest, delay[i][M-1] the oldest

	out   fixed.Strobe
	stats Statistics
}

// New builds a stage in its reset state.
func New(config Config) (*Stage, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	width := config.RegisterWidth()
	s := &Stage{
		config: config,
		width:  width,
		drop:   width - config.ResultWidth(),
		integ:  make([]int64, config.Order),
		comb:   make([]int64, config.Order),
		delay:  make([][]int64, config.Order),
	}
	for i := range s.delay {
		s.delay[i] = make([]int64, config.DiffDelay)
	}

	return s, nil
}

// Config returns the stage configuration.
func (s *Stage) Config() Config {
	return s.config
}

// Width returns the integrator and comb register width.
func (s *Stage) Width() uint {
	return s.width
}

// OutputWidth returns the emitted sample width.
func (s *Stage) OutputWidth() uint {
	return s.width - s.drop
}

// Stats returns the activity counters.
func (s *Stage) Stats() Statistics {
	return s.stats
}

// Output returns the output register.
func (s *Stage) Output() fixed.Strobe {
	return s.out
}

// Integrators returns a copy of the integrator registers.
func (s *Stage) Integrators() []int64 {
	return append([]int64(nil), s.integ...)
}

// Combs returns a copy of the comb output registers.
func (s *Stage) Combs() []int64 {
	return append([]int64(nil), s.comb...)
}

// Count returns the decimation counter.
func (s *Stage) Count() int {
	return s.count
}

// Tick advances the stage by one clock edge and returns the output register
// after the edge.
func (s *Stage) Tick(in fixed.Strobe) fixed.Strobe {
	s.stats.Cycles++

	// The comb section reads the decimated register latched on the previous
	// edge, so it runs before the integrators overwrite it.
	out := fixed.Strobe{}
	if s.decimValid {
		s.tickCombs()
		out = fixed.Valid(fixed.Truncate(s.comb[len(s.comb)-1], s.drop))
		s.stats.Emitted++
	}

	decimValid := false
	if in.Valid {
		s.stats.Accepted++
		if s.count == s.config.Decimation-1 {
			s.decim = s.integ[len(s.integ)-1]
			decimValid = true
			s.count = 0
		} else {
			s.count++
		}
		s.tickIntegrators(fixed.Wrap(in.Value, s.config.InputWidth))
	}

	s.decimValid = decimValid
	s.out = out

	return out
}

// tickIntegrators walks the chain from the end so each register adds its
// predecessor's value from before the edge.
func (s *Stage) tickIntegrators(x int64) {
	for i := len(s.integ) - 1; i > 0; i-- {
		s.integ[i] = fixed.Wrap(s.integ[i]+s.integ[i-1], s.width)
	}
	s.integ[0] = fixed.Wrap(s.integ[0]+x, s.width)
}

func (s *Stage) tickCombs() {
	last := s.config.DiffDelay - 1
	for i := len(s.comb) - 1; i >= 0; i-- {
		in := s.decim
		if i > 0 {
			in = s.comb[i-1]
		}

		d := s.delay[i]
		s.comb[i] = fixed.Wrap(in-d[last], s.width)
		copy(d[1:], d[:last])
		d[0] = in
	}
}

// Reset clears every register and counter and deasserts the valid pulses.
func (s *Stage) Reset() {
	clear(s.integ)
	clear(s.comb)
	for _, d := range s.delay {
		clear(d)
	}
	s.count = 0
	s.decim = 0
	s.decimValid = false
	s.out = fixed.Strobe{}
	s.stats = Statistics{}
}
