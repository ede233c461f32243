// Package core drives the decimation pipeline from an Akita simulation
// engine. It wraps the pipeline as a ticking component clocked at the
// modulator rate and moves samples between a Source and a Sink.
package core

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/dsmdec/fixed"
	"github.com/sarchlab/dsmdec/timing/pipeline"
)

// Source supplies the modulator input, one strobe per cycle. It returns
// false once the input is exhausted.
type Source interface {
	Next() (fixed.Strobe, bool)
}

// Sink receives every valid output sample.
type Sink interface {
	Accept(cycle uint64, value int64)
}

// Stats holds run statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Inputs is the number of valid input samples consumed.
	Inputs uint64
	// Outputs is the number of output samples delivered to the sink.
	Outputs uint64
	// Overruns is the number of samples dropped by busy MAC stages.
	Overruns uint64
	// DrainCycles is the number of idle cycles run after the source ended.
	DrainCycles uint64
}

// Option is a functional option for configuring the Core.
type Option func(*Core)

// WithLogger sets the logger used for run progress.
func WithLogger(l *slog.Logger) Option {
	return func(c *Core) {
		c.logger = l
	}
}

// WithMaxCycles stops the run after the given number of cycles.
// A value of 0 means no limit.
func WithMaxCycles(n uint64) Option {
	return func(c *Core) {
		c.maxCycles = n
	}
}

// Core represents the decimator as a ticking component.
type Core struct {
	*sim.TickingComponent

	// Pipeline is the underlying cycle-level decimation chain.
	Pipeline *pipeline.Pipeline

	source Source
	sink   Sink
	logger *slog.Logger

	maxCycles uint64
	exhausted bool
	drainLeft int
	stats     Stats
}

// NewCore creates a Core registered with engine and clocked at freq.
func NewCore(
	name string,
	engine sim.Engine,
	freq sim.Freq,
	p *pipeline.Pipeline,
	source Source,
	sink Sink,
	opts ...Option,
) *Core {
	c := &Core{
		Pipeline: p,
		source:   source,
		sink:     sink,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.TickingComponent = sim.NewTickingComponent(name, engine, freq, c)

	return c
}

// Tick executes one pipeline cycle. It returns false once the source is
// exhausted and the pipeline has drained, which stops the component.
func (c *Core) Tick() bool {
	if c.maxCycles > 0 && c.stats.Cycles >= c.maxCycles {
		return false
	}

	in := fixed.Strobe{}
	if !c.exhausted {
		var ok bool
		in, ok = c.source.Next()
		if !ok {
			c.exhausted = true
			c.drainLeft = c.Pipeline.DrainCycles()
			c.logger.Debug("source exhausted",
				"component", c.Name(),
				"cycle", c.stats.Cycles,
				"inputs", c.stats.Inputs)
		}
	}

	if c.exhausted {
		if c.drainLeft == 0 {
			return false
		}
		c.drainLeft--
		c.stats.DrainCycles++
		in = fixed.Strobe{}
	}

	cycle := c.stats.Cycles
	c.stats.Cycles++
	if in.Valid {
		c.stats.Inputs++
	}

	out := c.Pipeline.Tick(in)
	if out.Valid {
		c.stats.Outputs++
		c.sink.Accept(cycle, out.Value)
	}

	return true
}

// Halted returns true once the source is exhausted and drained.
func (c *Core) Halted() bool {
	return c.exhausted && c.drainLeft == 0
}

// Stats returns run statistics for the core.
func (c *Core) Stats() Stats {
	s := c.stats
	s.Overruns = c.Pipeline.Stats().Overruns
	return s
}

// Reset clears the core and pipeline state. The source is not rewound.
func (c *Core) Reset() {
	c.Pipeline.Reset()
	c.exhausted = false
	c.drainLeft = 0
	c.stats = Stats{}
}

// Run clocks p from source into sink on a fresh serial engine until the
// source is exhausted and the pipeline has drained.
func Run(
	p *pipeline.Pipeline,
	source Source,
	sink Sink,
	freq sim.Freq,
	opts ...Option,
) (Stats, error) {
	engine := sim.NewSerialEngine()
	c := NewCore("Decimator", engine, freq, p, source, sink, opts...)

	c.TickLater()
	if err := engine.Run(); err != nil {
		return c.Stats(), errors.Wrap(err, "simulation failed")
	}

	stats := c.Stats()
	c.logger.Info("run complete",
		"component", c.Name(),
		"cycles", stats.Cycles,
		"inputs", stats.Inputs,
		"outputs", stats.Outputs,
		"overruns", stats.Overruns)

	return stats, nil
}
