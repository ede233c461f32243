// Package main provides the command-line front end of the decimator.
//
// It reads a modulator stream, runs it through the decimation chain, and
// writes the decimated samples as text, WAV, or both.
//
// Usage:
//
//	dsmdec [options] <input>
//
// By default the functional model is used. With -timing the cycle-level
// pipeline runs on the Akita engine and a timing report is printed.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/dsmdec/analysis"
	"github.com/sarchlab/dsmdec/config"
	"github.com/sarchlab/dsmdec/emu"
	"github.com/sarchlab/dsmdec/loader"
	"github.com/sarchlab/dsmdec/timing/core"
	"github.com/sarchlab/dsmdec/timing/pipeline"
)

type options struct {
	timing     bool
	configPath string
	format     string
	spacing    int
	spacingSet bool
	outPath    string
	wavPath    string
	wavDepth   int
	verbose    bool
	logLevel   string
	input      string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("dsmdec", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.BoolVar(&o.timing, "timing", false, "Run the cycle-level pipeline")
	fs.StringVar(&o.configPath, "config", "", "Path to decimator configuration JSON file")
	fs.StringVar(&o.format, "format", "", "Input format: text, bits, or wav (default: from extension)")
	fs.IntVar(&o.spacing, "spacing", 1, "Cycles between input samples in timing mode")
	fs.StringVar(&o.outPath, "o", "-", "Text output file; - writes to stdout in functional mode, empty disables")
	fs.StringVar(&o.wavPath, "wav", "", "Write the output as a WAV file, scaled to the chain's DC full scale")
	fs.IntVar(&o.wavDepth, "wav-depth", 32, "WAV bit depth: 16, 24, or 32")
	fs.BoolVar(&o.verbose, "v", false, "Verbose output")
	fs.StringVar(&o.logLevel, "log-level", "warn", "Log level: debug, info, warn, or error")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: dsmdec [options] <input>\n")
		_, _ = fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return nil, errors.New("missing input file")
	}
	o.input = fs.Arg(0)
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "spacing" {
			o.spacingSet = true
		}
	})

	return o, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return 1
	}

	level := o.logLevel
	if o.verbose && level == "warn" {
		level = "info"
	}
	if err := InitLogger(stderr, level); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if err := decimate(o, stdout); err != nil {
		logger.Error("decimation failed", "err", err)
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func decimate(o *options, stdout io.Writer) error {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}

	format := loader.DetectFormat(o.input)
	if o.format != "" {
		if format, err = loader.ParseFormat(o.format); err != nil {
			return err
		}
	}

	stream, err := loader.Load(o.input, format, cfg.CIC.InputWidth)
	if err != nil {
		return err
	}
	logger.Info("loaded input",
		"path", o.input,
		"format", stream.Format.String(),
		"samples", len(stream.Samples))

	if o.spacingSet && !o.timing {
		logger.Warn("-spacing only applies in timing mode; ignoring", "spacing", o.spacing)
	}

	var res *result
	if o.timing {
		res, err = runTiming(cfg, stream.Samples, o.spacing, stdout)
	} else {
		res, err = runEmulation(cfg, stream.Samples)
	}
	if err != nil {
		return err
	}
	out := res.samples

	rate := cfg.OutputRate(res.decimation)
	logger.Info("decimated", "outputs", len(out), "rate_hz", rate)

	if o.outPath == "-" && !o.timing {
		if err := loader.WriteText(stdout, out); err != nil {
			return err
		}
	} else if o.outPath != "" && o.outPath != "-" {
		if err := writeTextFile(o.outPath, out); err != nil {
			return err
		}
	}

	if o.wavPath != "" {
		width, err := signalWidth(cfg, res.width)
		if err != nil {
			return err
		}
		if err := writeWAVFile(o.wavPath, out, int(rate), o.wavDepth, width); err != nil {
			return err
		}
		logger.Info("wrote WAV", "path", o.wavPath, "bit_depth", o.wavDepth, "signal_width", width)
	}

	return nil
}

// result is the decimated output of either model.
type result struct {
	samples    []int64
	width      uint
	decimation int
}

// runEmulation runs the samples through the functional model.
func runEmulation(cfg *config.Config, samples []int64) (*result, error) {
	e, err := emu.NewEmulator(cfg)
	if err != nil {
		return nil, err
	}
	out, err := e.Run(samples)
	if err != nil {
		return nil, err
	}
	return &result{
		samples:    out,
		width:      cfg.Halfband2.OutputWidth,
		decimation: e.Decimation(),
	}, nil
}

// runTiming runs the samples through the cycle-level pipeline and prints a
// timing report.
func runTiming(
	cfg *config.Config,
	samples []int64,
	spacing int,
	report io.Writer,
) (*result, error) {
	pipe, err := pipeline.New(cfg, pipeline.WithInputSpacing(spacing))
	if err != nil {
		return nil, err
	}

	sink := &core.SliceSink{}
	stats, err := core.Run(pipe, core.NewSliceSource(samples, spacing), sink,
		sim.Freq(cfg.ClockHz), core.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	table := pipe.LatencyTable()
	_, _ = fmt.Fprintf(report, "Total Cycles: %d\n", stats.Cycles)
	_, _ = fmt.Fprintf(report, "Inputs: %d\n", stats.Inputs)
	_, _ = fmt.Fprintf(report, "Outputs: %d\n", stats.Outputs)
	_, _ = fmt.Fprintf(report, "Overruns: %d\n", stats.Overruns)
	if latency, ok := pipe.Stats().StartupLatency(); ok {
		_, _ = fmt.Fprintf(report, "Startup Latency: %d cycles (model %d)\n",
			latency, table.StartupLatency())
	}
	_, _ = fmt.Fprintf(report, "\n")
	_, _ = fmt.Fprintf(report, "Stages:\n")
	for _, e := range table.Entries() {
		_, _ = fmt.Fprintf(report, "  %-13s /%d  spacing %4d  busy %3d  headroom %4d\n",
			e.Name, e.Decimation, e.InputSpacing, e.Required, e.Headroom)
	}

	return &result{
		samples:    sink.Samples,
		width:      pipe.OutputWidth(),
		decimation: pipe.Decimation(),
	}, nil
}

// signalWidth is the width a full-scale DC input reaches at the output,
// capped at the output register width.
func signalWidth(cfg *config.Config, outputWidth uint) (uint, error) {
	pipe, err := pipeline.New(cfg)
	if err != nil {
		return 0, err
	}
	return min(analysis.NewReference(pipe).SignalWidth(cfg.CIC.InputWidth), outputWidth), nil
}

func writeTextFile(path string, samples []int64) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	if err := loader.WriteText(f, samples); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "failed to close output file")
}

func writeWAVFile(path string, samples []int64, rate, depth int, width uint) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create WAV file")
	}
	if err := loader.WriteWAV(f, samples, rate, depth, width); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "failed to close WAV file")
}
