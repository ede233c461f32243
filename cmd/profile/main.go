// Package main provides a profiling wrapper for the decimator to identify
// performance bottlenecks in the functional and cycle-level models.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/dsmdec/config"
	"github.com/sarchlab/dsmdec/emu"
	"github.com/sarchlab/dsmdec/stimulus"
	"github.com/sarchlab/dsmdec/timing/core"
	"github.com/sarchlab/dsmdec/timing/pipeline"
)

var (
	timing     = flag.Bool("timing", false, "Profile the cycle-level pipeline on the Akita engine")
	direct     = flag.Bool("direct", false, "Profile the cycle-level pipeline without the engine")
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	duration   = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	samples    = flag.Int("samples", 128*8192, "number of modulator samples to process")
)

func main() {
	flag.Parse()

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	cfg := config.Default()
	input := stimulus.Sine(stimulus.NewModulator(cfg.CIC.InputWidth),
		*samples, 1000, cfg.ClockHz, 0.5)
	fmt.Printf("Generated %d samples\n", len(input))

	start := time.Now()

	// Set timeout
	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
		os.Exit(2)
	}()

	var outputs int
	var err error
	switch {
	case *timing:
		outputs, err = runTimingProfile(cfg, input)
	case *direct:
		outputs, err = runDirectProfile(cfg, input)
	default:
		outputs, err = runEmulationProfile(cfg, input)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Outputs produced: %d\n", outputs)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if len(input) > 0 {
		fmt.Printf("Samples/second: %.0f\n", float64(len(input))/elapsed.Seconds())
	}
}

// runEmulationProfile runs the functional model.
func runEmulationProfile(cfg *config.Config, input []int64) (int, error) {
	e, err := emu.NewEmulator(cfg)
	if err != nil {
		return 0, err
	}
	out, err := e.Run(input)
	return len(out), err
}

// runDirectProfile ticks the pipeline from a plain loop.
func runDirectProfile(cfg *config.Config, input []int64) (int, error) {
	pipe, err := pipeline.New(cfg)
	if err != nil {
		return 0, err
	}
	out := append(pipe.Process(input), pipe.Flush()...)
	return len(out), nil
}

// runTimingProfile clocks the pipeline from the Akita engine.
func runTimingProfile(cfg *config.Config, input []int64) (int, error) {
	pipe, err := pipeline.New(cfg)
	if err != nil {
		return 0, err
	}
	sink := &core.SliceSink{}
	_, err = core.Run(pipe, core.NewSliceSource(input, 1), sink, sim.Freq(cfg.ClockHz))
	return len(sink.Samples), err
}
