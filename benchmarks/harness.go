// Package benchmarks provides the scenario harness used to characterize the
// decimator: timing against the latency model, agreement with the functional
// and floating-point references, and tone measurements.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"time"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/dsmdec/analysis"
	"github.com/sarchlab/dsmdec/config"
	"github.com/sarchlab/dsmdec/emu"
	"github.com/sarchlab/dsmdec/timing/core"
	"github.com/sarchlab/dsmdec/timing/mac"
	"github.com/sarchlab/dsmdec/timing/pipeline"
)

// BenchmarkResult holds the results for a single scenario run.
type BenchmarkResult struct {
	// Name identifies the scenario
	Name string `json:"name"`

	// Description explains what the scenario exercises
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count including the drain
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// Inputs and Outputs count the valid samples at each end of the chain
	Inputs  uint64 `json:"inputs"`
	Outputs uint64 `json:"outputs"`

	// StartupLatency is the measured cycles from first input to first output
	StartupLatency uint64 `json:"startup_latency"`

	// ExpectedLatency is the latency model's prediction
	ExpectedLatency uint64 `json:"expected_latency"`

	// Overruns counts samples dropped by busy MAC stages
	Overruns uint64 `json:"overruns"`

	// Multiplies is the total number of MAC steps performed
	Multiplies uint64 `json:"multiplies"`

	// MatchesFunctional is true when the functional model produced the same
	// output sequence
	MatchesFunctional bool `json:"matches_functional"`

	// MaxReferenceError is the largest deviation from the floating-point
	// reference, in output LSBs
	MaxReferenceError float64 `json:"max_reference_error"`

	// SNR is the measured tone SNR in dB, for tone scenarios
	SNR float64 `json:"snr_db,omitempty"`

	// ToneHz is the measured tone frequency, for tone scenarios
	ToneHz float64 `json:"tone_hz,omitempty"`

	// Err is set when the scenario could not run
	Err string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single input scenario.
type Benchmark struct {
	// Name identifies the scenario
	Name string

	// Description explains what the scenario exercises
	Description string

	// Input generates the modulator samples for a clock rate
	Input func(clockHz float64) []int64

	// InputSpacing is the number of cycles between valid input samples.
	// Zero means every cycle.
	InputSpacing int

	// ToneSkip is the number of settling outputs discarded before a tone
	// measurement. Zero disables the measurement.
	ToneSkip int
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Decimator is the pipeline configuration (default: config.Default())
	Decimator *config.Config

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Decimator: config.Default(),
		Output:    os.Stdout,
		Verbose:   false,
	}
}

// Harness runs scenarios and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(hc HarnessConfig) *Harness {
	if hc.Output == nil {
		hc.Output = os.Stdout
	}
	if hc.Decimator == nil {
		hc.Decimator = config.Default()
	}
	return &Harness{
		config:     hc,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a scenario to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple scenarios to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all scenarios and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single scenario.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	cfg := h.config.Decimator
	spacing := bench.InputSpacing
	if spacing < 1 {
		spacing = 1
	}

	pipe, err := pipeline.New(cfg, pipeline.WithInputSpacing(spacing))
	if err != nil {
		result.Err = err.Error()
		return result
	}
	input := bench.Input(cfg.ClockHz)

	// Run simulation and measure time
	sink := &core.SliceSink{}
	start := time.Now()
	stats, err := core.Run(pipe, core.NewSliceSource(input, spacing), sink,
		sim.Freq(cfg.ClockHz))
	result.WallTime = time.Since(start)
	if err != nil {
		result.Err = err.Error()
		return result
	}

	// Collect statistics
	pipeStats := pipe.Stats()
	result.SimulatedCycles = stats.Cycles
	result.Inputs = stats.Inputs
	result.Outputs = stats.Outputs
	result.Overruns = stats.Overruns
	result.ExpectedLatency = uint64(pipe.LatencyTable().StartupLatency())
	if latency, ok := pipeStats.StartupLatency(); ok {
		result.StartupLatency = latency
	}
	for _, m := range []*mac.Stage{pipe.Compensation(), pipe.Halfband1(), pipe.Halfband2()} {
		result.Multiplies += m.Stats().Multiplies
	}

	// Compare against the functional model
	e, err := emu.NewEmulator(cfg)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	functional, err := e.Run(input)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	result.MatchesFunctional = slices.Equal(functional, sink.Samples)

	// Compare against the floating-point reference
	ref := analysis.NewReference(pipe).Filter(input)
	for k := 0; k < len(ref) && k < len(sink.Samples); k++ {
		result.MaxReferenceError = math.Max(result.MaxReferenceError,
			math.Abs(float64(sink.Samples[k])-ref[k]))
	}

	if bench.ToneSkip > 0 && len(sink.Samples) > bench.ToneSkip {
		tail := sink.Samples[bench.ToneSkip:]
		tone := analysis.MeasureTone(analysis.ToFloat(tail), 3)
		result.SNR = tone.SNR()
		result.ToneHz = tone.Frequency(cfg.OutputRate(pipe.Decimation()), len(tail))
	}

	if h.config.Verbose {
		_, _ = fmt.Fprintf(h.config.Output, "ran %s: %d cycles, %d outputs\n",
			bench.Name, result.SimulatedCycles, result.Outputs)
	}

	return result
}

// PrintResults outputs results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Decimator Scenario Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Scenario: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		if r.Err != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error: %s\n", r.Err)
			_, _ = fmt.Fprintln(h.config.Output, "")
			continue
		}
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:  %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Inputs / Outputs:  %d / %d\n", r.Inputs, r.Outputs)
		_, _ = fmt.Fprintf(h.config.Output, "  Startup Latency:   %d (model %d)\n",
			r.StartupLatency, r.ExpectedLatency)
		_, _ = fmt.Fprintf(h.config.Output, "  Overruns:          %d\n", r.Overruns)
		_, _ = fmt.Fprintf(h.config.Output, "  Multiplies:        %d\n", r.Multiplies)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Accuracy ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Matches Functional: %v\n", r.MatchesFunctional)
		_, _ = fmt.Fprintf(h.config.Output, "  Max Ref Error:      %.3f LSB\n", r.MaxReferenceError)
		if r.ToneHz > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "  Tone:               %.1f Hz\n", r.ToneHz)
			_, _ = fmt.Fprintf(h.config.Output, "  SNR:                %.1f dB\n", r.SNR)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,inputs,outputs,latency,expected_latency,overruns,multiplies,matches,max_ref_error,snr_db")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%d,%d,%d,%d,%v,%.3f,%.1f\n",
			r.Name,
			r.SimulatedCycles,
			r.Inputs,
			r.Outputs,
			r.StartupLatency,
			r.ExpectedLatency,
			r.Overruns,
			r.Multiplies,
			r.MatchesFunctional,
			r.MaxReferenceError,
			r.SNR,
		)
	}
}

// BenchmarkReport is the JSON document written by PrintJSON.
type BenchmarkReport struct {
	Metadata ReportMetadata    `json:"metadata"`
	Results  []BenchmarkResult `json:"results"`
	Summary  ReportSummary     `json:"summary"`
}

// ReportMetadata describes the run.
type ReportMetadata struct {
	Timestamp string  `json:"timestamp"`
	ClockHz   float64 `json:"clock_hz"`
}

// ReportSummary aggregates all scenarios.
type ReportSummary struct {
	// TotalBenchmarks is the number of scenarios run
	TotalBenchmarks int `json:"total_benchmarks"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// AllMatch is true when every scenario matched the functional model
	AllMatch bool `json:"all_match"`

	// TotalWallTime is the total wall clock time for all scenarios
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	summary := ReportSummary{
		TotalBenchmarks: len(results),
		AllMatch:        true,
	}
	for _, r := range results {
		summary.TotalCycles += r.SimulatedCycles
		summary.TotalWallTime += r.WallTime
		if !r.MatchesFunctional {
			summary.AllMatch = false
		}
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			ClockHz:   h.config.Decimator.ClockHz,
		},
		Results: results,
		Summary: summary,
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
