// Command benchmark runs the decimator scenario harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv     Output results in CSV format (default: human-readable)
//	-json    Output results as a JSON report
//	-config  Path to a decimator configuration JSON file
//	-quick   Run only the core scenarios
//
// Example:
//
//	# Run all scenarios with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
//
// Every scenario runs the cycle-level pipeline on the Akita engine and checks
// it against the functional model, the floating-point reference, and the
// latency model.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/dsmdec/benchmarks"
	"github.com/sarchlab/dsmdec/config"
)

func main() {
	// Parse flags
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results as a JSON report")
	configPath := flag.String("config", "", "Path to decimator configuration JSON file")
	quick := flag.Bool("quick", false, "Run only the core scenarios")
	flag.Parse()

	// Configure harness
	hc := benchmarks.DefaultConfig()
	hc.Output = os.Stdout
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		hc.Decimator = cfg
	}

	// Create harness and add scenarios
	harness := benchmarks.NewHarness(hc)
	if *quick {
		harness.AddBenchmarks(benchmarks.GetCoreScenarios())
	} else {
		harness.AddBenchmarks(benchmarks.GetScenarios())
	}

	// Print configuration
	if !*csvOutput && !*jsonOutput {
		fmt.Println("Decimator Scenario Harness")
		fmt.Println("==========================")
		fmt.Printf("Clock: %.0f Hz\n", hc.Decimator.ClockHz)
		fmt.Printf("CIC: N=%d R=%d M=%d\n",
			hc.Decimator.CIC.Order, hc.Decimator.CIC.Decimation, hc.Decimator.CIC.DiffDelay)
		fmt.Println("")
	}

	// Run scenarios
	results := harness.RunAll()

	// Output results
	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	for _, r := range results {
		if r.Err != "" || !r.MatchesFunctional || r.Overruns > 0 {
			os.Exit(1)
		}
	}
}
