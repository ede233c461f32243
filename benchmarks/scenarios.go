package benchmarks

import (
	"math/rand"

	"github.com/sarchlab/dsmdec/stimulus"
)

// modulatorWidth matches the default CIC input width.
const modulatorWidth = 4

// GetScenarios returns the standard set of input scenarios.
func GetScenarios() []Benchmark {
	return []Benchmark{
		impulseResponse(),
		fullScaleStep(),
		alternatingRails(),
		randomWords(),
		tone1k(),
		tone3k(),
		sparseInput(),
	}
}

// GetCoreScenarios returns a minimal set for quick validation.
func GetCoreScenarios() []Benchmark {
	return []Benchmark{
		fullScaleStep(),
		alternatingRails(),
		tone3k(),
	}
}

// 1. Impulse - one full-scale sample, then silence
func impulseResponse() Benchmark {
	return Benchmark{
		Name:        "impulse",
		Description: "single -8 sample - exposes the composed impulse response",
		Input: func(float64) []int64 {
			return stimulus.Impulse(128*16, 0, -8)
		},
	}
}

// 2. Step - the most positive word held, the DC gain
func fullScaleStep() Benchmark {
	return Benchmark{
		Name:        "step",
		Description: "constant +7 - measures DC gain and settling",
		Input: func(float64) []int64 {
			return stimulus.Constant(128*32, 7)
		},
	}
}

// 3. Alternating - the 2048-sample +7/-8 check
func alternatingRails() Benchmark {
	return Benchmark{
		Name:        "alternating",
		Description: "2048 samples toggling +7/-8 - output count and Nyquist rejection",
		Input: func(float64) []int64 {
			return stimulus.Alternating(2048, 7, -8)
		},
	}
}

// 4. Random - uniformly distributed modulator words
func randomWords() Benchmark {
	return Benchmark{
		Name:        "random",
		Description: "uniform random 4-bit words - worst-case rounding behaviour",
		Input: func(float64) []int64 {
			rng := rand.New(rand.NewSource(1))
			out := make([]int64, 128*64)
			for i := range out {
				out[i] = rng.Int63n(16) - 8
			}
			return out
		},
	}
}

// 5. 1 kHz tone through a second-order modulator
func tone1k() Benchmark {
	return Benchmark{
		Name:        "tone_1k",
		Description: "1 kHz sine at half scale through a 4-bit modulator",
		Input: func(clockHz float64) []int64 {
			m := stimulus.NewModulator(modulatorWidth)
			return stimulus.Sine(m, 128*(1024+16), 1000, clockHz, 0.5)
		},
		ToneSkip: 16,
	}
}

// 6. 3 kHz tone, bin-centred for a 1024-point measurement at 48 kHz
func tone3k() Benchmark {
	return Benchmark{
		Name:        "tone_3k",
		Description: "3 kHz sine at half scale through a 4-bit modulator",
		Input: func(clockHz float64) []int64 {
			m := stimulus.NewModulator(modulatorWidth)
			return stimulus.Sine(m, 128*(1024+16), 3000, clockHz, 0.5)
		},
		ToneSkip: 16,
	}
}

// 7. Sparse - a valid sample every other cycle
func sparseInput() Benchmark {
	return Benchmark{
		Name:        "sparse",
		Description: "input valid every second cycle - latency scales with spacing",
		Input: func(float64) []int64 {
			return stimulus.Constant(128*8, 3)
		},
		InputSpacing: 2,
	}
}
