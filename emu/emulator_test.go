package emu_test

import (
	"bytes"
	"math/rand"
	"strings"

	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dsmdec/config"
	"github.com/sarchlab/dsmdec/emu"
	"github.com/sarchlab/dsmdec/fixed"
	"github.com/sarchlab/dsmdec/stimulus"
	"github.com/sarchlab/dsmdec/timing/pipeline"
)

func randomInput(seed int64, n int) []int64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int64, n)
	for i := range out {
		out[i] = rng.Int63n(16) - 8
	}
	return out
}

func timed(cfg *config.Config, in []int64) []int64 {
	p, err := pipeline.New(cfg)
	Expect(err).NotTo(HaveOccurred())
	return append(p.Process(in), p.Flush()...)
}

var _ = Describe("Emulator", func() {
	var (
		cfg *config.Config
		e   *emu.Emulator
	)

	BeforeEach(func() {
		cfg = config.Default()
		var err error
		e, err = emu.NewEmulator(cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewEmulator", func() {
		It("should report the total decimation", func() {
			Expect(e.Decimation()).To(Equal(128))
		})

		It("should reject accumulator growth beyond the datapath", func() {
			cfg.CIC.InputWidth = 30
			_, err := emu.NewEmulator(cfg)
			Expect(errors.Is(err, fixed.ErrBitGrowth)).To(BeTrue())
		})

		It("should reject an invalid configuration", func() {
			cfg.ClockHz = 0
			_, err := emu.NewEmulator(cfg)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Step", func() {
		It("should produce an output every 128 samples", func() {
			var at []uint64
			for _, x := range randomInput(1, 128*4) {
				if e.Step(x).Valid {
					at = append(at, e.SampleCount())
				}
			}
			Expect(at).To(Equal([]uint64{128, 256, 384, 512}))
			Expect(e.OutputCount()).To(Equal(uint64(4)))
		})

		It("should stop at the sample limit", func() {
			e, _ = emu.NewEmulator(cfg, emu.WithMaxSamples(10))
			out, err := e.Run(randomInput(2, 20))
			Expect(err).To(MatchError(emu.ErrSampleLimit))
			Expect(out).To(BeEmpty())
			Expect(e.SampleCount()).To(Equal(uint64(10)))
		})

		It("should trace every output", func() {
			var buf bytes.Buffer
			e, _ = emu.NewEmulator(cfg, emu.WithTrace(&buf))
			_, err := e.Run(stimulus.Constant(256, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.Split(strings.TrimSpace(buf.String()), "\n")).
				To(Equal([]string{"127 0", "255 0"}))
		})
	})

	Describe("Agreement with the cycle model", func() {
		It("should match for random input", func() {
			in := randomInput(3, 128*20+77)
			out, err := e.Run(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(20))
			Expect(out).To(Equal(timed(cfg, in)))
		})

		It("should match for a modulated sine", func() {
			in := stimulus.Sine(stimulus.NewModulator(4), 128*64, 1000, cfg.ClockHz, 0.5)
			out, err := e.Run(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(timed(cfg, in)))
		})

		It("should match for a narrowed CIC output", func() {
			cfg.CIC.OutputWidth = 20
			e, err := emu.NewEmulator(cfg)
			Expect(err).NotTo(HaveOccurred())

			in := randomInput(4, 128*12)
			out, err := e.Run(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(timed(cfg, in)))
		})

		It("should match for a longer comb delay", func() {
			cfg.CIC.DiffDelay = 2
			e, err := emu.NewEmulator(cfg)
			Expect(err).NotTo(HaveOccurred())

			in := randomInput(5, 128*12)
			out, err := e.Run(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(timed(cfg, in)))
		})
	})

	Describe("Reset", func() {
		It("should restart from a clean state", func() {
			in := randomInput(6, 128*5)
			first, _ := e.Run(in)

			e.Reset()
			Expect(e.SampleCount()).To(BeZero())
			second, _ := e.Run(in)
			Expect(second).To(Equal(first))
		})
	})
})
