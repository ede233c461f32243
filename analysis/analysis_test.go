package analysis_test

import (
	"math"
	"math/rand"

	"github.com/mjibson/go-dsp/fft"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dsmdec/analysis"
	"github.com/sarchlab/dsmdec/config"
	"github.com/sarchlab/dsmdec/emu"
	"github.com/sarchlab/dsmdec/stimulus"
	"github.com/sarchlab/dsmdec/timing/pipeline"
)

var _ = Describe("Convolve", func() {
	It("should compute the full linear convolution", func() {
		Expect(analysis.Convolve([]float64{1, 2}, []float64{1, 1})).
			To(Equal([]float64{1, 3, 2}))
	})

	It("should return nil for an empty operand", func() {
		Expect(analysis.Convolve(nil, []float64{1})).To(BeNil())
	})

	It("should match the FFT convolution", func() {
		a := []float64{5, -20, -32, 99, 162, -360}
		b := []float64{-1024, 0, 9216, 16384, 9216, 0, -1024}
		n := len(a) + len(b) - 1

		pad := func(x []float64) []complex128 {
			out := make([]complex128, n)
			for i, v := range x {
				out[i] = complex(v, 0)
			}
			return out
		}
		circ := fft.Convolve(pad(a), pad(b))

		direct := analysis.Convolve(a, b)
		Expect(direct).To(HaveLen(n))
		for i := range direct {
			Expect(direct[i]).To(Equal(math.Trunc(direct[i])))
			Expect(direct[i]).To(BeNumerically("~", real(circ[i]), 1e-4))
		}
	})
})

var _ = Describe("Reference", func() {
	var (
		p   *pipeline.Pipeline
		ref *analysis.Reference
	)

	BeforeEach(func() {
		var err error
		p, err = pipeline.New(config.Default())
		Expect(err).NotTo(HaveOccurred())
		ref = analysis.NewReference(p)
	})

	It("should compose every stage at its own rate", func() {
		// CIC 5*15+1, then the upsampled FIR and halfbands.
		Expect(ref.Response()).To(HaveLen(76 + 25*16 + 6*32 + 6*64))
	})

	It("should have the chain DC gain", func() {
		Expect(ref.DCGain()).To(BeNumerically("~", 16384, 1e-6))
		Expect(ref.GainAt(0, 6.144e6)).To(BeNumerically("~", 16384, 1e-6))
	})

	It("should size the signal for a full-scale input", func() {
		// 8 * 16384 = 2^17 needs 18 signed bits.
		Expect(ref.SignalWidth(4)).To(Equal(uint(18)))
		Expect(ref.SignalWidth(5)).To(Equal(uint(19)))
	})

	It("should keep the passband flat", func() {
		droop := ref.GainAt(1000, 6.144e6) / ref.DCGain()
		Expect(analysis.DB(droop)).To(BeNumerically("~", 0, 0.01))
	})

	It("should attenuate above the output band", func() {
		Expect(analysis.DB(ref.GainAt(40000, 6.144e6) / ref.DCGain())).
			To(BeNumerically("<", -30))
		Expect(analysis.DB(ref.GainAt(100000, 6.144e6) / ref.DCGain())).
			To(BeNumerically("<", -90))
	})

	It("should agree with the direct response at DC", func() {
		resp := ref.FrequencyResponse(4096)
		Expect(resp).To(HaveLen(2049))
		Expect(resp[0]).To(BeNumerically("~", ref.DCGain(), 1e-6))
	})

	It("should bound the fixed-point outputs", func() {
		rng := rand.New(rand.NewSource(11))
		in := make([]int64, 128*30)
		for i := range in {
			in[i] = rng.Int63n(16) - 8
		}

		out := append(p.Process(in), p.Flush()...)
		want := ref.Filter(in)
		Expect(out).To(HaveLen(len(want)))
		for k := range out {
			Expect(float64(out[k])).To(BeNumerically("~", want[k], 2))
		}
	})
})

var _ = Describe("Spectrum", func() {
	It("should return nothing for no samples", func() {
		Expect(analysis.Spectrum(nil)).To(BeNil())
	})

	It("should find a clean tone", func() {
		const n = 4096
		x := make([]float64, n)
		for i := range x {
			x[i] = 1000 * math.Sin(2*math.Pi*100*float64(i)/n)
		}

		tone := analysis.MeasureTone(x, 3)
		Expect(tone.Bin).To(Equal(100))
		Expect(tone.Frequency(n, n)).To(Equal(100.0))
		Expect(tone.SNR()).To(BeNumerically(">", 100))
	})

	It("should keep a bin-centered tone within its neighbours", func() {
		const n = 1024
		x := make([]float64, n)
		for i := range x {
			x[i] = math.Cos(2 * math.Pi * 40 * float64(i) / n)
		}

		mags := analysis.Spectrum(x)
		Expect(mags).To(HaveLen(n/2 + 1))
		Expect(mags[40]).To(BeNumerically("~", n/4, 1e-6))
		Expect(mags[39]).To(BeNumerically("~", n/8, 1e-6))
		Expect(mags[41]).To(BeNumerically("~", n/8, 1e-6))
		for k, m := range mags {
			if k < 39 || k > 41 {
				Expect(m).To(BeNumerically("<", 1e-9), "bin %d", k)
			}
		}
	})

	It("should measure the decimated modulator output", func() {
		cfg := config.Default()
		e, err := emu.NewEmulator(cfg)
		Expect(err).NotTo(HaveOccurred())

		// 3 kHz lands on bin 64 of a 1024-point transform at 48 kHz.
		in := stimulus.Sine(stimulus.NewModulator(4), 128*(1024+16), 3000, cfg.ClockHz, 0.5)
		out, err := e.Run(in)
		Expect(err).NotTo(HaveOccurred())

		tone := analysis.MeasureTone(analysis.ToFloat(out[16:]), 3)
		Expect(tone.Bin).To(Equal(64))
		Expect(tone.Frequency(cfg.OutputRate(128), 1024)).To(Equal(3000.0))
		Expect(tone.SNR()).To(BeNumerically(">", 95))
	})
})
