package cic_test

import (
	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dsmdec/fixed"
	"github.com/sarchlab/dsmdec/timing/cic"
)

// boxcarPower returns the full-rate impulse response of a CIC: a length
// r*m boxcar convolved with itself n times.
func boxcarPower(n, r, m int) []int64 {
	h := []int64{1}
	for k := 0; k < n; k++ {
		next := make([]int64, len(h)+r*m-1)
		for i, v := range h {
			for j := 0; j < r*m; j++ {
				next[i+j] += v
			}
		}
		h = next
	}
	return h
}

func mustNew(config cic.Config) *cic.Stage {
	s, err := cic.New(config)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("CIC", func() {
	var s *cic.Stage

	BeforeEach(func() {
		s = mustNew(cic.DefaultConfig())
	})

	Describe("Config", func() {
		It("should size registers from the bit-growth formula", func() {
			Expect(s.Width()).To(Equal(uint(24)))
			Expect(s.OutputWidth()).To(Equal(uint(24)))
		})

		It("should reject a register narrower than the bit-growth bound", func() {
			config := cic.DefaultConfig()
			config.Width = 23
			_, err := cic.New(config)
			Expect(errors.Is(err, fixed.ErrBitGrowth)).To(BeTrue())
		})

		It("should accept a wider register", func() {
			config := cic.DefaultConfig()
			config.Width = 30
			Expect(mustNew(config).Width()).To(Equal(uint(30)))
		})

		It("should reject registers wider than the datapath", func() {
			config := cic.DefaultConfig()
			config.InputWidth = 50
			_, err := cic.New(config)
			Expect(errors.Is(err, fixed.ErrBitGrowth)).To(BeTrue())
		})

		It("should reject invalid parameters", func() {
			for _, mutate := range []func(*cic.Config){
				func(c *cic.Config) { c.Order = 0 },
				func(c *cic.Config) { c.Decimation = 1 },
				func(c *cic.Config) { c.DiffDelay = 0 },
				func(c *cic.Config) { c.InputWidth = 0 },
				func(c *cic.Config) { c.OutputWidth = 25 },
			} {
				config := cic.DefaultConfig()
				mutate(&config)
				_, err := cic.New(config)
				Expect(err).To(HaveOccurred())
			}
		})
	})

	Describe("Tick", func() {
		It("should stay idle without input", func() {
			for i := 0; i < 100; i++ {
				Expect(s.Tick(fixed.Strobe{}).Valid).To(BeFalse())
			}
			Expect(s.Integrators()).To(Equal([]int64{0, 0, 0, 0, 0}))
			Expect(s.Count()).To(Equal(0))
		})

		It("should ignore the value of invalid inputs", func() {
			for i := 0; i < 40; i++ {
				s.Tick(fixed.Strobe{Value: 7})
			}
			Expect(s.Integrators()).To(Equal([]int64{0, 0, 0, 0, 0}))
		})

		It("should emit once every R accepted inputs", func() {
			var cycles []int
			for i := 0; i < 16*8; i++ {
				if s.Tick(fixed.Valid(3)).Valid {
					cycles = append(cycles, i)
				}
			}
			Expect(cycles).To(Equal([]int{16, 32, 48, 64, 80, 96, 112}))
			Expect(s.Stats().Accepted).To(Equal(uint64(128)))
			Expect(s.Stats().Emitted).To(Equal(uint64(7)))
		})

		It("should count only accepted inputs toward decimation", func() {
			emitted := 0
			for i := 0; i < 16*2*4; i++ {
				in := fixed.Strobe{}
				if i%2 == 0 {
					in = fixed.Valid(1)
				}
				if s.Tick(in).Valid {
					emitted++
				}
			}
			Expect(emitted).To(Equal(4))
			Expect(s.Stats().Accepted).To(Equal(uint64(64)))
		})

		It("should hold output valid for exactly one cycle", func() {
			var last fixed.Strobe
			for i := 0; i <= 16; i++ {
				last = s.Tick(fixed.Valid(1))
			}
			Expect(last.Valid).To(BeTrue())
			Expect(s.Tick(fixed.Valid(1)).Valid).To(BeFalse())
			Expect(s.Output().Valid).To(BeFalse())
		})

		It("should reach the DC gain (R*M)^N for constant input", func() {
			var last int64
			for i := 0; i < 16*12; i++ {
				if o := s.Tick(fixed.Valid(7)); o.Valid {
					last = o.Value
				}
			}
			Expect(last).To(Equal(int64(7 << 20)))
		})

		It("should handle the most negative input", func() {
			var last int64
			for i := 0; i < 16*12; i++ {
				if o := s.Tick(fixed.Valid(-8)); o.Valid {
					last = o.Value
				}
			}
			Expect(last).To(Equal(int64(-8 << 20)))
		})

		It("should sign-extend inputs from the input width", func() {
			var last int64
			for i := 0; i < 16*12; i++ {
				// 0xF is -1 as a 4-bit word.
				if o := s.Tick(fixed.Valid(0xF)); o.Valid {
					last = o.Value
				}
			}
			Expect(last).To(Equal(int64(-1 << 20)))
		})
	})

	Describe("Bit growth", func() {
		wideIntegrate := func(inputs []int64) []int64 {
			wide := make([]int64, 5)
			for _, x := range inputs {
				for i := len(wide) - 1; i > 0; i-- {
					wide[i] += wide[i-1]
				}
				wide[0] += x
			}
			return wide
		}

		It("should not wrap for constant maximum input over R*M cycles", func() {
			inputs := make([]int64, 16)
			for i := range inputs {
				inputs[i] = 7
				s.Tick(fixed.Valid(inputs[i]))
			}
			Expect(s.Integrators()).To(Equal(wideIntegrate(inputs)))
		})

		It("should not wrap for alternating maximum input over R*M cycles", func() {
			inputs := make([]int64, 16)
			for i := range inputs {
				inputs[i] = 7
				if i%2 == 1 {
					inputs[i] = -8
				}
				s.Tick(fixed.Valid(inputs[i]))
			}
			Expect(s.Integrators()).To(Equal(wideIntegrate(inputs)))
		})

		It("should produce exact output after integrators wrap", func() {
			// Long constant input drives the integrators far past 24 bits;
			// modular arithmetic keeps the comb output exact.
			var outs []int64
			for i := 0; i < 16*4000; i++ {
				if o := s.Tick(fixed.Valid(-8)); o.Valid {
					outs = append(outs, o.Value)
				}
			}
			Expect(outs[len(outs)-1]).To(Equal(int64(-8 << 20)))
			for _, v := range outs {
				Expect(fixed.Fits(v, s.Width())).To(BeTrue())
			}
		})
	})

	Describe("Impulse response", func() {
		// Output m for an impulse on input p is A*h[R*m + (R-2) - (N-1)(R+1) - p].
		check := func(n, r, m int) {
			config := cic.Config{Order: n, Decimation: r, DiffDelay: m, InputWidth: 4}
			h := boxcarPower(n, r, m)
			offset := (r - 2) - (n-1)*(r+1)
			const amplitude = 7

			for p := 0; p < r; p++ {
				stage := mustNew(config)
				var outs []int64
				for i := 0; i < r*(n*m+4); i++ {
					in := fixed.Valid(0)
					if i == p {
						in = fixed.Valid(amplitude)
					}
					if o := stage.Tick(in); o.Valid {
						outs = append(outs, o.Value)
					}
				}

				for k, y := range outs {
					idx := r*k + offset - p
					var want int64
					if idx >= 0 && idx < len(h) {
						want = amplitude * h[idx]
					}
					Expect(y).To(Equal(want), "phase %d output %d", p, k)
				}
			}
		}

		It("should reproduce the triangular response for N=2", func() {
			h := boxcarPower(2, 16, 1)
			Expect(h).To(HaveLen(31))
			Expect(h[15]).To(Equal(int64(16)))
			check(2, 16, 1)
		})

		It("should reproduce the fifth-order response", func() {
			check(5, 16, 1)
		})

		It("should honor the differential delay", func() {
			check(3, 16, 2)
		})
	})

	Describe("Output truncation", func() {
		It("should drop low-order bits toward negative infinity", func() {
			config := cic.DefaultConfig()
			config.OutputWidth = 20
			stage := mustNew(config)
			var last int64
			for i := 0; i < 16*12; i++ {
				if o := stage.Tick(fixed.Valid(-3)); o.Valid {
					last = o.Value
				}
			}
			Expect(stage.OutputWidth()).To(Equal(uint(20)))
			Expect(last).To(Equal(int64(-3 << 16)))
		})
	})

	Describe("Reset", func() {
		It("should clear every register and counter", func() {
			for i := 0; i < 37; i++ {
				s.Tick(fixed.Valid(5))
			}
			Expect(s.Count()).NotTo(BeZero())

			s.Reset()

			Expect(s.Integrators()).To(Equal([]int64{0, 0, 0, 0, 0}))
			Expect(s.Combs()).To(Equal([]int64{0, 0, 0, 0, 0}))
			Expect(s.Count()).To(Equal(0))
			Expect(s.Output().Valid).To(BeFalse())
			Expect(s.Stats()).To(Equal(cic.Statistics{}))
		})

		It("should reproduce identical output after reset", func() {
			run := func() []int64 {
				var outs []int64
				for i := 0; i < 16*20; i++ {
					if o := s.Tick(fixed.Valid(int64(i%16) - 8)); o.Valid {
						outs = append(outs, o.Value)
					}
				}
				return outs
			}

			first := run()
			s.Reset()
			Expect(run()).To(Equal(first))
		})
	})
})
