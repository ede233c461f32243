package config_test

import (
	"go/ast"
	"go/doc"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dsmdec/config"
)

var _ = Describe("Config", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	Describe("Default", func() {
		It("should be valid", func() {
			Expect(config.Default().Validate()).To(Succeed())
		})

		It("should produce a 48 kHz output", func() {
			Expect(config.Default().OutputRate(128)).To(Equal(48000.0))
		})

		It("should use the reference CIC", func() {
			c := config.Default().CIC
			Expect(c.Order).To(Equal(5))
			Expect(c.Decimation).To(Equal(16))
			Expect(c.InputWidth).To(Equal(uint(4)))
			Expect(c.RegisterWidth()).To(Equal(uint(24)))
		})
	})

	Describe("Validate", func() {
		It("should require a positive clock", func() {
			c := config.Default()
			c.ClockHz = 0
			Expect(c.Validate()).NotTo(Succeed())
		})

		It("should require exactly one coefficient source", func() {
			c := config.Default()
			c.Halfband1.CoefficientFile = "hb.txt"
			Expect(c.Validate()).NotTo(Succeed())

			c = config.Default()
			c.Halfband1.Coefficients = nil
			Expect(c.Validate()).NotTo(Succeed())
		})

		It("should require widths", func() {
			c := config.Default()
			c.Compensation.CoefWidth = 0
			Expect(c.Validate()).NotTo(Succeed())

			c = config.Default()
			c.Halfband2.OutputWidth = 0
			Expect(c.Validate()).NotTo(Succeed())
		})

		It("should check the CIC parameters", func() {
			c := config.Default()
			c.CIC.Decimation = 1
			Expect(c.Validate()).NotTo(Succeed())
		})
	})

	Describe("Save and Load", func() {
		It("should round-trip", func() {
			path := filepath.Join(tempDir, "dsm.json")
			c := config.Default()
			c.ClockHz = 3.072e6
			c.CIC.OutputWidth = 20
			Expect(c.Save(path)).To(Succeed())

			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ClockHz).To(Equal(3.072e6))
			Expect(loaded.CIC).To(Equal(c.CIC))
			Expect(loaded.Compensation).To(Equal(c.Compensation))
			Expect(loaded.Halfband2).To(Equal(c.Halfband2))
		})

		It("should keep defaults for missing fields", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"clock_hz": 1e6}`), 0644)).To(Succeed())

			c, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.ClockHz).To(Equal(1e6))
			Expect(c.CIC).To(Equal(config.Default().CIC))
			Expect(c.Validate()).To(Succeed())
		})

		It("should resolve coefficient files next to the config", func() {
			Expect(os.WriteFile(filepath.Join(tempDir, "hb.txt"),
				[]byte("-1024\n0\n9216\n16384\n9216\n0\n-1024\n"), 0644)).To(Succeed())
			path := filepath.Join(tempDir, "file.json")
			Expect(os.WriteFile(path,
				[]byte(`{"halfband2": {"coefficient_file": "hb.txt", "coef_width": 16,
				"output_width": 32, "symmetric": true, "skip_zeros": true}}`), 0644)).To(Succeed())

			c, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Validate()).To(Succeed())

			set, err := c.CoefficientSet("halfband2", c.Halfband2)
			Expect(err).NotTo(HaveOccurred())
			Expect(set.Name).To(Equal("halfband2"))
			Expect(set.Values()).To(Equal([]int64{-1024, 0, 9216, 16384, 9216, 0, -1024}))
		})

		It("should fail for a missing coefficient file", func() {
			path := filepath.Join(tempDir, "missing.json")
			Expect(os.WriteFile(path,
				[]byte(`{"halfband1": {"coefficient_file": "none.txt", "coef_width": 16,
				"output_width": 32}}`), 0644)).To(Succeed())

			c, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			_, err = c.CoefficientSet("halfband1", c.Halfband1)
			Expect(err).To(HaveOccurred())
		})

		It("should fail for a missing file", func() {
			_, err := config.Load(filepath.Join(tempDir, "nope.json"))
			Expect(err).To(HaveOccurred())
		})

		It("should fail for malformed JSON", func() {
			path := filepath.Join(tempDir, "bad.json")
			Expect(os.WriteFile(path, []byte("{"), 0644)).To(Succeed())
			_, err := config.Load(path)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		It("should not share coefficient storage", func() {
			c := config.Default()
			clone := c.Clone()
			clone.Compensation.Coefficients[0] = 0
			Expect(c.Compensation.Coefficients[0]).To(Equal(int64(5)))
		})
	})
})

var _ = Describe("Package documentation", func() {
	It("should attach a doc comment to every exported function", func() {
		fset := token.NewFileSet()
		f, err := parser.ParseFile(fset, "config.go", nil, parser.ParseComments)
		Expect(err).NotTo(HaveOccurred())

		pkg, err := doc.NewFromFiles(fset, []*ast.File{f}, "github.com/sarchlab/dsmdec/config")
		Expect(err).NotTo(HaveOccurred())

		funcs := append([]*doc.Func(nil), pkg.Funcs...)
		for _, t := range pkg.Types {
			funcs = append(funcs, t.Funcs...)
			funcs = append(funcs, t.Methods...)
		}
		Expect(funcs).NotTo(BeEmpty())
		for _, fn := range funcs {
			Expect(fn.Doc).To(HavePrefix(fn.Name+" "), "func %s", fn.Name)
		}
	})
})
