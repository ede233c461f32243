// Package config holds the JSON configuration of the decimation pipeline.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/sarchlab/dsmdec/coef"
	"github.com/sarchlab/dsmdec/timing/cic"
)

// StageConfig configures one serial MAC stage.
type StageConfig struct {
	// Coefficients lists the taps inline.
	Coefficients []int64 `json:"coefficients,omitempty"`

	// CoefficientFile names a coefficient file, resolved relative to the
	// configuration file. Exactly one of Coefficients and CoefficientFile
	// must be set.
	CoefficientFile string `json:"coefficient_file,omitempty"`

	// CoefWidth is the signed coefficient width.
	CoefWidth uint `json:"coef_width"`

	// OutputWidth is the truncation point of the stage accumulator.
	OutputWidth uint `json:"output_width"`

	// Symmetric folds mirrored taps into one multiply.
	Symmetric bool `json:"symmetric"`

	// SkipZeros removes multiplies by exact-zero coefficients.
	SkipZeros bool `json:"skip_zeros"`
}

// Config holds the complete pipeline configuration.
type Config struct {
	// ClockHz is the modulator clock. The output rate is ClockHz / 128.
	ClockHz float64 `json:"clock_hz"`

	// CIC configures the first decimation stage.
	CIC cic.Config `json:"cic"`

	// Compensation configures the droop-compensation FIR.
	Compensation StageConfig `json:"compensation"`

	// Halfband1 and Halfband2 configure the two halfband stages.
	Halfband1 StageConfig `json:"halfband1"`
	Halfband2 StageConfig `json:"halfband2"`

	// dir is where relative coefficient files are resolved.
	dir string
}

// Default returns the reference configuration: 4-bit input at 6.144 MHz,
// fifth-order CIC, 32-bit FIR and halfband outputs, 48 kHz output rate.
func Default() *Config {
	return &Config{
		ClockHz: 6.144e6,
		CIC:     cic.DefaultConfig(),
		Compensation: StageConfig{
			Coefficients: coef.Compensation().Values(),
			CoefWidth:    coef.DefaultWidth,
			OutputWidth:  32,
			Symmetric:    true,
		},
		Halfband1: StageConfig{
			Coefficients: coef.HalfbandA().Values(),
			CoefWidth:    coef.DefaultWidth,
			OutputWidth:  32,
			Symmetric:    true,
			SkipZeros:    true,
		},
		Halfband2: StageConfig{
			Coefficients: coef.HalfbandB().Values(),
			CoefWidth:    coef.DefaultWidth,
			OutputWidth:  32,
			Symmetric:    true,
			SkipZeros:    true,
		},
	}
}

// Load reads a configuration from a JSON file. Fields missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	config.dir = filepath.Dir(path)

	// A coefficient file replaces the built-in taps.
	for _, s := range []*StageConfig{&config.Compensation, &config.Halfband1, &config.Halfband2} {
		if s.CoefficientFile != "" {
			s.Coefficients = nil
		}
	}

	return config, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to serialize config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// Validate checks the structure of the configuration. Bit growth and timing
// budgets are checked when the stages are built.
func (c *Config) Validate() error {
	if c.ClockHz <= 0 {
		return errors.New("clock_hz must be > 0")
	}
	if err := c.CIC.Validate(); err != nil {
		return err
	}

	stages := []struct {
		name  string
		stage StageConfig
	}{
		{"compensation", c.Compensation},
		{"halfband1", c.Halfband1},
		{"halfband2", c.Halfband2},
	}
	for _, s := range stages {
		if err := s.stage.validate(s.name); err != nil {
			return err
		}
	}

	return nil
}

func (s StageConfig) validate(name string) error {
	hasInline := len(s.Coefficients) > 0
	hasFile := s.CoefficientFile != ""
	if hasInline == hasFile {
		return errors.Errorf("%s: exactly one of coefficients and coefficient_file must be set", name)
	}
	if s.CoefWidth == 0 {
		return errors.Errorf("%s: coef_width must be > 0", name)
	}
	if s.OutputWidth == 0 {
		return errors.Errorf("%s: output_width must be > 0", name)
	}
	return nil
}

// CoefficientSet resolves the stage coefficients.
func (c *Config) CoefficientSet(name string, s StageConfig) (coef.Set, error) {
	if s.CoefficientFile == "" {
		return coef.New(name, s.CoefWidth, s.Coefficients)
	}

	path := s.CoefficientFile
	if !filepath.IsAbs(path) && c.dir != "" {
		path = filepath.Join(c.dir, path)
	}

	set, err := coef.Load(path, s.CoefWidth)
	if err != nil {
		return coef.Set{}, errors.Wrap(err, name)
	}
	set.Name = name

	return set, nil
}

// OutputRate returns the decimated sample rate for a total decimation factor.
func (c *Config) OutputRate(decimation int) float64 {
	return c.ClockHz / float64(decimation)
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Compensation = c.Compensation.clone()
	clone.Halfband1 = c.Halfband1.clone()
	clone.Halfband2 = c.Halfband2.clone()
	return &clone
}

func (s StageConfig) clone() StageConfig {
	s.Coefficients = append([]int64(nil), s.Coefficients...)
	return s
}
