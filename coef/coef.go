// Package coef supplies coefficient sets for the serial MAC stages.
//
// The pipeline treats coefficients as opaque configuration: it checks only
// the tap count and that every value fits the declared width.
package coef

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sarchlab/dsmdec/fixed"
)

// Set is an ordered, immutable coefficient sequence.
type Set struct {
	Name   string
	Width  uint
	values []int64
}

// New copies values into a Set and checks them against width.
func New(name string, width uint, values []int64) (Set, error) {
	if len(values) == 0 {
		return Set{}, errors.Errorf("coef %s: no coefficients", name)
	}
	for i, v := range values {
		if !fixed.Fits(v, width) {
			return Set{}, errors.Errorf("coef %s: value %d at tap %d does not fit %d bits",
				name, v, i, width)
		}
	}
	return Set{Name: name, Width: width, values: append([]int64(nil), values...)}, nil
}

// Values returns a copy of the coefficients.
func (s Set) Values() []int64 {
	return append([]int64(nil), s.values...)
}

// Len returns the tap count.
func (s Set) Len() int {
	return len(s.values)
}

// Sum returns the sum of the coefficients (the DC gain numerator).
func (s Set) Sum() int64 {
	var sum int64
	for _, v := range s.values {
		sum += v
	}
	return sum
}

// AbsSum returns the sum of coefficient magnitudes, the worst-case gain.
func (s Set) AbsSum() int64 {
	var sum int64
	for _, v := range s.values {
		if v < 0 {
			sum -= v
		} else {
			sum += v
		}
	}
	return sum
}

// Symmetric reports whether c[i] == c[K-1-i] for every tap.
func (s Set) Symmetric() bool {
	k := len(s.values)
	for i := 0; i < k/2; i++ {
		if s.values[i] != s.values[k-1-i] {
			return false
		}
	}
	return true
}

// ExpectLen fails unless the set has exactly k taps.
func (s Set) ExpectLen(k int) error {
	if len(s.values) != k {
		return errors.Errorf("coef %s: expected %d taps, got %d", s.Name, k, len(s.values))
	}
	return nil
}

// Load reads a coefficient file: one signed integer per line, blank lines and
// text after '#' ignored.
func Load(path string, width uint) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return Set{}, errors.Wrap(err, "failed to open coefficient file")
	}
	defer func() { _ = f.Close() }()

	return Read(f, path, width)
}

// Read parses coefficients from r. See Load for the format.
func Read(r io.Reader, name string, width uint) (Set, error) {
	var values []int64

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Set{}, errors.Wrapf(err, "coef %s: line %d", name, line)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return Set{}, errors.Wrapf(err, "coef %s", name)
	}

	return New(name, width, values)
}
