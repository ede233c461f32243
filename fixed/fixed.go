// Package fixed provides the signed fixed-point sample representation shared by
// every stage of the decimation pipeline.
//
// Samples are carried in int64 registers. A register of width w holds values in
// [-2^(w-1), 2^(w-1)-1]; arithmetic that models a w-bit hardware register wraps
// with two's complement semantics via Wrap.
package fixed

import (
	"math/bits"

	"github.com/pkg/errors"
)

// DatapathWidth is the widest register the model can represent.
const DatapathWidth = 64

// ErrBitGrowth reports a register that is too narrow for the values the
// configured arithmetic can produce.
var ErrBitGrowth = errors.New("bit growth exceeds register width")

// Strobe is a sample paired with its one-cycle valid pulse. Value is only
// meaningful while Valid is set.
type Strobe struct {
	Value int64
	Valid bool
}

// Valid returns a strobe carrying v.
func Valid(v int64) Strobe {
	return Strobe{Value: v, Valid: true}
}

// Wrap reduces v to a width-bit two's complement register value.
func Wrap(v int64, width uint) int64 {
	if width >= DatapathWidth {
		return v
	}
	shift := DatapathWidth - width
	return (v << shift) >> shift
}

// Truncate drops the drop least significant bits of v, rounding toward
// negative infinity.
func Truncate(v int64, drop uint) int64 {
	if drop == 0 {
		return v
	}
	return v >> drop
}

// MaxValue returns the largest value a width-bit register holds.
func MaxValue(width uint) int64 {
	if width >= DatapathWidth {
		return int64(^uint64(0) >> 1)
	}
	return int64(1)<<(width-1) - 1
}

// MinValue returns the smallest value a width-bit register holds.
func MinValue(width uint) int64 {
	if width >= DatapathWidth {
		return -int64(^uint64(0)>>1) - 1
	}
	return -(int64(1) << (width - 1))
}

// Fits reports whether v is representable in a width-bit register.
func Fits(v int64, width uint) bool {
	return v >= MinValue(width) && v <= MaxValue(width)
}

// CeilLog2 returns ceil(log2(n)) for n >= 1.
func CeilLog2(n int) uint {
	if n <= 1 {
		return 0
	}
	return uint(bits.Len(uint(n - 1)))
}

// CICWidth returns W0 + N*ceil(log2(R*M)), the register width a CIC of order
// n, decimation r and differential delay m needs for w0-bit input.
func CICWidth(w0 uint, n, r, m int) uint {
	return w0 + uint(n)*CeilLog2(r*m)
}

// AccumulatorWidth returns input + coefficient + ceil(log2(taps)), the width
// that holds the sum of taps full-precision products.
func AccumulatorWidth(input, coef uint, taps int) uint {
	return input + coef + CeilLog2(taps)
}

// CheckWidth fails with ErrBitGrowth when width exceeds the datapath.
func CheckWidth(what string, width uint) error {
	if width == 0 {
		return errors.Errorf("%s: width must be > 0", what)
	}
	if width > DatapathWidth {
		return errors.Wrapf(ErrBitGrowth, "%s needs %d bits, datapath has %d",
			what, width, DatapathWidth)
	}
	return nil
}
