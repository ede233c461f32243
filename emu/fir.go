package emu

import "github.com/sarchlab/dsmdec/fixed"

// firModel is a direct-form decimating FIR with full-precision accumulation.
type firModel struct {
	coefs      []int64
	inputWidth uint
	drop       uint
	decimation int

	line  []int64
	phase int
}

func (f *firModel) push(x int64) (int64, bool) {
	copy(f.line[1:], f.line[:len(f.line)-1])
	f.line[0] = fixed.Wrap(x, f.inputWidth)

	f.phase++
	if f.phase < f.decimation {
		return 0, false
	}
	f.phase = 0

	var acc int64
	for k, c := range f.coefs {
		acc += c * f.line[k]
	}
	return fixed.Truncate(acc, f.drop), true
}

func (f *firModel) reset() {
	clear(f.line)
	f.phase = 0
}
