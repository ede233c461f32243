package mac

import "github.com/pkg/errors"

// Op is one multiply-accumulate step: Coef * (line[Tap] + line[Mirror]), or
// Coef * line[Tap] when Mirror is negative.
type Op struct {
	Tap    int
	Mirror int
	Coef   int64
}

// Folded reports whether the step pre-adds a symmetric pair of taps.
func (o Op) Folded() bool {
	return o.Mirror >= 0
}

// BuildSchedule derives the per-sample multiply sequence from a coefficient
// set. Symmetric folding pairs tap i with tap K-1-i; zero skipping drops
// steps whose coefficient is exactly zero.
func BuildSchedule(coefs []int64, symmetric, skipZeros bool) ([]Op, error) {
	k := len(coefs)
	if k == 0 {
		return nil, errors.New("mac: empty coefficient set")
	}

	var ops []Op
	if symmetric {
		for i := 0; i < k/2; i++ {
			j := k - 1 - i
			if coefs[i] != coefs[j] {
				return nil, errors.Errorf(
					"mac: coefficients not symmetric: c[%d]=%d, c[%d]=%d",
					i, coefs[i], j, coefs[j])
			}
			if skipZeros && coefs[i] == 0 {
				continue
			}
			ops = append(ops, Op{Tap: i, Mirror: j, Coef: coefs[i]})
		}
		if k%2 == 1 {
			c := k / 2
			if !skipZeros || coefs[c] != 0 {
				ops = append(ops, Op{Tap: c, Mirror: -1, Coef: coefs[c]})
			}
		}
	} else {
		for i, c := range coefs {
			if skipZeros && c == 0 {
				continue
			}
			ops = append(ops, Op{Tap: i, Mirror: -1, Coef: c})
		}
	}

	if len(ops) == 0 {
		return nil, errors.New("mac: coefficient set has no non-zero taps")
	}

	return ops, nil
}
