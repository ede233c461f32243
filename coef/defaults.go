package coef

// DefaultWidth is the coefficient width of the built-in sets. All of them are
// scaled so the taps sum to 2^15.
const DefaultWidth = 16

// CIC droop compensation for N=5, R=16, M=1, evaluated at the CIC output
// rate: inverse-sinc^5 passband to 0.2, raised-cosine transition to 0.3,
// Hamming window.
var compensation = []int64{
	5, -20, -32, 99, 162, -360, -575, 968, 1632, -2141, -4427, 4140, 16933,
	16933, 4140, -4427, -2141, 1632, 968, -575, -360, 162, 99, -32, -20, 5,
}

// (-1, 0, 9, 16, 9, 0, -1) / 32
var halfbandA = []int64{-1024, 0, 9216, 16384, 9216, 0, -1024}

// Windowed-sinc halfband, raised-cosine window.
var halfbandB = []int64{-503, 0, 8695, 16384, 8695, 0, -503}

// Compensation returns the 26-tap droop-compensation FIR.
func Compensation() Set {
	return mustBuiltin("compensation", compensation)
}

// HalfbandA returns the first-stage 7-tap halfband.
func HalfbandA() Set {
	return mustBuiltin("halfband-a", halfbandA)
}

// HalfbandB returns the second-stage 7-tap halfband.
func HalfbandB() Set {
	return mustBuiltin("halfband-b", halfbandB)
}

func mustBuiltin(name string, values []int64) Set {
	s, err := New(name, DefaultWidth, values)
	if err != nil {
		panic(err)
	}
	return s
}
