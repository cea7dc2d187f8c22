package kinetics

import "math/rand/v2"

// Uniform is the randomness port of the engine. Float64 returns values in
// [0, 1); the engine discards exact zeros to sample the open interval.
type Uniform interface {
	Float64() float64
}

// NewSource returns a PCG-backed generator. Replicates that share a seed but
// use distinct streams draw independent sequences.
func NewSource(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// openUnit draws from (0, 1).
func openUnit(u Uniform) float64 {
	for {
		if r := u.Float64(); r > 0 && r < 1 {
			return r
		}
	}
}
