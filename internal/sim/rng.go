package sim

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// RandomSource drives frame jitter.
type RandomSource interface {
	Float64() float64 // [0, 1)
}

// cryptoRNG is used when the caller does not ask for a reproducible run.
type cryptoRNG struct{}

func (cryptoRNG) Float64() float64 {
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		return rand.Float64()
	}
	return float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53)
}

func DefaultRNG() RandomSource { return cryptoRNG{} }

type seededRNG struct{ r *rand.Rand }

// NewSeededRNG returns a PCG stream; equal seeds replay equal trials.
func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seededRNG) Float64() float64 { return s.r.Float64() }

// jitterFrame spreads frame uniformly over frame·[1-spread, 1+spread].
func jitterFrame(frame, spread float64, rng RandomSource) float64 {
	if spread <= 0 || rng == nil {
		return frame
	}
	return frame * (1 + spread*(2*rng.Float64()-1))
}
