package theory

import (
	"github.com/shopspring/decimal"

	"github.com/xtding233/binomial-theory/internal/bignum"
)

// State is everything the theory persists on its own: elapsed time t and the
// accumulated rate q. Both only grow between publications.
type State struct {
	T decimal.Decimal
	Q decimal.Decimal
}

// DeltaTime converts an engine frame into dt. Non-finite and non-positive
// frames are rejected.
func DeltaTime(elapsed, multiplier float64) (decimal.Decimal, bool) {
	dt, err := bignum.FromFloat(elapsed * multiplier)
	if err != nil || dt.Sign() <= 0 {
		return bignum.Zero, false
	}
	return dt, true
}

// Velocity is q̇ = q1^αq · q2.
func Velocity(vq1 decimal.Decimal, alphaQ float64, vq2 decimal.Decimal) decimal.Decimal {
	return bignum.Mul(bignum.Pow(vq1, alphaQ), vq2)
}

// Advance integrates one step: t += dt, q += q̇·dt. A non-positive dt or a
// negative velocity leaves the corresponding variable untouched.
func (s *State) Advance(dt, qdot decimal.Decimal) {
	if dt.Sign() <= 0 {
		return
	}
	s.T = bignum.Add(s.T, dt)
	if qdot.Sign() > 0 {
		s.Q = bignum.Add(s.Q, bignum.Mul(qdot, dt))
	}
}

// Reset zeroes the state.
func (s *State) Reset() {
	s.T = bignum.Zero
	s.Q = bignum.Zero
}
