package theory

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xtding233/binomial-theory/internal/bignum"
)

func TestDeltaTime(t *testing.T) {
	dt, ok := DeltaTime(0.1, 2)
	assert.True(t, ok)
	assert.InDelta(t, 0.2, dt.InexactFloat64(), 1e-15)

	for _, c := range [][2]float64{{0, 1}, {1, 0}, {-1, 1}, {math.NaN(), 1}, {math.Inf(1), 1}} {
		_, ok := DeltaTime(c[0], c[1])
		assert.False(t, ok, "elapsed=%v multiplier=%v", c[0], c[1])
	}
}

func TestAdvance(t *testing.T) {
	s := State{T: bignum.Zero, Q: bignum.Zero}
	s.Advance(decimal.NewFromInt(2), decimal.NewFromInt(3))
	assert.True(t, s.T.Equal(decimal.NewFromInt(2)))
	assert.True(t, s.Q.Equal(decimal.NewFromInt(6)))

	s.Advance(decimal.NewFromInt(-1), decimal.NewFromInt(3))
	assert.True(t, s.T.Equal(decimal.NewFromInt(2)), "negative dt must not move t")

	s.Advance(decimal.NewFromInt(1), decimal.NewFromInt(-5))
	assert.True(t, s.T.Equal(decimal.NewFromInt(3)))
	assert.True(t, s.Q.Equal(decimal.NewFromInt(6)), "negative velocity must not move q")

	s.Reset()
	assert.True(t, s.T.IsZero())
	assert.True(t, s.Q.IsZero())
}

func TestVelocity(t *testing.T) {
	v := Velocity(decimal.NewFromInt(1), 1.15, decimal.NewFromInt(1))
	assert.True(t, v.Equal(bignum.One))

	v = Velocity(decimal.NewFromInt(10), 1, decimal.NewFromInt(4))
	assert.True(t, v.Equal(decimal.NewFromInt(40)))

	v = Velocity(decimal.NewFromInt(10), 1.10, decimal.NewFromInt(2))
	assert.InDelta(t, 2*math.Pow(10, 1.10), v.InexactFloat64(), 1e-9)

	assert.True(t, Velocity(bignum.Zero, 1.05, decimal.NewFromInt(8)).IsZero())
}

func TestAdvanceIsMonotonic(t *testing.T) {
	s := State{T: bignum.Zero, Q: bignum.Zero}
	frames := []struct{ elapsed, mult float64 }{{0.1, 1}, {0.05, 3}, {1, 1}, {0.016, 10}, {0.2, 0.5}}
	qdot := decimal.NewFromInt(7)
	for _, f := range frames {
		prevT, prevQ := s.T, s.Q
		dt, ok := DeltaTime(f.elapsed, f.mult)
		assert.True(t, ok)
		s.Advance(dt, qdot)
		assert.True(t, s.T.GreaterThan(prevT))
		assert.True(t, s.Q.GreaterThan(prevQ))
	}
}
