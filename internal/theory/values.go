package theory

import (
	"github.com/shopspring/decimal"

	"github.com/xtding233/binomial-theory/internal/bignum"
)

// StepwisePowerSum is Σ_{i<level} basePower^⌊i/stepLength⌋ + offset: linear
// growth inside a block of stepLength levels, ×basePower between blocks.
func StepwisePowerSum(level, basePower, stepLength int, offset decimal.Decimal) decimal.Decimal {
	if level <= 0 || stepLength <= 0 {
		return offset
	}
	if basePower == 1 {
		return bignum.Add(offset, decimal.NewFromInt(int64(level)))
	}
	blocks := level / stepLength
	rest := level - blocks*stepLength
	d := bignum.PowInt(decimal.NewFromInt(int64(basePower)), int64(blocks))
	k := bignum.Div(decimal.NewFromInt(int64(stepLength)), decimal.NewFromInt(int64(basePower-1)))
	sum := bignum.Mul(d, decimal.NewFromInt(int64(rest)).Add(k))
	return bignum.Add(offset, sum.Sub(k))
}

// C1 is the base (pre-exponent) value of c1.
func C1(level int) decimal.Decimal { return StepwisePowerSum(level, 2, 10, bignum.Zero) }

// C2 is 2^level.
func C2(level int) decimal.Decimal { return bignum.PowInt(bignum.Two, int64(max(level, 0))) }

// Q1 is the base (pre-exponent) value of q1.
func Q1(level int) decimal.Decimal { return StepwisePowerSum(level, 2, 10, bignum.Zero) }

// Q2 is 2^level.
func Q2(level int) decimal.Decimal { return bignum.PowInt(bignum.Two, int64(max(level, 0))) }

// Order is the expansion order n: 1 at level 0, one more per level.
func Order(level int) int { return max(1, level+1) }
