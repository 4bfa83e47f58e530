package theory

import (
	"github.com/shopspring/decimal"

	"github.com/xtding233/binomial-theory/internal/bignum"
)

var minusOne = decimal.NewFromInt(-1)

// NormalizedBase is x = base/(1+q̇) where base is q, or t·q with the time
// factor enabled. With clamp set, x is held to [-1, 1].
func NormalizedBase(t, q, qdot decimal.Decimal, withTime, clamp bool) decimal.Decimal {
	base := q
	if withTime {
		base = bignum.Mul(t, q)
	}
	x := bignum.Div(base, bignum.Add(bignum.One, qdot))
	if clamp {
		x = decimal.Max(minusOne, decimal.Min(bignum.One, x))
	}
	return x
}

// PowerExpansion is (1+x)^n, and 1 for n <= 0.
func PowerExpansion(n int, x decimal.Decimal) decimal.Decimal {
	if n <= 0 {
		return bignum.One
	}
	return bignum.PowInt(bignum.Add(bignum.One, x), int64(n))
}

// BinomialSum is Σ_{k=0}^{n} C(n,k)·x^k, built with the multiplicative
// recurrence term_k = term_{k-1}·(n-k+1)/k·x. It is 1 for n <= 0.
func BinomialSum(n int, x decimal.Decimal) decimal.Decimal {
	if n <= 0 {
		return bignum.One
	}
	sum := bignum.One
	term := bignum.One
	for k := 1; k <= n; k++ {
		term = bignum.Mul(term, decimal.NewFromInt(int64(n-k+1)))
		term = bignum.Div(term, decimal.NewFromInt(int64(k)))
		term = bignum.Mul(term, x)
		sum = bignum.Add(sum, term)
	}
	return sum
}

// ComputeDriver selects the expansion. Both branches expand the same
// polynomial, so they agree up to rounding for every x.
func ComputeDriver(n int, x decimal.Decimal, sigma bool) decimal.Decimal {
	if sigma {
		return BinomialSum(n, x)
	}
	return PowerExpansion(n, x)
}

// Accrual is bonus·c1·c2·driver·dt. Negative products are dropped so the
// currency never decreases through a tick.
func Accrual(bonus, vc1, vc2, driver, dt decimal.Decimal) decimal.Decimal {
	amount := bignum.Mul(bonus, vc1)
	amount = bignum.Mul(amount, vc2)
	amount = bignum.Mul(amount, driver)
	amount = bignum.Mul(amount, dt)
	if amount.Sign() < 0 {
		return bignum.Zero
	}
	return amount
}

// Accrue adds the tick's production to c.
func Accrue(c Currency, bonus, vc1, vc2, driver, dt decimal.Decimal) {
	if amount := Accrual(bonus, vc1, vc2, driver, dt); amount.Sign() > 0 {
		c.Add(amount)
	}
}
