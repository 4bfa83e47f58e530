package cost

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/binomial-theory/internal/bignum"
)

func TestExponentialCost(t *testing.T) {
	c, err := NewExponential(50, 1)
	require.NoError(t, err)

	assert.True(t, c.Cost(0).Equal(decimal.NewFromInt(50)))
	assert.InDelta(t, 100, c.Cost(1).InexactFloat64(), 1e-9)
	assert.InDelta(t, 50*1024, c.Cost(10).InexactFloat64(), 1e-6)
}

func TestExponentialCostRejectsBadParams(t *testing.T) {
	_, err := NewExponential(0, 1)
	require.ErrorIs(t, err, ErrInvalidCost)
	_, err = NewExponential(10, math.NaN())
	require.ErrorIs(t, err, ErrInvalidCost)
}

func TestFirstFree(t *testing.T) {
	inner, err := NewExponential(50, 3.38/1.5)
	require.NoError(t, err)
	c := FirstFree{Inner: inner}

	assert.True(t, c.Cost(0).IsZero())
	assert.True(t, c.Cost(1).Equal(inner.Cost(0)))
	assert.True(t, c.Cost(7).Equal(inner.Cost(6)))
}

func TestExprCostIsLog10(t *testing.T) {
	c, err := NewExpr("50 + 25 * level")
	require.NoError(t, err)

	assert.InDelta(t, 50, bignum.Log10(c.Cost(0)), 1e-9)
	assert.InDelta(t, 100, bignum.Log10(c.Cost(2)), 1e-9)
}

func TestExprCostCompileError(t *testing.T) {
	_, err := NewExpr("level +")
	require.ErrorIs(t, err, ErrInvalidCost)

	_, err = NewExpr("unknown * 2")
	require.ErrorIs(t, err, ErrInvalidCost)
}

func TestExprRejectsNonFiniteAtLevelZero(t *testing.T) {
	for _, src := range []string{"level / 0", "-1 / level"} {
		_, err := NewExpr(src)
		require.ErrorIs(t, err, ErrInvalidCost, src)
	}
}

func TestExprNeverFreeOnBadLevel(t *testing.T) {
	c, err := NewExpr("1 / (level - 1)")
	require.NoError(t, err)
	assert.InDelta(t, -1, bignum.Log10(c.Cost(0)), 1e-9)

	// +Inf at level 1
	bad := c.Cost(1)
	assert.True(t, bad.Equal(unaffordable))
	assert.Greater(t, bignum.Log10(bad), 999.0)
}

func TestConstant(t *testing.T) {
	c := Constant{Value: decimal.NewFromInt(1e8)}
	assert.True(t, c.Cost(3).Equal(decimal.NewFromInt(1e8)))
}
