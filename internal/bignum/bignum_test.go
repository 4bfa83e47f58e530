package bignum

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFloatRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := FromFloat(f)
		require.ErrorIs(t, err, ErrNonFinite)
	}
	d, err := FromFloat(0.25)
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("0.25")))
}

func TestTrimKeepsSignificantDigits(t *testing.T) {
	d := decimal.RequireFromString("123456789012345678901234567890123456789012345")
	got := Trim(d)
	assert.LessOrEqual(t, got.NumDigits(), Precision)
	assert.True(t, got.Equal(decimal.RequireFromString("123456789012345678901234567890123456789000000")))

	small := decimal.RequireFromString("3.5")
	assert.True(t, Trim(small).Equal(small))
}

func TestPowIntExactForPowersOfTwo(t *testing.T) {
	assert.True(t, PowInt(Two, 0).Equal(One))
	assert.True(t, PowInt(Two, 10).Equal(decimal.NewFromInt(1024)))
	assert.True(t, PowInt(Two, 100).Equal(decimal.RequireFromString("1267650600228229401496703205376")))
	assert.True(t, PowInt(Two, -2).Equal(decimal.RequireFromString("0.25")))
}

func TestPowHugeExponentStaysBounded(t *testing.T) {
	d := PowInt(Ten, 500)
	assert.InDelta(t, 500, Log10(d), 1e-9)
	assert.LessOrEqual(t, d.NumDigits(), Precision)

	r := Pow(d, 1.1)
	assert.InDelta(t, 550, Log10(r), 1e-6)
}

func TestPowEdgeCases(t *testing.T) {
	assert.True(t, Pow(Zero, 1.05).IsZero())
	assert.True(t, Pow(Zero, 0).Equal(One))
	assert.True(t, Pow(decimal.NewFromInt(7), 1).Equal(decimal.NewFromInt(7)))
	assert.InDelta(t, math.Pow(12, 1.15), Pow(decimal.NewFromInt(12), 1.15).InexactFloat64(), 1e-9)
}

func TestLog10AndExp10(t *testing.T) {
	assert.InDelta(t, 2, Log10(decimal.NewFromInt(100)), 1e-12)
	assert.InDelta(t, math.Log10(3.5), Log10(decimal.RequireFromString("3.5")), 1e-12)
	assert.True(t, math.IsInf(Log10(Zero), -1))
	assert.InDelta(t, 1234.5, Exp10(math.Log10(1234.5)).InexactFloat64(), 1e-6)
	assert.True(t, Exp10(math.Inf(-1)).IsZero())
}

func TestDivSmallAndLarge(t *testing.T) {
	third := Div(One, decimal.NewFromInt(3))
	assert.InDelta(t, 1.0/3, third.InexactFloat64(), 1e-15)

	tiny := Div(One, PowInt(Ten, 60))
	assert.InDelta(t, -60, Log10(tiny), 1e-9)
	assert.True(t, Div(One, Zero).IsZero())
}

func TestEncodeParseRoundTrip(t *testing.T) {
	cases := []decimal.Decimal{
		Zero,
		decimal.RequireFromString("3.5"),
		decimal.NewFromInt(10),
		PowInt(Two, 1000),
		Div(One, PowInt(Ten, 45)),
		decimal.RequireFromString("-12.0500"),
	}
	for _, d := range cases {
		got, err := Parse(Encode(d))
		require.NoError(t, err)
		assert.Equal(t, d.Coefficient().String(), got.Coefficient().String())
		assert.Equal(t, d.Exponent(), got.Exponent())
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("abc")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0", Format(Zero, 3))
	assert.Equal(t, "12.500", Format(decimal.RequireFromString("12.5"), 3))
	assert.Equal(t, "1.000e6", Format(decimal.NewFromInt(1000000), 3))
	assert.Equal(t, "1.268e30", Format(PowInt(Two, 100), 3))
	assert.Equal(t, "-2.500e10", Format(decimal.RequireFromString("-25000000000"), 3))
}
