// Package bignum holds the arbitrary-precision arithmetic used by the theory.
//
// Values are shopspring decimals trimmed to a fixed number of significant
// digits after every multiplication or addition, so coefficients stay bounded
// while exponents range over hundreds of orders of magnitude.
package bignum

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Precision is the number of significant digits kept by Trim.
const Precision = 40

// displayLimit is where Format switches to scientific notation.
const displayLimit = 1e6

// maxExponent caps Exp10 so the decimal exponent stays inside int32.
const maxExponent = 1e9

var (
	Zero = decimal.Zero
	One  = decimal.NewFromInt(1)
	Two  = decimal.NewFromInt(2)
	Ten  = decimal.NewFromInt(10)
)

var ErrNonFinite = errors.New("bignum: value is NaN or infinite")

// FromFloat converts f, refusing NaN and ±Inf instead of panicking.
func FromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Zero, ErrNonFinite
	}
	return decimal.NewFromFloat(f), nil
}

// Trim rounds d to Precision significant digits.
func Trim(d decimal.Decimal) decimal.Decimal {
	n := d.NumDigits()
	if n <= Precision {
		return d
	}
	places := int32(Precision) - (d.Exponent() + int32(n))
	return d.Round(places)
}

// Mul multiplies and trims.
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return Trim(a.Mul(b))
}

// Add adds and trims.
func Add(a, b decimal.Decimal) decimal.Decimal {
	return Trim(a.Add(b))
}

// Div divides at Precision significant digits. Division by zero yields zero.
func Div(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() || a.IsZero() {
		return Zero
	}
	mag := math.Floor(Log10(a.Abs())) - math.Floor(Log10(b.Abs()))
	places := int32(Precision) - int32(mag) + 1
	return Trim(a.DivRound(b, places))
}

// Log10 returns log10(d) as a float64; -Inf for d <= 0.
func Log10(d decimal.Decimal) float64 {
	if d.Sign() <= 0 {
		return math.Inf(-1)
	}
	n := int32(d.NumDigits())
	mant := decimal.NewFromBigInt(d.Coefficient(), -(n - 1))
	return math.Log10(mant.InexactFloat64()) + float64(d.Exponent()+n-1)
}

// Exp10 returns 10^f with roughly float64 precision in the mantissa.
func Exp10(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, -1) {
		return Zero
	}
	if f > maxExponent {
		f = maxExponent
	}
	ip := math.Floor(f)
	mant := math.Pow(10, f-ip)
	return Trim(decimal.NewFromFloat(mant).Shift(int32(ip)))
}

// PowInt raises d to an integer power by repeated squaring.
func PowInt(d decimal.Decimal, k int64) decimal.Decimal {
	if k < 0 {
		return Div(One, PowInt(d, -k))
	}
	result := One
	base := Trim(d)
	for k > 0 {
		if k&1 == 1 {
			result = Mul(result, base)
		}
		k >>= 1
		if k > 0 {
			base = Mul(base, base)
		}
	}
	return result
}

// Pow raises d to a real power. Integer exponents are computed exactly up to
// Precision; other exponents go through log10 and need d > 0 (zero otherwise).
func Pow(d decimal.Decimal, e float64) decimal.Decimal {
	if e == 0 {
		return One
	}
	if d.IsZero() {
		return Zero
	}
	if e == math.Trunc(e) && math.Abs(e) <= 1<<20 {
		return PowInt(d, int64(e))
	}
	if d.Sign() < 0 {
		return Zero
	}
	return Exp10(Log10(d) * e)
}

// Encode renders d exactly as "<coefficient>e<exponent>" (or just the
// coefficient when the exponent is zero). Parse reads it back unchanged.
func Encode(d decimal.Decimal) string {
	coef := d.Coefficient().String()
	if d.Exponent() == 0 {
		return coef
	}
	return coef + "e" + strconv.FormatInt(int64(d.Exponent()), 10)
}

// Parse accepts plain decimals ("3.5") and exponent notation ("35e-1").
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Zero, fmt.Errorf("bignum: parse %q: %w", s, err)
	}
	return d, nil
}

// Format renders d for display: fixed-point below 1e6, "m.mmme±x" above.
func Format(d decimal.Decimal, places int) string {
	if d.IsZero() {
		return "0"
	}
	abs := d.Abs()
	if abs.LessThan(decimal.NewFromFloat(displayLimit)) {
		return d.StringFixed(int32(places))
	}
	l := Log10(abs)
	e := math.Floor(l)
	m := math.Pow(10, l-e)
	// rounding may carry the mantissa to 10.00
	if s := strconv.FormatFloat(m, 'f', places, 64); strings.HasPrefix(s, "10") {
		m /= 10
		e++
	}
	sign := ""
	if d.Sign() < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%.*fe%d", sign, places, m, int64(e))
}

// Float returns d as a float64, saturating at ±MaxFloat64.
func Float(d decimal.Decimal) float64 {
	f := d.InexactFloat64()
	if math.IsInf(f, 1) {
		return math.MaxFloat64
	}
	if math.IsInf(f, -1) {
		return -math.MaxFloat64
	}
	return f
}
