package theory

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/xtding233/binomial-theory/internal/bignum"
)

// Tau is the meta score for the current currency: ρ^(0.1·tauMultiplier).
func (t *Theory) Tau() decimal.Decimal {
	return bignum.Pow(t.currency.Value(), 0.1*t.cfg.TauMultiplier)
}

// CurrencyFromTau inverts Tau; tau below 1 maps to 1.
func (t *Theory) CurrencyFromTau(tau decimal.Decimal) (decimal.Decimal, string) {
	return bignum.Pow(decimal.Max(tau, bignum.One), 10/t.cfg.TauMultiplier), CurrencySymbol
}

// PublicationMultiplier is the production bonus granted by tau.
func (t *Theory) PublicationMultiplier(tau decimal.Decimal) decimal.Decimal {
	if tau.IsZero() {
		return bignum.One
	}
	return bignum.Pow(tau, t.publicationExponent())
}

// PublicationMultiplierFormula renders the bonus formula for symbol.
func (t *Theory) PublicationMultiplierFormula(symbol string) string {
	return "{" + symbol + "}^{" + strconv.FormatFloat(t.publicationExponent(), 'f', -1, 64) + "}"
}

func (t *Theory) publicationExponent() float64 {
	return 1.5 / t.cfg.TauMultiplier
}

// GraphValue is sign(ρ)·log10(1+|ρ|), the 2D graph coordinate.
func (t *Theory) GraphValue() float64 {
	v := t.currency.Value()
	if v.IsZero() {
		return 0
	}
	l := bignum.Log10(bignum.Add(bignum.One, v.Abs()))
	return float64(v.Sign()) * l
}
