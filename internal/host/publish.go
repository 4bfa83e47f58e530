package host

import (
	"github.com/shopspring/decimal"

	"github.com/xtding233/binomial-theory/internal/bignum"
)

// Publisher is the theory side of a publication.
type Publisher interface {
	Tau() decimal.Decimal
	PublicationMultiplier(tau decimal.Decimal) decimal.Decimal
	PostPublish()
}

// Publish converts the current currency into a publication bonus: the bonus
// is recomputed from tau, the currency and regular upgrades reset, and the
// theory is told to reset its own state. Milestones are kept.
func (r *Registry) Publish(p Publisher) decimal.Decimal {
	tau := p.Tau()
	r.lastTau = tau
	r.multiplier = p.PublicationMultiplier(tau)
	if r.currency != nil {
		r.currency.set(bignum.Zero)
	}
	for _, u := range r.upgrades {
		u.level = 0
	}
	p.PostPublish()
	r.primaryStale = true
	return tau
}

// LastTau is the tau recorded at the most recent publication.
func (r *Registry) LastTau() decimal.Decimal { return r.lastTau }

// SetPublicationMultiplier installs a bonus directly, for projections that
// start from an assumed publication.
func (r *Registry) SetPublicationMultiplier(m decimal.Decimal) {
	r.multiplier = m
	r.primaryStale = true
}
