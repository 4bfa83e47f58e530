package theory

import (
	"github.com/shopspring/decimal"

	"github.com/xtding233/binomial-theory/internal/bignum"
	"github.com/xtding233/binomial-theory/internal/cost"
)

type fakeCurrency struct{ v decimal.Decimal }

func (c *fakeCurrency) Value() decimal.Decimal { return c.v }
func (c *fakeCurrency) Add(a decimal.Decimal)  { c.v = bignum.Add(c.v, a) }

type fakeLevel struct {
	level     int
	available bool
	onChange  func()
}

func (l *fakeLevel) Level() int          { return l.level }
func (l *fakeLevel) SetAvailable(a bool) { l.available = a }

func (l *fakeLevel) set(level int) {
	l.level = level
	if l.onChange != nil {
		l.onChange()
	}
}

type fakeHost struct {
	currency   *fakeCurrency
	upgrades   map[int]*fakeLevel
	milestones map[int]*fakeLevel
	permanents map[Permanent]cost.Model
	multiplier decimal.Decimal

	primaryInvalidations  int
	tertiaryInvalidations int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		upgrades:   make(map[int]*fakeLevel),
		milestones: make(map[int]*fakeLevel),
		permanents: make(map[Permanent]cost.Model),
		multiplier: bignum.One,
	}
}

func (h *fakeHost) CreateCurrency() Currency {
	h.currency = &fakeCurrency{v: bignum.Zero}
	return h.currency
}

func (h *fakeHost) CreateUpgrade(spec UpgradeSpec) Upgrade {
	l := &fakeLevel{}
	h.upgrades[spec.ID] = l
	return l
}

func (h *fakeHost) CreatePermanent(kind Permanent, _ Currency, price cost.Model) {
	h.permanents[kind] = price
}

func (h *fakeHost) CreateMilestone(spec MilestoneSpec) Milestone {
	l := &fakeLevel{onChange: spec.OnChange}
	h.milestones[spec.ID] = l
	return l
}

func (h *fakeHost) SetMilestoneCost(cost.Model)             {}
func (h *fakeHost) PublicationMultiplier() decimal.Decimal { return h.multiplier }
func (h *fakeHost) InvalidatePrimaryEquation()             { h.primaryInvalidations++ }
func (h *fakeHost) InvalidateTertiaryEquation()            { h.tertiaryInvalidations++ }

func (h *fakeHost) upgrade(id UpgradeID, level int)     { h.upgrades[int(id)].set(level) }
func (h *fakeHost) milestone(k MilestoneKey, level int) { h.milestones[MilestoneID(k)].set(level) }
func (h *fakeHost) available(k MilestoneKey) bool       { return h.milestones[MilestoneID(k)].available }
