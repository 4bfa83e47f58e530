package theory

import (
	"github.com/shopspring/decimal"

	"github.com/xtding233/binomial-theory/internal/cost"
)

// Currency is the host's accumulator. The theory only reads it and adds to it.
type Currency interface {
	Value() decimal.Decimal
	Add(amount decimal.Decimal)
}

// Upgrade is a host-owned purchasable; its level only moves on purchase.
type Upgrade interface {
	Level() int
}

// Milestone is a host-owned unlock bought with the meta currency.
type Milestone interface {
	Level() int
	SetAvailable(available bool)
}

// UpgradeSpec registers a regular upgrade.
type UpgradeSpec struct {
	ID       int
	Currency Currency
	Cost     cost.Model
	MaxLevel int // 0 means unbounded
}

// MilestoneSpec registers a milestone. OnChange runs after every purchase or
// refund of this milestone.
type MilestoneSpec struct {
	ID          int
	MaxLevel    int
	Description string
	Info        string
	OnChange    func()
}

// Permanent identifies the host's built-in permanent upgrades.
type Permanent int

const (
	PermanentPublication Permanent = iota
	PermanentBuyAll
	PermanentAutoBuyer
)

func (p Permanent) String() string {
	switch p {
	case PermanentPublication:
		return "publication"
	case PermanentBuyAll:
		return "buy_all"
	case PermanentAutoBuyer:
		return "auto_buyer"
	}
	return "unknown"
}

// Host is the capability set the engine exposes to a theory.
type Host interface {
	CreateCurrency() Currency
	CreateUpgrade(spec UpgradeSpec) Upgrade
	CreatePermanent(kind Permanent, c Currency, price cost.Model)
	CreateMilestone(spec MilestoneSpec) Milestone
	SetMilestoneCost(price cost.Model)

	// PublicationMultiplier is the bonus earned by past publications.
	PublicationMultiplier() decimal.Decimal

	InvalidatePrimaryEquation()
	InvalidateTertiaryEquation()
}
