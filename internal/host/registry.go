// Package host is an in-memory engine host for a theory: it owns the
// currency, the upgrade and milestone registry, the equation cache and the
// publication bonus.
package host

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xtding233/binomial-theory/internal/bignum"
	"github.com/xtding233/binomial-theory/internal/cost"
	"github.com/xtding233/binomial-theory/internal/theory"
)

var (
	ErrUnknownUpgrade   = errors.New("unknown upgrade")
	ErrUnknownMilestone = errors.New("unknown milestone")
	ErrLevelOutOfRange  = errors.New("level out of range")
)

// Currency is a single arbitrary-precision accumulator.
type Currency struct {
	value decimal.Decimal
}

func (c *Currency) Value() decimal.Decimal { return c.value }

// Add accrues amount; the sum is trimmed to bignum.Precision digits.
func (c *Currency) Add(amount decimal.Decimal) {
	c.value = bignum.Add(c.value, amount)
}

func (c *Currency) set(v decimal.Decimal) { c.value = v }

// Upgrade is a registered regular upgrade.
type Upgrade struct {
	ID       int
	MaxLevel int
	Price    cost.Model
	level    int
}

func (u *Upgrade) Level() int { return u.level }

// NextCost is the price of the next level.
func (u *Upgrade) NextCost() decimal.Decimal { return u.Price.Cost(u.level) }

// Permanent is one of the built-in permanent upgrades.
type Permanent struct {
	Kind  theory.Permanent
	Price cost.Model
	level int
}

func (p *Permanent) Level() int { return p.level }

// Milestone is a registered milestone.
type Milestone struct {
	ID          int
	MaxLevel    int
	Description string
	Info        string
	level       int
	available   bool
	onChange    func()
}

func (m *Milestone) Level() int                  { return m.level }
func (m *Milestone) Available() bool             { return m.available }
func (m *Milestone) SetAvailable(available bool) { m.available = available }

// EquationSource renders the display equations; *theory.Theory satisfies it.
type EquationSource interface {
	PrimaryEquation() string
	SecondaryEquation() string
	TertiaryEquation() string
}

// Registry implements theory.Host in memory. Like the theory it serves, it
// is not safe for concurrent use.
type Registry struct {
	currency      *Currency
	upgrades      map[int]*Upgrade
	permanents    map[theory.Permanent]*Permanent
	milestones    map[int]*Milestone
	milestoneCost cost.Model
	multiplier    decimal.Decimal
	lastTau       decimal.Decimal

	source                       EquationSource
	primary, secondary, tertiary string
	primaryStale, tertiaryStale  bool
}

var _ theory.Host = (*Registry)(nil)

// NewRegistry returns an empty host with a publication multiplier of 1.
func NewRegistry() *Registry {
	return &Registry{
		upgrades:      make(map[int]*Upgrade),
		permanents:    make(map[theory.Permanent]*Permanent),
		milestones:    make(map[int]*Milestone),
		multiplier:    bignum.One,
		lastTau:       bignum.Zero,
		primaryStale:  true,
		tertiaryStale: true,
	}
}

func (r *Registry) CreateCurrency() theory.Currency {
	if r.currency == nil {
		r.currency = &Currency{value: bignum.Zero}
	}
	return r.currency
}

func (r *Registry) CreateUpgrade(spec theory.UpgradeSpec) theory.Upgrade {
	u := &Upgrade{ID: spec.ID, MaxLevel: spec.MaxLevel, Price: spec.Cost}
	r.upgrades[spec.ID] = u
	return u
}

func (r *Registry) CreatePermanent(kind theory.Permanent, _ theory.Currency, price cost.Model) {
	r.permanents[kind] = &Permanent{Kind: kind, Price: price}
}

func (r *Registry) CreateMilestone(spec theory.MilestoneSpec) theory.Milestone {
	m := &Milestone{
		ID:          spec.ID,
		MaxLevel:    spec.MaxLevel,
		Description: spec.Description,
		Info:        spec.Info,
		available:   true,
		onChange:    spec.OnChange,
	}
	r.milestones[spec.ID] = m
	return m
}

func (r *Registry) SetMilestoneCost(price cost.Model) { r.milestoneCost = price }

func (r *Registry) PublicationMultiplier() decimal.Decimal { return r.multiplier }

func (r *Registry) InvalidatePrimaryEquation()  { r.primaryStale = true }
func (r *Registry) InvalidateTertiaryEquation() { r.tertiaryStale = true }

// Bind attaches the equation source rendered by the cache.
func (r *Registry) Bind(src EquationSource) {
	r.source = src
	r.primaryStale = true
	r.tertiaryStale = true
}

// PrimaryEquation returns the cached primary and secondary equations,
// re-rendering them only after an invalidation.
func (r *Registry) PrimaryEquation() string {
	r.refreshPrimary()
	return r.primary
}

func (r *Registry) SecondaryEquation() string {
	r.refreshPrimary()
	return r.secondary
}

func (r *Registry) refreshPrimary() {
	if r.source == nil || !r.primaryStale {
		return
	}
	r.primary = r.source.PrimaryEquation()
	r.secondary = r.source.SecondaryEquation()
	r.primaryStale = false
}

// TertiaryEquation returns the cached state equation.
func (r *Registry) TertiaryEquation() string {
	if r.source != nil && r.tertiaryStale {
		r.tertiary = r.source.TertiaryEquation()
		r.tertiaryStale = false
	}
	return r.tertiary
}

// Currency returns the registered currency, or nil before registration.
func (r *Registry) Currency() *Currency { return r.currency }

func (r *Registry) Upgrade(id int) (*Upgrade, bool) {
	u, ok := r.upgrades[id]
	return u, ok
}

func (r *Registry) Milestone(id int) (*Milestone, bool) {
	m, ok := r.milestones[id]
	return m, ok
}

func (r *Registry) Permanent(kind theory.Permanent) (*Permanent, bool) {
	p, ok := r.permanents[kind]
	return p, ok
}

// MilestoneCost prices the next milestone level given the levels already owned.
func (r *Registry) MilestoneCost(owned int) decimal.Decimal {
	if r.milestoneCost == nil {
		return bignum.Zero
	}
	return r.milestoneCost.Cost(owned)
}

// MilestoneIDs returns registered milestone ids in ascending order.
func (r *Registry) MilestoneIDs() []int {
	ids := make([]int, 0, len(r.milestones))
	for id := range r.milestones {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// UpgradeIDs returns registered upgrade ids in ascending order.
func (r *Registry) UpgradeIDs() []int {
	ids := make([]int, 0, len(r.upgrades))
	for id := range r.upgrades {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SetUpgradeLevel moves an upgrade to level, as a purchase or refund would.
func (r *Registry) SetUpgradeLevel(id, level int) error {
	u, ok := r.upgrades[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownUpgrade, id)
	}
	if level < 0 || (u.MaxLevel > 0 && level > u.MaxLevel) {
		return fmt.Errorf("%w: upgrade %d level %d (max %d)", ErrLevelOutOfRange, id, level, u.MaxLevel)
	}
	u.level = level
	// x depends on q̇, which depends on the q1 and q2 levels
	r.tertiaryStale = true
	return nil
}

// SetMilestoneLevel moves a milestone to level and fires its change hook.
func (r *Registry) SetMilestoneLevel(id, level int) error {
	m, ok := r.milestones[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownMilestone, id)
	}
	if level < 0 || level > m.MaxLevel {
		return fmt.Errorf("%w: milestone %d level %d (max %d)", ErrLevelOutOfRange, id, level, m.MaxLevel)
	}
	if m.level == level {
		return nil
	}
	m.level = level
	if m.onChange != nil {
		m.onChange()
	}
	return nil
}
