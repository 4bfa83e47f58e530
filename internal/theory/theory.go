// Package theory implements the Binomial Distribution theory: two state
// variables t and q integrated every tick, and a driver (1+x)^n or its
// binomial Σ expansion that scales currency production.
package theory

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/xtding233/binomial-theory/internal/bignum"
	"github.com/xtding233/binomial-theory/internal/cost"
)

const (
	ID      = "binomial_distribution"
	Name    = "Binomial Distribution"
	Authors = "Maimai"
	Version = 13

	// CurrencySymbol is the LaTeX symbol of the theory currency.
	CurrencySymbol = `\rho`
)

// UpgradeID is the host registry id of a regular upgrade.
type UpgradeID int

const (
	UpgradeC1 UpgradeID = iota
	UpgradeC2
	UpgradeN
	UpgradeQ1
	UpgradeQ2
)

// UpgradeIDs lists the regular upgrades in registration order.
var UpgradeIDs = []UpgradeID{UpgradeC1, UpgradeC2, UpgradeN, UpgradeQ1, UpgradeQ2}

func (u UpgradeID) String() string {
	switch u {
	case UpgradeC1:
		return "c1"
	case UpgradeC2:
		return "c2"
	case UpgradeN:
		return "n"
	case UpgradeQ1:
		return "q1"
	case UpgradeQ2:
		return "q2"
	}
	return fmt.Sprintf("upgrade(%d)", int(u))
}

// MilestoneID is the host registry id of a milestone.
func MilestoneID(k MilestoneKey) int {
	switch k {
	case MilestoneC1Exp:
		return 1
	case MilestoneSigma:
		return 2
	case MilestoneQ1Exp:
		return 3
	case MilestoneTime:
		return 4
	}
	return 0
}

// Theory owns the simulation state and the handles it was given by the host.
// It is driven from a single goroutine; nothing inside locks.
type Theory struct {
	cfg    Config
	host   Host
	logger *slog.Logger

	state    State
	currency Currency

	upgrades map[UpgradeID]Upgrade

	c1Exp LadderMilestone
	q1Exp LadderMilestone
	sigma ToggleMilestone
	time  ToggleMilestone

	milestones map[MilestoneKey]Milestone
}

type Option func(*Theory)

// WithLogger sets the logger; slog.Default() otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(t *Theory) { t.logger = l }
}

// New validates cfg and registers the currency, upgrades, permanents and
// milestones with host.
func New(cfg Config, host Host, opts ...Option) (*Theory, error) {
	if host == nil {
		return nil, fmt.Errorf("%w: host is nil", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Theory{
		cfg:        cfg,
		host:       host,
		logger:     slog.Default(),
		state:      State{T: bignum.Zero, Q: bignum.Zero},
		upgrades:   make(map[UpgradeID]Upgrade, len(UpgradeIDs)),
		milestones: make(map[MilestoneKey]Milestone, len(MilestoneKeys)),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.currency = host.CreateCurrency()
	for _, id := range UpgradeIDs {
		uc := t.upgradeConfig(id)
		t.upgrades[id] = host.CreateUpgrade(UpgradeSpec{
			ID:       int(id),
			Currency: t.currency,
			Cost:     uc.Cost,
			MaxLevel: uc.MaxLevel,
		})
	}

	host.CreatePermanent(PermanentPublication, t.currency, cost.Constant{Value: cfg.Permanents.Publication})
	host.CreatePermanent(PermanentBuyAll, t.currency, cost.Constant{Value: cfg.Permanents.BuyAll})
	host.CreatePermanent(PermanentAutoBuyer, t.currency, cost.Constant{Value: cfg.Permanents.AutoBuyer})

	host.SetMilestoneCost(cfg.MilestoneCost)
	for _, k := range MilestoneKeys {
		t.milestones[k] = host.CreateMilestone(MilestoneSpec{
			ID:          MilestoneID(k),
			MaxLevel:    t.milestoneMax(k),
			Description: milestoneDescriptions[k],
			Info:        milestoneInfos[k],
			OnChange:    t.milestoneChanged,
		})
	}
	t.c1Exp = LadderMilestone{Milestone: t.milestones[MilestoneC1Exp], Steps: cfg.C1Exp.Steps}
	t.q1Exp = LadderMilestone{Milestone: t.milestones[MilestoneQ1Exp], Steps: cfg.Q1Exp.Steps}
	t.sigma = ToggleMilestone{Milestone: t.milestones[MilestoneSigma]}
	t.time = ToggleMilestone{Milestone: t.milestones[MilestoneTime]}

	t.UpdateAvailability()
	return t, nil
}

func (t *Theory) upgradeConfig(id UpgradeID) UpgradeConfig {
	switch id {
	case UpgradeC1:
		return t.cfg.C1
	case UpgradeC2:
		return t.cfg.C2
	case UpgradeN:
		return t.cfg.N
	case UpgradeQ1:
		return t.cfg.Q1
	}
	return t.cfg.Q2
}

func (t *Theory) milestoneMax(k MilestoneKey) int {
	switch k {
	case MilestoneC1Exp:
		return t.cfg.C1Exp.MaxLevel
	case MilestoneQ1Exp:
		return t.cfg.Q1Exp.MaxLevel
	}
	return 1
}

func (t *Theory) milestoneChanged() {
	t.UpdateAvailability()
	t.host.InvalidatePrimaryEquation()
}

// UpdateAvailability shows each milestone only while all of its
// prerequisites are at or above their required level.
func (t *Theory) UpdateAvailability() {
	for _, k := range MilestoneKeys {
		available := true
		for dep, lvl := range t.cfg.requirements(k) {
			if t.milestones[dep].Level() < lvl {
				available = false
				break
			}
		}
		t.milestones[k].SetAvailable(available)
	}
	t.host.InvalidatePrimaryEquation()
}

// Tick advances the theory by one engine frame.
func (t *Theory) Tick(elapsed, multiplier float64) {
	dt, ok := DeltaTime(elapsed, multiplier)
	if !ok {
		t.logger.Debug("tick skipped", "elapsed", elapsed, "multiplier", multiplier)
		return
	}

	qdot := t.Velocity()
	t.state.Advance(dt, qdot)

	x := NormalizedBase(t.state.T, t.state.Q, qdot, t.time.Enabled(), t.cfg.ClampBase)
	driver := ComputeDriver(t.Order(), x, t.sigma.Enabled())
	Accrue(t.currency, t.host.PublicationMultiplier(), t.C1Value(), t.C2Value(), driver, dt)

	t.host.InvalidateTertiaryEquation()
}

// State returns a copy of t and q.
func (t *Theory) State() State { return t.state }

// Config returns the configuration the theory was built with.
func (t *Theory) Config() Config { return t.cfg }

// Currency is the accumulator the theory produces into.
func (t *Theory) Currency() Currency { return t.currency }

// UpgradeLevel reads a regular upgrade's level from the host.
func (t *Theory) UpgradeLevel(id UpgradeID) int {
	u, ok := t.upgrades[id]
	if !ok {
		return 0
	}
	return u.Level()
}

// MilestoneLevel reads a milestone's level from the host.
func (t *Theory) MilestoneLevel(k MilestoneKey) int {
	m, ok := t.milestones[k]
	if !ok {
		return 0
	}
	return m.Level()
}

// AlphaC is the hidden exponent on c1.
func (t *Theory) AlphaC() float64 { return t.c1Exp.Exponent() }

// AlphaQ is the hidden exponent on q1.
func (t *Theory) AlphaQ() float64 { return t.q1Exp.Exponent() }

// C1Value is c1^αc.
func (t *Theory) C1Value() decimal.Decimal {
	return bignum.Pow(C1(t.UpgradeLevel(UpgradeC1)), t.AlphaC())
}

// C2Value is 2^level.
func (t *Theory) C2Value() decimal.Decimal { return C2(t.UpgradeLevel(UpgradeC2)) }

// Order is the current expansion order n.
func (t *Theory) Order() int { return Order(t.UpgradeLevel(UpgradeN)) }

// Velocity is the current q̇.
func (t *Theory) Velocity() decimal.Decimal {
	return Velocity(Q1(t.UpgradeLevel(UpgradeQ1)), t.AlphaQ(), Q2(t.UpgradeLevel(UpgradeQ2)))
}

// Base is the current normalized driver input x.
func (t *Theory) Base() decimal.Decimal {
	return NormalizedBase(t.state.T, t.state.Q, t.Velocity(), t.time.Enabled(), t.cfg.ClampBase)
}

// Driver is the current driver value.
func (t *Theory) Driver() decimal.Decimal {
	return ComputeDriver(t.Order(), t.Base(), t.sigma.Enabled())
}

// SigmaEnabled reports whether the Σ expansion milestone is owned.
func (t *Theory) SigmaEnabled() bool { return t.sigma.Enabled() }

// TimeEnabled reports whether the time factor milestone is owned.
func (t *Theory) TimeEnabled() bool { return t.time.Enabled() }
