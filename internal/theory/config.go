package theory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xtding233/binomial-theory/internal/cost"
)

var ErrInvalidConfig = errors.New("invalid theory config")

// MilestoneKey names a milestone in requirement maps and config files.
type MilestoneKey string

const (
	MilestoneC1Exp MilestoneKey = "c1_exp"
	MilestoneSigma MilestoneKey = "sigma"
	MilestoneQ1Exp MilestoneKey = "q1_exp"
	MilestoneTime  MilestoneKey = "time"
)

// MilestoneKeys lists milestones in registration order.
var MilestoneKeys = []MilestoneKey{MilestoneC1Exp, MilestoneSigma, MilestoneQ1Exp, MilestoneTime}

// Requirements maps a prerequisite milestone to the level it must reach.
type Requirements map[MilestoneKey]int

type UpgradeConfig struct {
	Cost     cost.Model
	MaxLevel int
}

type LadderConfig struct {
	Steps    Ladder
	MaxLevel int
	Requires Requirements
}

type ToggleConfig struct {
	Requires Requirements
}

type PermanentConfig struct {
	Publication decimal.Decimal
	BuyAll      decimal.Decimal
	AutoBuyer   decimal.Decimal
}

// Config carries every tunable of the theory.
type Config struct {
	TauMultiplier float64
	// ClampBase clamps x to [-1, 1] before the driver. Off by default; the
	// power and Σ branches then agree for every x.
	ClampBase bool

	C1, C2, N, Q1, Q2 UpgradeConfig

	C1Exp, Q1Exp LadderConfig
	Sigma, Time  ToggleConfig

	MilestoneCost cost.Model
	Permanents    PermanentConfig
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	must := func(m cost.Exponential, err error) cost.Exponential {
		if err != nil {
			panic(err)
		}
		return m
	}
	milestoneCost, err := cost.NewExpr("50 + 25 * level")
	if err != nil {
		panic(err)
	}
	return Config{
		TauMultiplier: 4,
		C1:            UpgradeConfig{Cost: cost.FirstFree{Inner: must(cost.NewExponential(50, 3.38/1.5))}},
		C2:            UpgradeConfig{Cost: must(cost.NewExponential(1e6, 3.38*5))},
		N:             UpgradeConfig{Cost: must(cost.NewExponential(1e4, 250)), MaxLevel: 4},
		Q1:            UpgradeConfig{Cost: must(cost.NewExponential(15, 3.38/3.5))},
		Q2:            UpgradeConfig{Cost: must(cost.NewExponential(2000, 3.38*4))},
		C1Exp: LadderConfig{
			Steps:    Ladder{1.00, 1.02, 1.04, 1.06, 1.08, 1.10},
			MaxLevel: 5,
		},
		Q1Exp: LadderConfig{
			Steps:    Ladder{1.00, 1.05, 1.10, 1.15},
			MaxLevel: 3,
		},
		Sigma:         ToggleConfig{Requires: Requirements{MilestoneC1Exp: 2}},
		Time:          ToggleConfig{Requires: Requirements{MilestoneSigma: 1, MilestoneQ1Exp: 1}},
		MilestoneCost: milestoneCost,
		Permanents: PermanentConfig{
			Publication: decimal.NewFromFloat(1e8),
			BuyAll:      decimal.NewFromFloat(1e15),
			AutoBuyer:   decimal.NewFromFloat(1e25),
		},
	}
}

func (c Config) requirements(k MilestoneKey) Requirements {
	switch k {
	case MilestoneC1Exp:
		return c.C1Exp.Requires
	case MilestoneSigma:
		return c.Sigma.Requires
	case MilestoneQ1Exp:
		return c.Q1Exp.Requires
	case MilestoneTime:
		return c.Time.Requires
	}
	return nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []string
	if !(c.TauMultiplier > 0) {
		errs = append(errs, "tau multiplier must be > 0")
	}
	for name, u := range map[string]UpgradeConfig{"c1": c.C1, "c2": c.C2, "n": c.N, "q1": c.Q1, "q2": c.Q2} {
		if u.Cost == nil {
			errs = append(errs, fmt.Sprintf("upgrade %s has no cost", name))
		}
		if u.MaxLevel < 0 {
			errs = append(errs, fmt.Sprintf("upgrade %s max level must be >= 0", name))
		}
	}
	for name, l := range map[string]LadderConfig{"c1_exp": c.C1Exp, "q1_exp": c.Q1Exp} {
		if len(l.Steps) == 0 {
			errs = append(errs, fmt.Sprintf("ladder %s has no steps", name))
		}
		for i := 1; i < len(l.Steps); i++ {
			if l.Steps[i] < l.Steps[i-1] {
				errs = append(errs, fmt.Sprintf("ladder %s must be ascending at step %d", name, i))
			}
		}
		if l.MaxLevel < 1 {
			errs = append(errs, fmt.Sprintf("ladder %s max level must be >= 1", name))
		}
	}
	if c.MilestoneCost == nil {
		errs = append(errs, "milestone cost is required")
	}
	for _, k := range MilestoneKeys {
		for dep, lvl := range c.requirements(k) {
			if !knownMilestone(dep) {
				errs = append(errs, fmt.Sprintf("milestone %s requires unknown milestone %s", k, dep))
			}
			if lvl < 0 {
				errs = append(errs, fmt.Sprintf("milestone %s requirement on %s must be >= 0", k, dep))
			}
		}
	}
	if k, ok := c.requirementCycle(); ok {
		errs = append(errs, fmt.Sprintf("milestone requirements form a cycle through %s", k))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

func knownMilestone(k MilestoneKey) bool {
	for _, m := range MilestoneKeys {
		if m == k {
			return true
		}
	}
	return false
}

// requirementCycle runs a depth-first search over the prerequisite graph.
func (c Config) requirementCycle() (MilestoneKey, bool) {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[MilestoneKey]int)
	var visit func(k MilestoneKey) bool
	visit = func(k MilestoneKey) bool {
		switch state[k] {
		case active:
			return true
		case done:
			return false
		}
		state[k] = active
		for dep := range c.requirements(k) {
			if knownMilestone(dep) && visit(dep) {
				return true
			}
		}
		state[k] = done
		return false
	}
	for _, k := range MilestoneKeys {
		if visit(k) {
			return k, true
		}
	}
	return "", false
}
