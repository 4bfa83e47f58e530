package config

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xtding233/binomial-theory/internal/bignum"
	"github.com/xtding233/binomial-theory/internal/cost"
	"github.com/xtding233/binomial-theory/internal/theory"
)

// Normalize overlays a validated RawConfig onto theory.DefaultConfig.
func Normalize(raw RawConfig) (theory.Config, error) {
	cfg := theory.DefaultConfig()

	if raw.TauMultiplier != nil {
		cfg.TauMultiplier = *raw.TauMultiplier
	}
	if raw.ClampBase != nil {
		cfg.ClampBase = *raw.ClampBase
	}

	targets := map[string]*theory.UpgradeConfig{
		"c1": &cfg.C1,
		"c2": &cfg.C2,
		"n":  &cfg.N,
		"q1": &cfg.Q1,
		"q2": &cfg.Q2,
	}
	for name, u := range raw.Upgrades {
		dst, ok := targets[name]
		if !ok || u == nil {
			continue
		}
		if err := applyUpgrade(dst, u); err != nil {
			return theory.Config{}, fmt.Errorf("upgrades.%s: %w", name, err)
		}
	}

	if m := raw.Milestones; m != nil {
		if m.CostFormula != "" {
			c, err := cost.NewExpr(m.CostFormula)
			if err != nil {
				return theory.Config{}, fmt.Errorf("milestones.cost_formula: %w", err)
			}
			cfg.MilestoneCost = c
		}
		applyLadder(&cfg.C1Exp, m.C1Exp)
		applyLadder(&cfg.Q1Exp, m.Q1Exp)
		if m.Sigma != nil && m.Sigma.Requires != nil {
			cfg.Sigma.Requires = requirements(m.Sigma.Requires)
		}
		if m.Time != nil && m.Time.Requires != nil {
			cfg.Time.Requires = requirements(m.Time.Requires)
		}
	}

	if p := raw.Permanents; p != nil {
		for _, f := range []struct {
			src *float64
			dst *decimal.Decimal
		}{
			{p.Publication, &cfg.Permanents.Publication},
			{p.BuyAll, &cfg.Permanents.BuyAll},
			{p.AutoBuyer, &cfg.Permanents.AutoBuyer},
		} {
			if f.src == nil {
				continue
			}
			v, err := bignum.FromFloat(*f.src)
			if err != nil {
				return theory.Config{}, fmt.Errorf("permanents: %w", err)
			}
			*f.dst = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return theory.Config{}, err
	}
	return cfg, nil
}

func applyUpgrade(dst *theory.UpgradeConfig, u *UpgradeCfg) error {
	var price cost.Model
	switch {
	case u.Formula != "":
		c, err := cost.NewExpr(u.Formula)
		if err != nil {
			return err
		}
		price = c
	case u.Base != nil && u.Progress != nil:
		c, err := cost.NewExponential(*u.Base, *u.Progress)
		if err != nil {
			return err
		}
		price = c
	}
	if price != nil {
		if u.FirstFree != nil && *u.FirstFree {
			price = cost.FirstFree{Inner: price}
		}
		dst.Cost = price
	}
	if u.MaxLevel != nil {
		dst.MaxLevel = *u.MaxLevel
	}
	return nil
}

func applyLadder(dst *theory.LadderConfig, l *LadderCfg) {
	if l == nil {
		return
	}
	if len(l.Steps) > 0 {
		dst.Steps = append(theory.Ladder(nil), l.Steps...)
	}
	if l.MaxLevel != nil {
		dst.MaxLevel = *l.MaxLevel
	}
	if l.Requires != nil {
		dst.Requires = requirements(l.Requires)
	}
}

func requirements(m map[string]int) theory.Requirements {
	out := make(theory.Requirements, len(m))
	for k, v := range m {
		out[theory.MilestoneKey(k)] = v
	}
	return out
}
