package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/xtding233/binomial-theory/internal/cost"
	"github.com/xtding233/binomial-theory/internal/theory"
)

var ErrInvalid = errors.New("config validation failed")

// ValidateRaw checks semantic constraints of a RawConfig.
func ValidateRaw(cfg RawConfig) error {
	var errs []string

	if cfg.TauMultiplier != nil && !(*cfg.TauMultiplier > 0) {
		errs = append(errs, "tau_multiplier must be > 0")
	}

	// upgrades, in a stable order for readable errors
	names := make([]string, 0, len(cfg.Upgrades))
	for name := range cfg.Upgrades {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		u := cfg.Upgrades[name]
		if !knownUpgrade(name) {
			errs = append(errs, fmt.Sprintf("upgrades.%s is not an upgrade (want one of: %s)", name, strings.Join(upgradeKeys, ", ")))
			continue
		}
		if u == nil {
			continue
		}
		errs = append(errs, validateUpgrade("upgrades."+name, u)...)
	}

	// milestones
	if m := cfg.Milestones; m != nil {
		if m.CostFormula != "" {
			if _, err := cost.NewExpr(m.CostFormula); err != nil {
				errs = append(errs, fmt.Sprintf("milestones.cost_formula: %v", err))
			}
		}
		errs = append(errs, validateLadder("milestones.c1_exp", m.C1Exp)...)
		errs = append(errs, validateLadder("milestones.q1_exp", m.Q1Exp)...)
		if m.Sigma != nil {
			errs = append(errs, validateRequires("milestones.sigma", m.Sigma.Requires)...)
		}
		if m.Time != nil {
			errs = append(errs, validateRequires("milestones.time", m.Time.Requires)...)
		}
	}

	// permanents
	if p := cfg.Permanents; p != nil {
		for name, v := range map[string]*float64{"publication": p.Publication, "buy_all": p.BuyAll, "auto_buyer": p.AutoBuyer} {
			if v != nil && !positiveFinite(*v) {
				errs = append(errs, fmt.Sprintf("permanents.%s must be a finite price > 0", name))
			}
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}

func validateUpgrade(path string, u *UpgradeCfg) []string {
	var errs []string
	hasCurve := u.Base != nil || u.Progress != nil
	switch {
	case u.Formula != "" && hasCurve:
		errs = append(errs, path+": formula and base/progress are mutually exclusive")
	case u.Formula != "":
		if _, err := cost.NewExpr(u.Formula); err != nil {
			errs = append(errs, fmt.Sprintf("%s.formula: %v", path, err))
		}
	case hasCurve:
		if u.Base == nil || u.Progress == nil {
			errs = append(errs, path+": base and progress must be set together")
		}
		if u.Base != nil && !positiveFinite(*u.Base) {
			errs = append(errs, path+".base must be a finite price > 0")
		}
		if u.Progress != nil && (math.IsNaN(*u.Progress) || math.IsInf(*u.Progress, 0)) {
			errs = append(errs, path+".progress must be finite")
		}
	case u.FirstFree != nil:
		errs = append(errs, path+".first_free needs a formula or base/progress")
	}
	if u.MaxLevel != nil && *u.MaxLevel < 0 {
		errs = append(errs, path+".max_level must be >= 0 (0 means unbounded)")
	}
	return errs
}

func validateLadder(path string, l *LadderCfg) []string {
	if l == nil {
		return nil
	}
	var errs []string
	for i, s := range l.Steps {
		if !positiveFinite(s) {
			errs = append(errs, fmt.Sprintf("%s.steps[%d] must be a finite exponent > 0", path, i))
		}
		if i > 0 && s < l.Steps[i-1] {
			errs = append(errs, fmt.Sprintf("%s.steps must be ascending (step %d)", path, i))
		}
	}
	if l.MaxLevel != nil && *l.MaxLevel < 1 {
		errs = append(errs, path+".max_level must be >= 1")
	}
	return append(errs, validateRequires(path, l.Requires)...)
}

func validateRequires(path string, req map[string]int) []string {
	var errs []string
	for dep, lvl := range req {
		if !knownMilestone(dep) {
			errs = append(errs, fmt.Sprintf("%s.requires.%s is not a milestone", path, dep))
		}
		if lvl < 0 {
			errs = append(errs, fmt.Sprintf("%s.requires.%s must be >= 0", path, dep))
		}
	}
	return errs
}

func knownUpgrade(name string) bool {
	for _, k := range upgradeKeys {
		if k == name {
			return true
		}
	}
	return false
}

func knownMilestone(name string) bool {
	for _, k := range theory.MilestoneKeys {
		if string(k) == name {
			return true
		}
	}
	return false
}

func positiveFinite(f float64) bool {
	return f > 0 && !math.IsInf(f, 1)
}
