// types.go
package config

// Raw config loaded from YAML. Every field is optional so that a variant file
// only has to name what it changes.
type RawConfig struct {
	Version       string                 `yaml:"version"`
	TauMultiplier *float64               `yaml:"tau_multiplier"`
	ClampBase     *bool                  `yaml:"clamp_base"`
	Upgrades      map[string]*UpgradeCfg `yaml:"upgrades,omitempty"`
	Milestones    *MilestonesCfg         `yaml:"milestones,omitempty"`
	Permanents    *PermanentsCfg         `yaml:"permanents,omitempty"`
	Notes         string                 `yaml:"notes,omitempty"`
}

// UpgradeCfg prices one regular upgrade, either as base·2^(progress·level)
// or as a log10 formula of level.
type UpgradeCfg struct {
	Base      *float64 `yaml:"base,omitempty"`
	Progress  *float64 `yaml:"progress,omitempty"`
	Formula   string   `yaml:"formula,omitempty"`
	FirstFree *bool    `yaml:"first_free,omitempty"`
	MaxLevel  *int     `yaml:"max_level,omitempty"`
}

type MilestonesCfg struct {
	CostFormula string     `yaml:"cost_formula,omitempty"` // log10 of the price of the next milestone
	C1Exp       *LadderCfg `yaml:"c1_exp,omitempty"`
	Q1Exp       *LadderCfg `yaml:"q1_exp,omitempty"`
	Sigma       *ToggleCfg `yaml:"sigma,omitempty"`
	Time        *ToggleCfg `yaml:"time,omitempty"`
}

type LadderCfg struct {
	Steps    []float64      `yaml:"steps,omitempty"`
	MaxLevel *int           `yaml:"max_level,omitempty"`
	Requires map[string]int `yaml:"requires,omitempty"`
}

type ToggleCfg struct {
	Requires map[string]int `yaml:"requires"`
}

type PermanentsCfg struct {
	Publication *float64 `yaml:"publication,omitempty"`
	BuyAll      *float64 `yaml:"buy_all,omitempty"`
	AutoBuyer   *float64 `yaml:"auto_buyer,omitempty"`
}

// upgradeKeys are the names regular upgrades go by in YAML.
var upgradeKeys = []string{"c1", "c2", "n", "q1", "q2"}
