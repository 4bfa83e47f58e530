package config

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestValidateRawAcceptsEmpty(t *testing.T) {
	assert.NoError(t, ValidateRaw(RawConfig{}))
}

func TestValidateRawCollectsEverything(t *testing.T) {
	src := `
tau_multiplier: 0
upgrades:
  c1: {base: -5, progress: 1}
  c3: {base: 1, progress: 1}
  n: {base: 10}
  q1: {formula: "level +", max_level: -1}
  q2: {formula: "level", base: 3, progress: 1}
  c2: {first_free: true}
milestones:
  cost_formula: "nope("
  c1_exp: {steps: [1.0, 0.9], max_level: 0}
  q1_exp: {steps: [0], requires: {warp: 1}}
  time: {requires: {sigma: -1}}
permanents:
  buy_all: 0
`
	var raw RawConfig
	require.NoError(t, yaml.Unmarshal([]byte(src), &raw))

	err := ValidateRaw(raw)
	require.ErrorIs(t, err, ErrInvalid)
	for _, want := range []string{
		"tau_multiplier must be > 0",
		"upgrades.c1.base must be a finite price > 0",
		"upgrades.c3 is not an upgrade",
		"upgrades.n: base and progress must be set together",
		"upgrades.q1.formula",
		"upgrades.q1.max_level must be >= 0",
		"upgrades.q2: formula and base/progress are mutually exclusive",
		"upgrades.c2.first_free needs a formula or base/progress",
		"milestones.cost_formula",
		"milestones.c1_exp.steps must be ascending (step 1)",
		"milestones.c1_exp.max_level must be >= 1",
		"milestones.q1_exp.steps[0] must be a finite exponent > 0",
		"milestones.q1_exp.requires.warp is not a milestone",
		"milestones.time.requires.sigma must be >= 0",
		"permanents.buy_all must be a finite price > 0",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateRawNonFinite(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)
	raw := RawConfig{
		TauMultiplier: &nan,
		Upgrades: map[string]*UpgradeCfg{
			"c1": {Base: &inf, Progress: &nan},
		},
	}
	err := ValidateRaw(raw)
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "tau_multiplier")
	assert.Contains(t, err.Error(), "upgrades.c1.base")
	assert.Contains(t, err.Error(), "upgrades.c1.progress must be finite")
}

func TestNormalizeCatchesCycles(t *testing.T) {
	raw := RawConfig{Milestones: &MilestonesCfg{
		C1Exp: &LadderCfg{Requires: map[string]int{"time": 1}},
	}}
	require.NoError(t, ValidateRaw(raw), "cycles are only visible once requirements are combined")
	_, err := Normalize(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}
