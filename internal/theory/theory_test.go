package theory

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/binomial-theory/internal/bignum"
)

func newTestTheory(t *testing.T, mutate ...func(*Config)) (*Theory, *fakeHost) {
	t.Helper()
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	h := newFakeHost()
	th, err := New(cfg, h)
	require.NoError(t, err)
	return th, h
}

func TestNewRegistersEverything(t *testing.T) {
	_, h := newTestTheory(t)

	assert.NotNil(t, h.currency)
	assert.Len(t, h.upgrades, 5)
	assert.Len(t, h.milestones, 4)
	assert.Len(t, h.permanents, 3)
	for _, k := range MilestoneKeys {
		assert.Contains(t, h.milestones, MilestoneID(k))
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TauMultiplier = 0
	cfg.C1Exp.Steps = nil
	cfg.Time.Requires = Requirements{"bogus": 1}
	_, err := New(cfg, newFakeHost())
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "tau multiplier")
	assert.Contains(t, err.Error(), "c1_exp has no steps")
	assert.Contains(t, err.Error(), "unknown milestone bogus")

	_, err = New(DefaultConfig(), nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigRejectsRequirementCycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.C1Exp.Requires = Requirements{MilestoneTime: 1}
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "cycle")
}

func TestTickAllLevelsZero(t *testing.T) {
	th, h := newTestTheory(t)

	th.Tick(1, 1)

	s := th.State()
	assert.True(t, s.T.Equal(bignum.One))
	// q1(0) is the empty stepwise sum, so q̇ = 0 until q1 is bought
	assert.True(t, th.Velocity().IsZero())
	assert.True(t, s.Q.IsZero())
	assert.True(t, h.currency.v.IsZero(), "c1(0) = 0 produces nothing")
	assert.Equal(t, 1, h.tertiaryInvalidations)
}

func TestTickFirstLevels(t *testing.T) {
	th, h := newTestTheory(t)
	h.upgrade(UpgradeQ1, 1)
	h.upgrade(UpgradeC1, 1)

	assert.True(t, th.Velocity().Equal(bignum.One))
	th.Tick(1, 1)

	s := th.State()
	assert.True(t, s.Q.Equal(bignum.One))
	// x = q/(1+q̇) = 1/2, driver = (1+x)^1
	assert.True(t, th.Base().Equal(decimal.RequireFromString("0.5")))
	assert.True(t, h.currency.v.Equal(decimal.RequireFromString("1.5")), "got %s", h.currency.v)
}

func TestTickRejectsBadFrames(t *testing.T) {
	th, h := newTestTheory(t)
	h.upgrade(UpgradeQ1, 5)
	th.Tick(-1, 1)
	th.Tick(0, 1)
	th.Tick(1, 0)

	s := th.State()
	assert.True(t, s.T.IsZero())
	assert.True(t, s.Q.IsZero())
	assert.Equal(t, 0, h.tertiaryInvalidations)
}

func TestTickMonotonic(t *testing.T) {
	th, h := newTestTheory(t)
	h.upgrade(UpgradeC1, 12)
	h.upgrade(UpgradeC2, 3)
	h.upgrade(UpgradeN, 4)
	h.upgrade(UpgradeQ1, 25)
	h.upgrade(UpgradeQ2, 7)
	h.milestone(MilestoneC1Exp, 5)
	h.milestone(MilestoneSigma, 1)
	h.milestone(MilestoneQ1Exp, 3)
	h.milestone(MilestoneTime, 1)

	prev := th.State()
	prevRho := h.currency.v
	for i := 0; i < 500; i++ {
		th.Tick(0.1, 1+float64(i%3))
		s := th.State()
		require.True(t, s.T.GreaterThan(prev.T))
		require.True(t, s.Q.GreaterThan(prev.Q))
		require.True(t, h.currency.v.GreaterThan(prevRho))
		prev, prevRho = s, h.currency.v
	}
	assert.LessOrEqual(t, h.currency.v.NumDigits(), bignum.Precision)
	assert.LessOrEqual(t, prev.Q.NumDigits(), bignum.Precision)
}

func TestHiddenExponents(t *testing.T) {
	th, h := newTestTheory(t)
	assert.Equal(t, 1.0, th.AlphaC())
	assert.Equal(t, 1.0, th.AlphaQ())

	h.milestone(MilestoneC1Exp, 3)
	h.milestone(MilestoneQ1Exp, 2)
	assert.Equal(t, 1.06, th.AlphaC())
	assert.Equal(t, 1.10, th.AlphaQ())

	h.upgrade(UpgradeC1, 10)
	closeTo(t, bignum.Pow(decimal.NewFromInt(10), 1.06), th.C1Value(), 1e-12)
}

func TestSigmaToggleKeepsProduction(t *testing.T) {
	run := func(sigma bool) decimal.Decimal {
		th, h := newTestTheory(t, func(c *Config) { c.Sigma.Requires = nil })
		h.upgrade(UpgradeC1, 5)
		h.upgrade(UpgradeN, 3)
		h.upgrade(UpgradeQ1, 1)
		if sigma {
			h.milestone(MilestoneSigma, 1)
		}
		for i := 0; i < 20; i++ {
			th.Tick(0.1, 1)
		}
		return h.currency.v
	}
	closeTo(t, run(false), run(true), 1e-30)
}

func TestClampPolicy(t *testing.T) {
	th, h := newTestTheory(t, func(c *Config) { c.ClampBase = true })
	h.upgrade(UpgradeQ1, 1)
	th.SetInternalState("0 1000")
	assert.True(t, th.Base().Equal(bignum.One))

	free, h2 := newTestTheory(t)
	h2.upgrade(UpgradeQ1, 1)
	free.SetInternalState("0 1000")
	assert.True(t, free.Base().Equal(decimal.NewFromInt(500)))
}

func TestMilestoneAvailability(t *testing.T) {
	th, h := newTestTheory(t)

	assert.True(t, h.available(MilestoneC1Exp))
	assert.True(t, h.available(MilestoneQ1Exp))
	assert.False(t, h.available(MilestoneSigma))
	assert.False(t, h.available(MilestoneTime))

	h.milestone(MilestoneC1Exp, 2)
	assert.True(t, h.available(MilestoneSigma))
	assert.False(t, h.available(MilestoneTime))

	h.milestone(MilestoneSigma, 1)
	assert.False(t, h.available(MilestoneTime), "q1_exp still below threshold")

	h.milestone(MilestoneQ1Exp, 1)
	assert.True(t, h.available(MilestoneTime))

	h.milestone(MilestoneQ1Exp, 0)
	assert.False(t, h.available(MilestoneTime), "refunding a prerequisite hides it again")

	h.milestone(MilestoneQ1Exp, 1)
	h.milestone(MilestoneC1Exp, 1)
	assert.False(t, h.available(MilestoneSigma))
	assert.True(t, h.available(MilestoneTime), "time only depends on sigma and q1_exp")
	assert.Equal(t, 1, th.MilestoneLevel(MilestoneSigma))
}

func TestMilestoneChangeInvalidatesPrimary(t *testing.T) {
	_, h := newTestTheory(t)
	before := h.primaryInvalidations
	h.milestone(MilestoneC1Exp, 1)
	assert.Greater(t, h.primaryInvalidations, before)
}

func TestPrimaryEquationFollowsToggles(t *testing.T) {
	th, h := newTestTheory(t, func(c *Config) {
		c.Sigma.Requires = nil
		c.Time.Requires = nil
	})
	eq := th.PrimaryEquation()
	assert.Contains(t, eq, `(1+x)^n`)
	assert.Contains(t, eq, `\frac{q}{1+\dot q}`)

	h.milestone(MilestoneSigma, 1)
	h.milestone(MilestoneTime, 1)
	eq = th.PrimaryEquation()
	assert.Contains(t, eq, `\sum_{k=0}^{n}\binom{n}{k}x^k`)
	assert.Contains(t, eq, `\frac{tq}{1+\dot q}`)
}

func TestTertiaryEquation(t *testing.T) {
	th, h := newTestTheory(t, func(c *Config) { c.Time.Requires = nil })
	th.SetInternalState("2 3")
	eq := th.TertiaryEquation()
	assert.NotContains(t, eq, "t=")
	assert.Contains(t, eq, "q=3.000")
	assert.Contains(t, eq, "x=3.000")

	h.milestone(MilestoneTime, 1)
	eq = th.TertiaryEquation()
	assert.Contains(t, eq, "t=2.000")
	assert.Contains(t, eq, "x=6.000")
}

func TestUpgradeDescriptions(t *testing.T) {
	th, h := newTestTheory(t)
	h.upgrade(UpgradeC1, 11)
	h.upgrade(UpgradeC2, 3)
	h.upgrade(UpgradeN, 2)

	assert.Equal(t, `\(c_1=12\)`, th.Description(UpgradeC1))
	assert.Equal(t, `\(c_2=2^{3}\)`, th.Description(UpgradeC2))
	assert.Equal(t, `\(n=3\)`, th.Description(UpgradeN))
	assert.Equal(t, `\(n=3\rightarrow n=5\)`, th.Info(UpgradeN, 2))
	assert.Equal(t, `\(q_1=0\rightarrow q_1=1\)`, th.Info(UpgradeQ1, 1))
}

func TestInternalStateRoundTrip(t *testing.T) {
	th, h := newTestTheory(t)
	h.upgrade(UpgradeQ1, 30)
	h.upgrade(UpgradeQ2, 40)
	for i := 0; i < 50; i++ {
		th.Tick(0.1, 1)
	}
	saved := th.State()
	encoded := th.InternalState()

	other, _ := newTestTheory(t)
	other.SetInternalState(encoded)
	restored := other.State()
	assert.True(t, saved.T.Equal(restored.T), "t: %s vs %s", saved.T, restored.T)
	assert.True(t, saved.Q.Equal(restored.Q), "q: %s vs %s", saved.Q, restored.Q)
}

func TestSetInternalStatePlainDecimals(t *testing.T) {
	th, _ := newTestTheory(t)
	th.SetInternalState("3.5 10")

	out := th.InternalState()
	parts := strings.Fields(out)
	require.Len(t, parts, 2)
	tv, err := bignum.Parse(parts[0])
	require.NoError(t, err)
	qv, err := bignum.Parse(parts[1])
	require.NoError(t, err)
	assert.True(t, tv.Equal(decimal.RequireFromString("3.5")))
	assert.True(t, qv.Equal(decimal.NewFromInt(10)))
}

func TestSetInternalStatePartialInput(t *testing.T) {
	th, _ := newTestTheory(t)
	th.SetInternalState("4 9")

	th.SetInternalState("7")
	s := th.State()
	assert.True(t, s.T.Equal(decimal.NewFromInt(7)))
	assert.True(t, s.Q.Equal(decimal.NewFromInt(9)), "missing q keeps its prior value")

	th.SetInternalState("")
	th.SetInternalState("garbage 11")
	s = th.State()
	assert.True(t, s.T.Equal(decimal.NewFromInt(7)), "malformed t keeps its prior value")
	assert.True(t, s.Q.Equal(decimal.NewFromInt(11)))

	th.SetInternalState("  5\t\t6  ")
	s = th.State()
	assert.True(t, s.T.Equal(decimal.NewFromInt(5)))
	assert.True(t, s.Q.Equal(decimal.NewFromInt(6)))
}

func TestPostPublishResets(t *testing.T) {
	th, h := newTestTheory(t)
	h.upgrade(UpgradeQ1, 3)
	for i := 0; i < 10; i++ {
		th.Tick(1, 1)
	}
	require.False(t, th.State().Q.IsZero())

	th.PostPublish()
	s := th.State()
	assert.True(t, s.T.IsZero())
	assert.True(t, s.Q.IsZero())

	th.PostPublish()
	assert.True(t, th.State().T.IsZero())
}

func TestPublicationFunctions(t *testing.T) {
	th, h := newTestTheory(t)

	assert.True(t, th.Tau().IsZero())
	assert.True(t, th.PublicationMultiplier(bignum.Zero).Equal(bignum.One))
	assert.Equal(t, `{\tau}^{0.375}`, th.PublicationMultiplierFormula(`\tau`))
	assert.Equal(t, 0.0, th.GraphValue())

	h.currency.v = bignum.PowInt(bignum.Ten, 100)
	tau := th.Tau()
	assert.InDelta(t, 40, bignum.Log10(tau), 1e-9)
	assert.InDelta(t, 15, bignum.Log10(th.PublicationMultiplier(tau)), 1e-9)

	back, symbol := th.CurrencyFromTau(tau)
	assert.Equal(t, CurrencySymbol, symbol)
	assert.InDelta(t, 100, bignum.Log10(back), 1e-9)

	one, _ := th.CurrencyFromTau(decimal.RequireFromString("0.5"))
	assert.True(t, one.Equal(bignum.One))

	assert.InDelta(t, 100, th.GraphValue(), 1e-9)
}
