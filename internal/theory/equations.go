package theory

import (
	"strconv"
	"strings"

	"github.com/xtding233/binomial-theory/internal/bignum"
)

var milestoneDescriptions = map[MilestoneKey]string{
	MilestoneC1Exp: "Boost c_1",
	MilestoneSigma: "Enable binomial Σ expansion",
	MilestoneQ1Exp: "Boost q_1",
	MilestoneTime:  "Enable time factor in x",
}

var milestoneInfos = map[MilestoneKey]string{
	MilestoneC1Exp: "Hidden exponent on c_1 increases stepwise.",
	MilestoneSigma: `Switch (1+x)^n → Σ_{k=0}^n C(n,k)x^k`,
	MilestoneQ1Exp: "Hidden exponent on q_1 increases stepwise.",
	MilestoneTime:  `x = tq / (1+\dot q)`,
}

// PrimaryEquation renders the production formula for the owned milestones.
func (t *Theory) PrimaryEquation() string {
	var b strings.Builder
	b.WriteString(`\begin{matrix}`)
	if t.sigma.Enabled() {
		b.WriteString(`\dot{\rho} = c_1\,c_2\,\sum_{k=0}^{n}\binom{n}{k}x^k`)
	} else {
		b.WriteString(`\dot{\rho} = c_1\,c_2\,(1+x)^n`)
	}
	b.WriteString(`,\quad x = `)
	if t.time.Enabled() {
		b.WriteString(`\frac{tq}{1+\dot q}`)
	} else {
		b.WriteString(`\frac{q}{1+\dot q}`)
	}
	b.WriteString(`,\quad \dot q = q_1\,q_2`)
	b.WriteString(`\end{matrix}`)
	return b.String()
}

// SecondaryEquation renders the publication multiplier formula.
func (t *Theory) SecondaryEquation() string {
	return `\begin{matrix}` + t.PublicationMultiplierFormula(`\tau`) + `\end{matrix}`
}

// TertiaryEquation renders the live state values.
func (t *Theory) TertiaryEquation() string {
	var b strings.Builder
	b.WriteString(`\begin{matrix}`)
	if t.time.Enabled() {
		b.WriteString("t=" + bignum.Format(t.state.T, 3) + `,\; `)
	}
	b.WriteString("q=" + bignum.Format(t.state.Q, 3))
	b.WriteString(`,\; x=` + bignum.Format(t.Base(), 3))
	b.WriteString(`\end{matrix}`)
	return b.String()
}

func (t *Theory) upgradeDesc(id UpgradeID, level int) string {
	switch id {
	case UpgradeC1:
		return "c_1=" + bignum.Format(C1(level), 0)
	case UpgradeC2:
		return "c_2=2^{" + strconv.Itoa(level) + "}"
	case UpgradeN:
		return "n=" + strconv.Itoa(Order(level))
	case UpgradeQ1:
		return "q_1=" + bignum.Format(Q1(level), 0)
	case UpgradeQ2:
		return "q_2=2^{" + strconv.Itoa(level) + "}"
	}
	return ""
}

// Description renders an upgrade's current value.
func (t *Theory) Description(id UpgradeID) string {
	return `\(` + t.upgradeDesc(id, t.UpgradeLevel(id)) + `\)`
}

// Info renders the value change of buying amount more levels.
func (t *Theory) Info(id UpgradeID, amount int) string {
	level := t.UpgradeLevel(id)
	return `\(` + t.upgradeDesc(id, level) + `\rightarrow ` + t.upgradeDesc(id, level+amount) + `\)`
}
