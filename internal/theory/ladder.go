package theory

// Ladder is an ascending table of exponents indexed by milestone level.
type Ladder []float64

// At returns the step for level, holding the last step for levels past the
// end of the table. An empty ladder is the identity exponent.
func (l Ladder) At(level int) float64 {
	if len(l) == 0 {
		return 1
	}
	if level < 0 {
		level = 0
	}
	if level > len(l)-1 {
		level = len(l) - 1
	}
	return l[level]
}

// LadderMilestone is a leveled milestone that selects a hidden exponent.
type LadderMilestone struct {
	Milestone
	Steps Ladder
}

// Exponent is the ladder step for the current level.
func (m LadderMilestone) Exponent() float64 {
	return m.Steps.At(m.Level())
}

// ToggleMilestone is a single-level milestone read as a switch.
type ToggleMilestone struct {
	Milestone
}

func (m ToggleMilestone) Enabled() bool {
	return m.Level() > 0
}
