package host

import (
	"fmt"

	"github.com/xtding233/binomial-theory/internal/bignum"
)

// Snapshot is the registry's own save data. Together with the theory's
// internal state string it fully reconstructs a session.
type Snapshot struct {
	Currency              string      `json:"currency"`
	PublicationMultiplier string      `json:"publication_multiplier"`
	LastTau               string      `json:"last_tau"`
	Upgrades              map[int]int `json:"upgrades"`
	Milestones            map[int]int `json:"milestones"`
}

// Snapshot captures currency, publication bonus and every level.
func (r *Registry) Snapshot() Snapshot {
	s := Snapshot{
		Currency:              "0",
		PublicationMultiplier: bignum.Encode(r.multiplier),
		LastTau:               bignum.Encode(r.lastTau),
		Upgrades:              make(map[int]int, len(r.upgrades)),
		Milestones:            make(map[int]int, len(r.milestones)),
	}
	if r.currency != nil {
		s.Currency = bignum.Encode(r.currency.value)
	}
	for id, u := range r.upgrades {
		s.Upgrades[id] = u.level
	}
	for id, m := range r.milestones {
		s.Milestones[id] = m.level
	}
	return s
}

// Restore applies a snapshot onto an already populated registry. Unknown ids
// and out-of-range levels are rejected before anything changes.
func (r *Registry) Restore(s Snapshot) error {
	cur, err := bignum.Parse(s.Currency)
	if err != nil {
		return fmt.Errorf("restore currency: %w", err)
	}
	mult, err := bignum.Parse(s.PublicationMultiplier)
	if err != nil {
		return fmt.Errorf("restore publication multiplier: %w", err)
	}
	tau := bignum.Zero
	if s.LastTau != "" {
		if tau, err = bignum.Parse(s.LastTau); err != nil {
			return fmt.Errorf("restore last tau: %w", err)
		}
	}
	for id, lvl := range s.Upgrades {
		u, ok := r.upgrades[id]
		if !ok {
			return fmt.Errorf("restore: %w: %d", ErrUnknownUpgrade, id)
		}
		if lvl < 0 || (u.MaxLevel > 0 && lvl > u.MaxLevel) {
			return fmt.Errorf("restore: %w: upgrade %d level %d", ErrLevelOutOfRange, id, lvl)
		}
	}
	for id, lvl := range s.Milestones {
		m, ok := r.milestones[id]
		if !ok {
			return fmt.Errorf("restore: %w: %d", ErrUnknownMilestone, id)
		}
		if lvl < 0 || lvl > m.MaxLevel {
			return fmt.Errorf("restore: %w: milestone %d level %d", ErrLevelOutOfRange, id, lvl)
		}
	}

	if r.currency != nil {
		r.currency.set(cur)
	}
	r.multiplier = mult
	r.lastTau = tau
	for id, lvl := range s.Upgrades {
		r.upgrades[id].level = lvl
	}
	for id, lvl := range s.Milestones {
		r.milestones[id].level = lvl
	}
	for _, m := range r.milestones {
		if m.onChange != nil {
			m.onChange()
		}
	}
	r.primaryStale = true
	r.tertiaryStale = true
	return nil
}
