package server

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xtding233/binomial-theory/internal/bignum"
	"github.com/xtding233/binomial-theory/internal/host"
	"github.com/xtding233/binomial-theory/internal/store"
	"github.com/xtding233/binomial-theory/internal/theory"
)

// Session is one theory on its own in-memory host. The theory and registry
// are single-threaded, so every access goes through mu.
type Session struct {
	ID      uuid.UUID
	Variant string
	created time.Time

	mu       sync.Mutex
	cfg      theory.Config
	registry *host.Registry
	theory   *theory.Theory
	saveID   uuid.UUID
	running  bool
	speed    float64
	last     time.Time
}

func newSession(variant string, cfg theory.Config, now time.Time, logger *slog.Logger) (*Session, error) {
	r := host.NewRegistry()
	t, err := theory.New(cfg, r, theory.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	r.Bind(t)
	return &Session{
		ID:       uuid.New(),
		Variant:  variant,
		created:  now,
		cfg:      cfg,
		registry: r,
		theory:   t,
		running:  true,
		speed:    1,
		last:     now,
	}, nil
}

// advanceTo ticks the theory by the wall time since the previous frame.
func (s *Session) advanceTo(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	elapsed := now.Sub(s.last)
	s.last = now
	if !s.running || elapsed <= 0 {
		return
	}
	s.theory.Tick(elapsed.Seconds(), s.speed)
}

// restore applies a save slot onto a freshly built session.
func (s *Session) restore(sv store.Save) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registry.Restore(sv.Registry); err != nil {
		return err
	}
	s.theory.SetInternalState(sv.State)
	s.saveID = sv.ID
	return nil
}

type upgradeView struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Level       int    `json:"level"`
	MaxLevel    int    `json:"max_level"`
	NextCost    string `json:"next_cost"`
	Description string `json:"description"`
	Info        string `json:"info"`
}

type milestoneView struct {
	ID          int    `json:"id"`
	Key         string `json:"key"`
	Level       int    `json:"level"`
	MaxLevel    int    `json:"max_level"`
	Available   bool   `json:"available"`
	Description string `json:"description"`
	Info        string `json:"info"`
}

type equationsView struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Tertiary  string `json:"tertiary"`
}

type sessionView struct {
	ID      uuid.UUID  `json:"id"`
	Variant string     `json:"variant"`
	SaveID  *uuid.UUID `json:"save_id,omitempty"`
	Running bool       `json:"running"`
	Speed   float64    `json:"speed"`

	Currency              string  `json:"currency"`
	CurrencyDisplay       string  `json:"currency_display"`
	Tau                   string  `json:"tau"`
	LastTau               string  `json:"last_tau"`
	PublicationMultiplier string  `json:"publication_multiplier"`
	GraphValue            float64 `json:"graph_value"`

	T             string `json:"t"`
	Q             string `json:"q"`
	QDot          string `json:"q_dot"`
	X             string `json:"x"`
	N             int    `json:"n"`
	Driver        string `json:"driver"`
	InternalState string `json:"internal_state"`

	Equations         equationsView   `json:"equations"`
	Upgrades          []upgradeView   `json:"upgrades"`
	Milestones        []milestoneView `json:"milestones"`
	NextMilestoneCost string          `json:"next_milestone_cost"`
}

// view renders the session; the caller holds mu.
func (s *Session) view() sessionView {
	th, r := s.theory, s.registry
	st := th.State()
	v := sessionView{
		ID:      s.ID,
		Variant: s.Variant,
		Running: s.running,
		Speed:   s.speed,

		Currency:              bignum.Encode(th.Currency().Value()),
		CurrencyDisplay:       bignum.Format(th.Currency().Value(), 3),
		Tau:                   bignum.Format(th.Tau(), 3),
		LastTau:               bignum.Format(r.LastTau(), 3),
		PublicationMultiplier: bignum.Format(r.PublicationMultiplier(), 3),
		GraphValue:            th.GraphValue(),

		T:             bignum.Format(st.T, 3),
		Q:             bignum.Format(st.Q, 3),
		QDot:          bignum.Format(th.Velocity(), 3),
		X:             bignum.Format(th.Base(), 3),
		N:             th.Order(),
		Driver:        bignum.Format(th.Driver(), 3),
		InternalState: th.InternalState(),

		Equations: equationsView{
			Primary:   r.PrimaryEquation(),
			Secondary: r.SecondaryEquation(),
			Tertiary:  r.TertiaryEquation(),
		},
	}
	if s.saveID != uuid.Nil {
		id := s.saveID
		v.SaveID = &id
	}
	for _, id := range theory.UpgradeIDs {
		u, ok := r.Upgrade(int(id))
		if !ok {
			continue
		}
		v.Upgrades = append(v.Upgrades, upgradeView{
			ID:          u.ID,
			Name:        id.String(),
			Level:       u.Level(),
			MaxLevel:    u.MaxLevel,
			NextCost:    bignum.Format(u.NextCost(), 3),
			Description: th.Description(id),
			Info:        th.Info(id, 1),
		})
	}
	owned := 0
	for _, k := range theory.MilestoneKeys {
		m, ok := r.Milestone(theory.MilestoneID(k))
		if !ok {
			continue
		}
		owned += m.Level()
		v.Milestones = append(v.Milestones, milestoneView{
			ID:          m.ID,
			Key:         string(k),
			Level:       m.Level(),
			MaxLevel:    m.MaxLevel,
			Available:   m.Available(),
			Description: m.Description,
			Info:        m.Info,
		})
	}
	v.NextMilestoneCost = bignum.Format(r.MilestoneCost(owned), 3)
	return v
}

func upgradeByName(name string) (theory.UpgradeID, error) {
	for _, id := range theory.UpgradeIDs {
		if id.String() == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", host.ErrUnknownUpgrade, name)
}

func milestoneByKey(key string) (theory.MilestoneKey, error) {
	for _, k := range theory.MilestoneKeys {
		if string(k) == key {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %s", host.ErrUnknownMilestone, key)
}
