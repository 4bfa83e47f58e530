package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xtding233/binomial-theory/internal/bignum"
	"github.com/xtding233/binomial-theory/internal/sim"
	"github.com/xtding233/binomial-theory/internal/store"
	"github.com/xtding233/binomial-theory/internal/theory"
)

var variantName = regexp.MustCompile(`^[a-z0-9_-]{0,64}$`)

// decodeJSON reads an optional JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return nil
}

func parseID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a uuid", errBadRequest, param)
	}
	return id, nil
}

// withSession resolves {sessionID} and runs fn under the session lock.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*Session) (int, any, error)) {
	id, err := parseID(r, "sessionID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sess, ok := s.session(id)
	if !ok {
		s.fail(w, r, fmt.Errorf("%w: %s", errSessionNotFound, id))
		return
	}
	sess.mu.Lock()
	status, body, err := fn(sess)
	sess.mu.Unlock()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if body == nil {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, body)
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	n := len(s.sessions)
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"theory":   theory.ID,
		"version":  theory.Version,
		"sessions": n,
		"store":    s.store != nil,
		"uptime":   s.clock.Now().Sub(s.startTime).Round(time.Second).String(),
	})
}

type createRequest struct {
	Variant string `json:"variant"`
}

func (s *Server) newSession(variant string) (*Session, error) {
	if !variantName.MatchString(variant) {
		return nil, fmt.Errorf("%w: variant must match %s", errBadRequest, variantName)
	}
	_, cfg, err := s.resolver.Resolve(variant)
	if err != nil {
		return nil, err
	}
	return newSession(variant, cfg, s.clock.Now(), s.logger.With("variant", variant))
}

// POST /api/v1/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	sess, err := s.newSession(req.Variant)
	if err == nil {
		err = s.add(sess)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("session created", "session", sess.ID, "variant", sess.Variant)
	sess.mu.Lock()
	v := sess.view()
	sess.mu.Unlock()
	writeJSON(w, http.StatusCreated, v)
}

type sessionSummary struct {
	ID      uuid.UUID `json:"id"`
	Variant string    `json:"variant"`
	Running bool      `json:"running"`
}

// GET /api/v1/sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	out := []sessionSummary{}
	for _, sess := range s.snapshot() {
		sess.mu.Lock()
		out = append(out, sessionSummary{ID: sess.ID, Variant: sess.Variant, Running: sess.running})
		sess.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/v1/sessions/{sessionID}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session) (int, any, error) {
		return http.StatusOK, sess.view(), nil
	})
}

type patchRequest struct {
	Running *bool    `json:"running"`
	Speed   *float64 `json:"speed"`
}

// PATCH /api/v1/sessions/{sessionID}
func (s *Server) handlePatchSession(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Speed != nil && !(*req.Speed > 0) {
		s.fail(w, r, fmt.Errorf("%w: speed must be > 0", errBadRequest))
		return
	}
	now := s.clock.Now()
	s.withSession(w, r, func(sess *Session) (int, any, error) {
		if req.Running != nil {
			if *req.Running && !sess.running {
				// time spent paused is not produced
				sess.last = now
			}
			sess.running = *req.Running
		}
		if req.Speed != nil {
			sess.speed = *req.Speed
		}
		return http.StatusOK, sess.view(), nil
	})
}

// DELETE /api/v1/sessions/{sessionID}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "sessionID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !s.remove(id) {
		s.fail(w, r, fmt.Errorf("%w: %s", errSessionNotFound, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tickRequest struct {
	Elapsed    float64  `json:"elapsed"`
	Multiplier *float64 `json:"multiplier"`
}

// POST /api/v1/sessions/{sessionID}/tick advances one manual frame.
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var req tickRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *Session) (int, any, error) {
		mult := sess.speed
		if req.Multiplier != nil {
			mult = *req.Multiplier
		}
		sess.theory.Tick(req.Elapsed, mult)
		return http.StatusOK, sess.view(), nil
	})
}

type levelRequest struct {
	Level int `json:"level"`
}

// PUT /api/v1/sessions/{sessionID}/upgrades/{upgrade}
func (s *Server) handleSetUpgrade(w http.ResponseWriter, r *http.Request) {
	var req levelRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *Session) (int, any, error) {
		id, err := upgradeByName(chi.URLParam(r, "upgrade"))
		if err != nil {
			return 0, nil, err
		}
		if err := sess.registry.SetUpgradeLevel(int(id), req.Level); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, sess.view(), nil
	})
}

// PUT /api/v1/sessions/{sessionID}/milestones/{milestone}
func (s *Server) handleSetMilestone(w http.ResponseWriter, r *http.Request) {
	var req levelRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *Session) (int, any, error) {
		k, err := milestoneByKey(chi.URLParam(r, "milestone"))
		if err != nil {
			return 0, nil, err
		}
		if err := sess.registry.SetMilestoneLevel(theory.MilestoneID(k), req.Level); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, sess.view(), nil
	})
}

type publishResponse struct {
	Tau                   string      `json:"tau"`
	PublicationMultiplier string      `json:"publication_multiplier"`
	Session               sessionView `json:"session"`
}

// POST /api/v1/sessions/{sessionID}/publish
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session) (int, any, error) {
		tau := sess.registry.Publish(sess.theory)
		s.logger.Info("published", "session", sess.ID, "tau", bignum.Format(tau, 3))
		return http.StatusOK, publishResponse{
			Tau:                   bignum.Encode(tau),
			PublicationMultiplier: bignum.Encode(sess.registry.PublicationMultiplier()),
			Session:               sess.view(),
		}, nil
	})
}

type saveRequest struct {
	Name string `json:"name"`
}

// POST /api/v1/sessions/{sessionID}/save
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.fail(w, r, errNoStore)
		return
	}
	var req saveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *Session) (int, any, error) {
		sv, err := s.store.Put(r.Context(), store.Save{
			ID:       sess.saveID,
			Name:     req.Name,
			Variant:  sess.Variant,
			State:    sess.theory.InternalState(),
			Registry: sess.registry.Snapshot(),
		})
		if err != nil {
			return 0, nil, err
		}
		sess.saveID = sv.ID
		return http.StatusOK, sv, nil
	})
}

// GET /api/v1/saves?limit=&offset=
func (s *Server) handleListSaves(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.fail(w, r, errNoStore)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	saves, err := s.store.List(r.Context(), limit, offset)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if saves == nil {
		saves = []store.Save{}
	}
	writeJSON(w, http.StatusOK, saves)
}

// POST /api/v1/saves/{saveID}/load starts a new session from a slot.
func (s *Server) handleLoadSave(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.fail(w, r, errNoStore)
		return
	}
	id, err := parseID(r, "saveID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sv, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sess, err := s.newSession(sv.Variant)
	if err == nil {
		err = sess.restore(sv)
	}
	if err == nil {
		err = s.add(sess)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("save loaded", "session", sess.ID, "save", sv.ID)
	sess.mu.Lock()
	v := sess.view()
	sess.mu.Unlock()
	writeJSON(w, http.StatusCreated, v)
}

// DELETE /api/v1/saves/{saveID}
func (s *Server) handleDeleteSave(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.fail(w, r, errNoStore)
		return
	}
	id, err := parseID(r, "saveID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type projectRequest struct {
	Duration float64 `json:"duration"`
	Frame    float64 `json:"frame"`
	Interval float64 `json:"interval"`
	Speed    float64 `json:"speed"`

	Trials int     `json:"trials"`
	Jitter float64 `json:"jitter"`
	Seed   *uint64 `json:"seed"`
	Goal   string  `json:"goal"`
	Target float64 `json:"target"`
}

type projectResponse struct {
	Projection sim.Projection `json:"projection"`
	MonteCarlo *sim.Stats     `json:"monte_carlo,omitempty"`
}

// maxTrials bounds the Monte Carlo work of one request.
const maxTrials = 200

// POST /api/v1/sessions/{sessionID}/project runs the current levels forward
// from a fresh publication, without touching the session.
func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Frame == 0 {
		req.Frame = 0.1
	}
	if req.Interval == 0 {
		req.Interval = math.Max(req.Duration/20, req.Frame)
	}
	if req.Trials < 0 || req.Trials > maxTrials {
		s.fail(w, r, fmt.Errorf("%w: trials must be in [0,%d]", errBadRequest, maxTrials))
		return
	}

	id, err := parseID(r, "sessionID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sess, ok := s.session(id)
	if !ok {
		s.fail(w, r, fmt.Errorf("%w: %s", errSessionNotFound, id))
		return
	}
	sess.mu.Lock()
	p := paramsFor(sess)
	sess.mu.Unlock()
	p.Duration, p.Frame, p.Speed = req.Duration, req.Frame, req.Speed

	// the simulation runs outside the session lock and stops with the request
	proj, err := sim.Project(r.Context(), p, req.Interval)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := projectResponse{Projection: proj}
	if req.Trials > 0 {
		p.Jitter, p.Target = req.Jitter, req.Target
		goal := sim.TrialGoal(req.Goal)
		if goal == "" {
			goal = sim.GoalFinalLog10
		}
		var rng sim.RandomSource
		if req.Seed != nil {
			rng = sim.NewSeededRNG(*req.Seed)
		}
		stats, err := sim.RunMonteCarlo(r.Context(), p, goal, req.Trials, rng)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.MonteCarlo = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

// paramsFor copies the session's levels; the caller holds mu.
func paramsFor(sess *Session) sim.Params {
	p := sim.Params{
		Config:     sess.cfg,
		Upgrades:   make(map[theory.UpgradeID]int, len(theory.UpgradeIDs)),
		Milestones: make(map[theory.MilestoneKey]int, len(theory.MilestoneKeys)),
		Multiplier: decimal.Zero,
	}
	for _, id := range theory.UpgradeIDs {
		p.Upgrades[id] = sess.theory.UpgradeLevel(id)
	}
	for _, k := range theory.MilestoneKeys {
		p.Milestones[k] = sess.theory.MilestoneLevel(k)
	}
	if m := sess.registry.PublicationMultiplier(); !m.Equal(bignum.One) {
		p.Multiplier = m
	}
	return p
}
