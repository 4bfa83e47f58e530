// Package server exposes theory sessions over an HTTP JSON API and drives
// them from a frame loop.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/xtding233/binomial-theory/internal/config"
	"github.com/xtding233/binomial-theory/internal/store"
)

// Clock is the time source of the frame loop.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
func SystemClock() Clock { return systemClock{} }

type Options struct {
	Resolver config.Resolver
	// Store enables the save endpoints; nil disables them.
	Store  *store.Store
	Logger *slog.Logger
	Clock  Clock
	// Frame is the frame loop period; 100ms when zero.
	Frame time.Duration
	// MaxSessions caps live sessions; 0 means 256.
	MaxSessions int
}

// Server handles HTTP requests
type Server struct {
	resolver    config.Resolver
	store       *store.Store
	logger      *slog.Logger
	clock       Clock
	frame       time.Duration
	maxSessions int
	startTime   time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// New creates a new API server
func New(opts Options) (*Server, error) {
	if opts.Resolver == nil {
		return nil, errors.New("server: resolver is required")
	}
	s := &Server{
		resolver:    opts.Resolver,
		store:       opts.Store,
		logger:      opts.Logger,
		clock:       opts.Clock,
		frame:       opts.Frame,
		maxSessions: opts.MaxSessions,
		sessions:    make(map[uuid.UUID]*Session),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.clock == nil {
		s.clock = SystemClock()
	}
	if s.frame <= 0 {
		s.frame = 100 * time.Millisecond
	}
	if s.maxSessions <= 0 {
		s.maxSessions = 256
	}
	s.startTime = s.clock.Now()
	return s, nil
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/", s.handleListSessions)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Patch("/", s.handlePatchSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/tick", s.handleTick)
				r.Put("/upgrades/{upgrade}", s.handleSetUpgrade)
				r.Put("/milestones/{milestone}", s.handleSetMilestone)
				r.Post("/publish", s.handlePublish)
				r.Post("/save", s.handleSave)
				r.Post("/project", s.handleProject)
			})
		})
		r.Route("/saves", func(r chi.Router) {
			r.Get("/", s.handleListSaves)
			r.Post("/{saveID}/load", s.handleLoadSave)
			r.Delete("/{saveID}", s.handleDeleteSave)
		})
	})

	return r
}

// logRequests logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Run ticks every running session once per frame until ctx is done.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.frame)
	defer ticker.Stop()
	s.logger.Info("frame loop started", "frame", s.frame)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("frame loop stopped")
			return
		case <-ticker.C:
			s.Step(s.clock.Now())
		}
	}
}

// Step advances every running session to now.
func (s *Server) Step(now time.Time) {
	for _, sess := range s.snapshot() {
		sess.advanceTo(now)
	}
}

func (s *Server) snapshot() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].created.Before(out[j].created) })
	return out
}

func (s *Server) session(id uuid.UUID) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

var errTooManySessions = errors.New("too many sessions")

func (s *Server) add(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) >= s.maxSessions {
		return errTooManySessions
	}
	s.sessions[sess.ID] = sess
	return nil
}

func (s *Server) remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}
