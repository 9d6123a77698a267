// Package httpserver exposes the REST + SSE surface of the intake service.
package httpserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stackhire/intake-gateway/internal/mailbox"
	"github.com/stackhire/intake-gateway/internal/orchestrator"
	"github.com/stackhire/intake-gateway/internal/store"
)

// Server wires the orchestrator, store, and mailbox behind HTTP endpoints.
type Server struct {
	store   store.Store
	orch    *orchestrator.Orchestrator
	mailbox *mailbox.Mailbox
	logger  *log.Logger
}

// New creates a Server with explicit collaborators; nothing is reached through
// package globals so tests can build isolated instances.
func New(st store.Store, orch *orchestrator.Orchestrator, mb *mailbox.Mailbox) *Server {
	return &Server{
		store:   st,
		orch:    orch,
		mailbox: mb,
		logger:  log.New(log.Writer(), "[httpserver] ", log.LstdFlags|log.Lmicroseconds),
	}
}

// SetLogger overrides the default logger; nil keeps the current logger.
func (s *Server) SetLogger(logger *log.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Router builds the chi handler for the service.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/chat", func(r chi.Router) {
			r.Get("/create", s.handleChatCreate)
			r.Get("/read/{sessionID}", s.handleChatRead)
			r.Post("/update/{sessionID}", s.handleChatUpdate)
			r.Post("/update/{sessionID}/user-message", s.handleUserMessage)
			r.Get("/events/{sessionID}", s.handleChatEvents)
		})

		r.Route("/company", func(r chi.Router) {
			r.Get("/read", s.handleCompanyRead)
			r.Post("/create", s.handleCompanyUpsert)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// maskedSession is the client-visible session shape; internal bookkeeping
// never leaves the process.
type maskedSession struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  string    `json:"messages"`
}

// maskedCompany is the client-visible posting shape.
type maskedCompany struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Data      string    `json:"data"`
}

func maskSession(sess store.Session) maskedSession {
	return maskedSession{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
		Messages:  sess.Messages,
	}
}

func maskCompany(c store.Company) maskedCompany {
	return maskedCompany{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Data:      c.Data,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("write response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// respondStoreError maps persistence failures to statuses, keeping unknown-id
// failures distinguishable from generic ones.
func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, err)
		return
	}
	s.respondError(w, http.StatusInternalServerError, err)
}
