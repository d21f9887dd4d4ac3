// Package api exposes the card service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cardstash/cardstash/internal/card"
	"github.com/cardstash/cardstash/internal/model"
	"github.com/cardstash/cardstash/internal/store"
)

// maxRequestBody is the maximum allowed request body size (1 MB).
const maxRequestBody int64 = 1 << 20

// defaultOwner is used until real authentication exists.
const defaultOwner = "default"

// CardService is the orchestrator surface the handlers call.
type CardService interface {
	Save(ctx context.Context, ownerID string, req card.SaveRequest) (*model.Card, error)
	Retry(ctx context.Context, id string, force bool) (*model.Card, bool, error)
	Stuck(c *model.Card) bool
}

// CardStore is the read/edit surface the handlers call directly.
type CardStore interface {
	GetCard(ctx context.Context, id string) (*model.Card, error)
	ListCards(ctx context.Context, f store.Filter) ([]*model.Card, error)
	UpdateCard(ctx context.Context, id string, p store.Patch) (*model.Card, error)
	SoftDelete(ctx context.Context, id string) error
	RestoreDeleted(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
}

// Server holds the HTTP handlers and dependencies.
type Server struct {
	cards      CardService
	store      CardStore
	aiEnabled  bool
	corsOrigin string
	router     chi.Router
}

// Options configure the server.
type Options struct {
	AIEnabled  bool
	CORSOrigin string
}

// New creates a new API server.
func New(cards CardService, st CardStore, opts Options) *Server {
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}
	s := &Server{
		cards:      cards,
		store:      st,
		aiEnabled:  opts.AIEnabled,
		corsOrigin: opts.CORSOrigin,
		router:     chi.NewRouter(),
	}
	s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.cors)
	s.router.Use(limitBody)
	s.router.Use(jsonContent)

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/cards", func(r chi.Router) {
		r.Post("/", s.handleSave)
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/enrich", s.handleRetry)
			r.Post("/archive", s.handleArchive)
			r.Post("/unarchive", s.handleUnarchive)
			r.Post("/restore", s.handleRestore)
			r.Put("/tags", s.handleEditTags)
		})
	})
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitBody restricts the request body to maxRequestBody bytes.
func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		next.ServeHTTP(w, r)
	})
}

func jsonContent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// ownerFrom picks the owner for a request. No auth yet; the header is a
// forward-compatible hook for the clients.
func ownerFrom(r *http.Request) string {
	if owner := r.Header.Get("X-Owner-ID"); owner != "" {
		return owner
	}
	return defaultOwner
}
