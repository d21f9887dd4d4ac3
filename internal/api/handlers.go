package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardstash/cardstash/internal/card"
	"github.com/cardstash/cardstash/internal/model"
	"github.com/cardstash/cardstash/internal/store"
)

// cardView is a card plus the derived stuck flag for rendering.
type cardView struct {
	*model.Card
	Stuck bool `json:"stuck,omitempty"`
}

func (s *Server) view(c *model.Card) cardView {
	return cardView{Card: c, Stuck: s.cards.Stuck(c)}
}

// ---------------------------------------------------------------------------
// POST /api/cards
// ---------------------------------------------------------------------------

type saveResponse struct {
	Success bool     `json:"success"`
	Card    cardView `json:"card"`
	Source  string   `json:"source"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req card.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c, err := s.cards.Save(r.Context(), ownerFrom(r), req)
	if errors.Is(err, card.ErrEmptySave) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save card")
		return
	}

	writeJSON(w, http.StatusCreated, saveResponse{Success: true, Card: s.view(c), Source: "db"})
}

// ---------------------------------------------------------------------------
// GET /api/cards
// ---------------------------------------------------------------------------

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.Filter{
		OwnerID:  ownerFrom(r),
		Type:     q.Get("type"),
		Query:    q.Get("q"),
		Archived: q.Get("archived") == "true",
		Deleted:  q.Get("deleted") == "true",
	}

	cards, err := s.store.ListCards(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list cards")
		return
	}

	views := make([]cardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, s.view(c))
	}
	writeJSON(w, http.StatusOK, views)
}

// ---------------------------------------------------------------------------
// GET /api/cards/{id}
// ---------------------------------------------------------------------------

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCard(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "card not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get card")
		return
	}
	writeJSON(w, http.StatusOK, s.view(c))
}

// ---------------------------------------------------------------------------
// POST /api/cards/{id}/enrich
// ---------------------------------------------------------------------------

type retryRequest struct {
	Force bool `json:"force"`
}

type retryResponse struct {
	Success bool     `json:"success"`
	Started bool     `json:"started"`
	Card    cardView `json:"card"`
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	var req retryRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	c, started, err := s.cards.Retry(r.Context(), chi.URLParam(r, "id"), req.Force)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "card not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to retry enrichment")
		return
	}

	writeJSON(w, http.StatusOK, retryResponse{Success: true, Started: started, Card: s.view(c)})
}

// ---------------------------------------------------------------------------
// Archive / restore / delete
// ---------------------------------------------------------------------------

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	s.lifecycleOp(w, r, s.store.Archive)
}

func (s *Server) handleUnarchive(w http.ResponseWriter, r *http.Request) {
	s.lifecycleOp(w, r, s.store.Unarchive)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	s.lifecycleOp(w, r, s.store.RestoreDeleted)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.lifecycleOp(w, r, s.store.SoftDelete)
}

func (s *Server) lifecycleOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) error) {
	id := chi.URLParam(r, "id")
	err := op(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "card not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update card")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

// ---------------------------------------------------------------------------
// PUT /api/cards/{id}/tags
// ---------------------------------------------------------------------------

type editTagsRequest struct {
	Tags []string `json:"tags"`
}

func (s *Server) handleEditTags(w http.ResponseWriter, r *http.Request) {
	var req editTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	c, err := s.store.UpdateCard(r.Context(), chi.URLParam(r, "id"), store.Patch{Tags: &req.Tags})
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "card not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update tags")
		return
	}
	writeJSON(w, http.StatusOK, s.view(c))
}

// ---------------------------------------------------------------------------
// GET /health
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"ai":     s.aiEnabled,
	})
}
