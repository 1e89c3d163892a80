package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/commander-forge/internal/api/response"
	"github.com/ramonehamilton/commander-forge/internal/charts"
	"github.com/ramonehamilton/commander-forge/internal/deck"
	"github.com/ramonehamilton/commander-forge/internal/storage"
)

// DeckHandler serves the stored-deck endpoints.
type DeckHandler struct {
	store  DeckStore
	charts charts.Config
}

// NewDeckHandler creates a DeckHandler.
func NewDeckHandler(store DeckStore) *DeckHandler {
	return &DeckHandler{store: store, charts: charts.DefaultConfig()}
}

// List returns stored deck summaries, newest first.
func (h *DeckHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(w, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	summaries, err := h.store.List(r.Context(), limit)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, summaries)
}

// Get returns one stored deck.
func (h *DeckHandler) Get(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.fetch(w, r)
	if !ok {
		return
	}
	response.Success(w, stored)
}

// Delete removes a stored deck.
func (h *DeckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "deckID")
	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrDeckNotFound) {
			response.NotFound(w, errors.New("deck not found"))
			return
		}
		response.InternalError(w, err)
		return
	}
	response.NoContent(w)
}

// Export writes a stored deck as a plain-text decklist.
func (h *DeckHandler) Export(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.fetch(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, deck.ExportText(stored.Deck))
}

// Charts writes a stored deck's mana-curve and color charts as HTML.
func (h *DeckHandler) Charts(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.fetch(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = charts.WriteDeckCharts(w, stored.Deck, h.charts)
}

// fetch loads the deck named by the route, writing the error response
// itself when the load fails.
func (h *DeckHandler) fetch(w http.ResponseWriter, r *http.Request) (*storage.StoredDeck, bool) {
	id := chi.URLParam(r, "deckID")
	stored, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrDeckNotFound) {
			response.NotFound(w, errors.New("deck not found"))
			return nil, false
		}
		response.InternalError(w, err)
		return nil, false
	}
	return stored, true
}
