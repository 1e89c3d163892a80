package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/commander-forge/internal/api/response"
	"github.com/ramonehamilton/commander-forge/internal/scryfall"
)

// CardClient is the card-database surface the commander endpoints use.
type CardClient interface {
	Card(ctx context.Context, id string) (*scryfall.Card, error)
	SearchPage(ctx context.Context, query string, page int) (*scryfall.SearchResult, error)
	RandomCard(ctx context.Context, query string) (*scryfall.Card, error)
}

// CommanderHandler serves commander lookup endpoints.
type CommanderHandler struct {
	cards CardClient
}

// NewCommanderHandler creates a CommanderHandler.
func NewCommanderHandler(cards CardClient) *CommanderHandler {
	return &CommanderHandler{cards: cards}
}

// Random returns one random commander-eligible card.
func (h *CommanderHandler) Random(w http.ResponseWriter, r *http.Request) {
	card, err := h.cards.RandomCard(r.Context(), scryfall.CommanderQuery())
	if err != nil {
		response.BadGateway(w, err)
		return
	}
	response.Success(w, card)
}

// Search returns the first page of commander-eligible cards matching a
// name fragment. No matches is an empty list, not an error.
func (h *CommanderHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		response.BadRequest(w, errors.New("query parameter q is required"))
		return
	}

	page, err := h.cards.SearchPage(r.Context(), scryfall.CommanderSearchQuery(q), 1)
	if err != nil {
		if scryfall.IsNotFound(err) {
			response.Success(w, []scryfall.Card{})
			return
		}
		response.BadGateway(w, err)
		return
	}
	response.Success(w, page.Data)
}

// Get returns a card by its database id.
func (h *CommanderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cardID")
	card, err := h.cards.Card(r.Context(), id)
	if err != nil {
		if scryfall.IsNotFound(err) {
			response.NotFound(w, errors.New("card not found"))
			return
		}
		response.BadGateway(w, err)
		return
	}
	response.Success(w, card)
}
