package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ramonehamilton/commander-forge/internal/api/handlers"
	"github.com/ramonehamilton/commander-forge/internal/api/response"
	"github.com/ramonehamilton/commander-forge/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	// WebSocket activity feed
	s.router.Get("/ws", s.hub.ServeWs)

	buildHandler := handlers.NewBuildHandler(s.deps.Builder, s.deps.Store, s.hub, s.log)
	commanderHandler := handlers.NewCommanderHandler(s.deps.Cards)
	deckHandler := handlers.NewDeckHandler(s.deps.Store)

	s.router.Route("/api/v1", func(r chi.Router) {
		// The build stream stays open for the whole build, so it
		// skips the REST timeout.
		r.Post("/builds", buildHandler.StartBuild)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(restTimeout))

			r.Route("/commanders", func(r chi.Router) {
				r.Get("/random", commanderHandler.Random)
				r.Get("/search", commanderHandler.Search)
				r.Get("/{cardID}", commanderHandler.Get)
			})

			r.Route("/decks", func(r chi.Router) {
				r.Get("/", deckHandler.List)
				r.Get("/{deckID}", deckHandler.Get)
				r.Delete("/{deckID}", deckHandler.Delete)
				r.Get("/{deckID}/export", deckHandler.Export)
				r.Get("/{deckID}/charts", deckHandler.Charts)
			})
		})
	})
}

// healthCheck reports service liveness and an oracle availability
// snapshot.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	oracles := map[string]string{
		"local":  "unconfigured",
		"remote": "unconfigured",
	}
	if s.deps.Providers.Local != nil {
		oracles["local"] = availability(s.deps.Providers.Local.IsAvailable(ctx))
	}
	if s.deps.Providers.Remote != nil {
		oracles["remote"] = availability(s.deps.Providers.Remote.IsAvailable(ctx))
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "commander-forge-api",
		"version": version.Version,
		"oracles": oracles,
	})
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}
