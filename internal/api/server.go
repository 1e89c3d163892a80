// Package api assembles the REST server: router, middleware, handlers
// and the websocket activity feed.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-forge/internal/api/handlers"
	"github.com/ramonehamilton/commander-forge/internal/api/websocket"
	"github.com/ramonehamilton/commander-forge/internal/oracle"
)

// restTimeout bounds plain REST requests. The build stream and the
// websocket feed are exempt because they hold their connections open.
const restTimeout = 30 * time.Second

// Server is the HTTP server for the deck-building API.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	config     *Config
	log        *zap.Logger

	hub  *websocket.Hub
	deps Deps
}

// Config holds the server's listen address and CORS policy.
type Config struct {
	Host        string
	Port        int
	CORSOrigins []string
}

// DefaultConfig returns the default API server configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:        "127.0.0.1",
		Port:        8080,
		CORSOrigins: []string{"*"},
	}
}

// Deps are the services the handlers run on.
type Deps struct {
	Builder   handlers.DeckBuilder
	Cards     handlers.CardClient
	Store     handlers.DeckStore
	Providers oracle.Providers
}

// NewServer creates the server, wires middleware and routes. A nil
// config uses DefaultConfig; a nil logger disables logging.
func NewServer(cfg *Config, deps Deps, log *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		log:    log,
		hub:    websocket.NewHub(log),
		deps:   deps,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures the middleware stack shared by every
// route. The REST timeout is applied per route group, not here.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Link", "X-Request-ID"},
		MaxAge:         300,
	}))

	s.router.Use(s.jsonContentTypeMiddleware)
}

// jsonContentTypeMiddleware enforces application/json on requests that
// carry a body.
func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}
			contentType := r.Header.Get("Content-Type")
			if contentType != "application/json" && !strings.HasPrefix(contentType, "application/json;") {
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the assembled router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the activity-feed hub.
func (s *Server) Hub() *websocket.Hub {
	return s.hub
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start binds the listener and serves in the background. The bind is
// synchronous so an occupied port fails here, not in a goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.Addr(), err)
	}

	go s.hub.Run()

	// WriteTimeout stays unset: a build stream writes for as long as
	// the build runs. REST routes carry their own timeout middleware.
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server", zap.Error(err))
		}
	}()

	s.log.Info("api server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Shutdown drains the HTTP server and stops the activity feed.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.hub.Stop()
	if s.httpServer == nil {
		return nil
	}
	s.log.Info("shutting down api server")
	return s.httpServer.Shutdown(ctx)
}
