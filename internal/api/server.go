package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"endless-runner/internal/config"
	"endless-runner/internal/relay"

	"github.com/go-chi/chi/v5"
)

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with the websocket hub feeding the relay.
type Server struct {
	relay       *relay.Relay
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// NewServer creates the API server around a relay.
//
// IMPORTANT: The relay is NOT started here; call Start. This lets tests
// build the server and drive Router() through httptest.
func NewServer(cfg config.AppConfig, r *relay.Relay, journal *relay.Journal) *Server {
	s := &Server{
		relay:       r,
		wsHub:       NewWebSocketHub(r, cfg.Relay, NewOriginChecker(cfg.Server.CORSOrigins)),
		rateLimiter: NewIPRateLimiter(DefaultRateLimitConfig),
	}

	s.router = NewRouter(RouterConfig{
		Relay:          r,
		Hub:            s.wsHub,
		Journal:        journal,
		RateLimiter:    s.rateLimiter,
		CORSOrigins:    cfg.Server.CORSOrigins,
		StaticFilesDir: cfg.Server.StaticFilesDir,
	})

	return s
}

// Start runs the relay loop and serves HTTP until Shutdown.
// Call this method only once.
func (s *Server) Start(addr string) error {
	go s.relay.Run()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🌐 Relay server starting on %s", addr)
	log.Printf("🔌 WebSocket: ws://localhost%s/ws", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the websocket hub.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Shutdown stops accepting requests, stops the relay (closing every
// websocket) and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.relay.Stop()
	select {
	case <-s.relay.Done():
	case <-ctx.Done():
	}

	s.rateLimiter.Stop()
	return err
}
