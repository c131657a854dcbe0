// Package web exposes a small local HTTP API for the kiosk: status for the
// on-device display, plus manual recognize and sync triggers for operators.
package web

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
)

// Server represents the local kiosk web server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	handlers   *Handlers
}

// NewServer creates the kiosk web server listening on host:port.
func NewServer(host string, port int, handlers *Handlers) *Server {
	r := chi.NewRouter()

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "face-kiosk"),
	)

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(chiMiddleware.Recoverer)
	// Recognition holds the camera; keep requests bounded.
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	s := &Server{
		router:   r,
		handlers: handlers,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/api/v1/health", HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handlers.Status)
		r.Get("/roster", s.handlers.Roster)
		r.Get("/events", s.handlers.Events)
		r.Post("/recognize", s.handlers.Recognize)
		r.Post("/sync", s.handlers.Sync)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting kiosk web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down kiosk web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
