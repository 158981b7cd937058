// Package server exposes the assessment engine over HTTP with controlled
// startup and shutdown.
package server

import (
	"context"
	"net/http"
	"time"

	"readiness/internal/engine"
	"readiness/internal/journal"
	"readiness/internal/session"
	"readiness/internal/store"
)

// Server wraps the HTTP server of the application, providing controlled
// startup and graceful shutdown with conservative timeouts.
type Server struct {
	server *http.Server
}

// ListenAndServe starts listening on the configured address. Blocks until
// the server stops; returns http.ErrServerClosed after Shutdown.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server, letting in-flight requests finish
// within the context's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// NewServer creates a server on the given address wiring the evaluation
// engine, session repository, and the optional report store and journal
// into the API v1 router.
func NewServer(
	address string,
	static string,
	eng *engine.Engine,
	sessions *session.Repository,
	reports *store.Store,
	reportJournal *journal.ReportJournal,
) *Server {
	router := NewApiV1Router(static, eng, sessions, reports, reportJournal)
	return &Server{&http.Server{
		Addr:           address,
		Handler:        router.Mux(),
		ReadTimeout:    time.Second * 3,
		WriteTimeout:   time.Second * 3,
		MaxHeaderBytes: 1024 * 10,
	}}
}
