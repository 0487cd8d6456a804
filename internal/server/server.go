// Package server hosts the inbound webhook endpoint, liveness probe and
// metrics.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"visitor-relay/internal/common/config"
	"visitor-relay/internal/common/logger"
	"visitor-relay/internal/relay/orchestrator"
)

// Server is a thin wrapper over chi + stdlib http.Server.
type Server struct {
	addr string
	mux  *chi.Mux
	srv  *http.Server
	orch *orchestrator.Service
	log  logger.Logger
}

func New(cfg config.ServerConfig, orch *orchestrator.Service, log logger.Logger) *Server {
	s := &Server{
		addr: cfg.Address,
		orch: orch,
		log:  log,
	}

	m := chi.NewRouter()
	m.Use(RequestID)
	m.Use(AccessLog(log))
	m.Use(Recover(log))

	m.Get("/", s.handleHealth)
	m.Handle("/metrics", promhttp.Handler())
	m.Post("/visitor/{location}", s.handleVisitor)

	s.mux = m
	s.srv = &http.Server{
		Addr:              cfg.Address,
		Handler:           m,
		ReadHeaderTimeout: config.GetDuration(cfg.ReadTimeout),
		ReadTimeout:       config.GetDuration(cfg.ReadTimeout),
		WriteTimeout:      config.GetDuration(cfg.WriteTimeout),
	}

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Run starts the server and blocks until it is shut down.
func (s *Server) Run() error {
	s.log.Info("http listening", map[string]interface{}{"addr": s.addr})
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
