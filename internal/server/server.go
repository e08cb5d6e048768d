// Package server is the HTTP surface of the quoting service: JSON in, priced
// quotes out. It is thin glue over the quote service; all pricing rules live
// in internal/pricing.
package server

import (
	"context"
	"net/http"
	"time"

	"decoquote/internal/config"
	"decoquote/internal/quote"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Server struct {
	quotes *quote.Service
	logger *zap.Logger
	http   *http.Server
}

func New(cfg config.ServerConfig, quotes *quote.Service, logger *zap.Logger) *Server {
	s := &Server{
		quotes: quotes,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/quotes/price", s.handlePrice)
		r.Post("/quotes", s.handleSave)
		r.Get("/quotes/{quoteID}", s.handleGet)
	})

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Run serves until the context is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.http.Addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
