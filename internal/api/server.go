package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"paper_trading/internal/ledger"
	"paper_trading/internal/market"
)

// Server exposes a Ledger and a market provider over HTTP.
type Server struct {
	ledger   *ledger.Ledger
	provider market.MarketProvider
	now      func() time.Time
	http     *http.Server
}

// NewServer builds a server listening on addr once Start is called.
func NewServer(addr string, l *ledger.Ledger, provider market.MarketProvider, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	s := &Server{ledger: l, provider: provider, now: now}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until Shutdown. It blocks.
func (s *Server) Start() error {
	log.Printf("[API] HTTP server listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
