// Package server exposes the marketplace over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rijulg06/thriftchain/internal/domain"
	"github.com/rijulg06/thriftchain/internal/server/handler"
	"github.com/rijulg06/thriftchain/internal/server/middleware"
	"github.com/rijulg06/thriftchain/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// RateLimit caps requests per caller per RateWindow. Zero disables
	// limiting; a nil rate limiter does too.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Blobs is optional; its routes are omitted when nil.
type Handlers struct {
	Health   *handler.HealthHandler
	Items    *handler.ItemHandler
	Offers   *handler.OfferHandler
	Escrows  *handler.EscrowHandler
	Accounts *handler.AccountHandler
	Events   *handler.EventHandler
	Blobs    *handler.BlobHandler
}

// Server is the HTTP + WebSocket API server for the marketplace.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (rate limiting, auth, logging, CORS) and attaches
// the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// --- Register routes ---

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Item endpoints.
	mux.HandleFunc("POST /api/items", handlers.Items.CreateItem)
	mux.HandleFunc("GET /api/items", handlers.Items.ListItems)
	mux.HandleFunc("GET /api/items/{id}", handlers.Items.GetItem)
	mux.HandleFunc("PATCH /api/items/{id}/price", handlers.Items.UpdatePrice)
	mux.HandleFunc("POST /api/items/{id}/cancel", handlers.Items.CancelItem)
	mux.HandleFunc("GET /api/items/{id}/offers", handlers.Offers.ListOffersByItem)

	// Offer endpoints.
	mux.HandleFunc("POST /api/offers", handlers.Offers.CreateOffer)
	mux.HandleFunc("GET /api/offers", handlers.Offers.ListOffers)
	mux.HandleFunc("GET /api/offers/{id}", handlers.Offers.GetOffer)
	mux.HandleFunc("POST /api/offers/{id}/counter", handlers.Offers.CounterOffer)
	mux.HandleFunc("POST /api/offers/{id}/accept", handlers.Offers.AcceptOffer)
	mux.HandleFunc("POST /api/offers/{id}/reject", handlers.Offers.RejectOffer)
	mux.HandleFunc("POST /api/offers/{id}/cancel", handlers.Offers.CancelOffer)

	// Escrow endpoints.
	mux.HandleFunc("GET /api/escrows", handlers.Escrows.ListEscrows)
	mux.HandleFunc("GET /api/escrows/{id}", handlers.Escrows.GetEscrow)
	mux.HandleFunc("POST /api/escrows/{id}/confirm", handlers.Escrows.ConfirmDelivery)
	mux.HandleFunc("POST /api/escrows/{id}/dispute", handlers.Escrows.DisputeEscrow)
	mux.HandleFunc("POST /api/escrows/{id}/refund", handlers.Escrows.RefundEscrow)

	// Account endpoints.
	mux.HandleFunc("POST /api/accounts/{address}/deposit", handlers.Accounts.Deposit)
	mux.HandleFunc("GET /api/accounts/{address}", handlers.Accounts.GetAccount)

	// Event log and diagnostics.
	mux.HandleFunc("GET /api/events", handlers.Events.ListEvents)
	mux.HandleFunc("GET /api/stats", handlers.Events.Stats)

	// Listing images (only when a blob store is configured).
	if handlers.Blobs != nil {
		mux.HandleFunc("POST /api/images", handlers.Blobs.UploadImage)
		mux.HandleFunc("GET /api/images/{key...}", handlers.Blobs.GetImage)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply rate limiting closest to the handlers.
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow)(h)
	}

	// Apply auth middleware (skips if APIKey is empty).
	h = middleware.Auth(cfg.APIKey)(h)

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
