// Package web serves the wallet panels as HTML pages, a JSON API and a
// WebSocket status stream, alongside health, status and metrics endpoints.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"solana-wallet-kit/internal/action"
	"solana-wallet-kit/internal/observability"
	"solana-wallet-kit/internal/panels"
	"solana-wallet-kit/internal/storage"
	"solana-wallet-kit/internal/wallet"
)

// Server holds the HTTP surface of one wallet session.
type Server struct {
	panels  *panels.Set
	session *wallet.Session
	journal *storage.Journal
	hub     *Hub
	logger  *zap.Logger
	pages   *pages
	started time.Time
}

// Options configures NewServer.
type Options struct {
	Panels  *panels.Set
	Session *wallet.Session
	// Journal backs the activity endpoint. Optional.
	Journal *storage.Journal
	// Hub serves /ws. Optional.
	Hub    *Hub
	Logger *zap.Logger
}

// NewServer creates the HTTP server.
func NewServer(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	return &Server{
		panels:  opts.Panels,
		session: opts.Session,
		journal: opts.Journal,
		hub:     opts.Hub,
		logger:  logger.Named("server"),
		pages:   p,
		started: time.Now(),
	}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Pages
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /airdrop", s.handleAirdropPage)
	mux.HandleFunc("POST /airdrop", s.handleAirdropPage)
	mux.HandleFunc("GET /sign", s.handleSignPage)
	mux.HandleFunc("POST /sign", s.handleSignPage)
	mux.HandleFunc("GET /verify", s.handleVerifyPage)
	mux.HandleFunc("POST /verify", s.handleVerifyPage)
	mux.HandleFunc("GET /transfer", s.handleTransferPage)
	mux.HandleFunc("POST /transfer", s.handleTransferPage)
	mux.HandleFunc("GET /create-token", s.handleCreateTokenPage)
	mux.HandleFunc("POST /create-token", s.handleCreateTokenPage)

	// JSON API
	mux.HandleFunc("GET /api/wallet", s.handleWallet)
	mux.HandleFunc("GET /api/balance", s.handleBalance)
	mux.HandleFunc("POST /api/airdrop", s.handleAirdrop)
	mux.HandleFunc("POST /api/sign", s.handleSign)
	mux.HandleFunc("POST /api/verify", s.handleVerify)
	mux.HandleFunc("GET /api/transfer/quote", s.handleTransferQuote)
	mux.HandleFunc("GET /api/transfer/max", s.handleTransferMax)
	mux.HandleFunc("POST /api/transfer", s.handleTransfer)
	mux.HandleFunc("GET /api/tokens", s.handleTokens)
	mux.HandleFunc("POST /api/tokens", s.handleCreateToken)
	mux.HandleFunc("POST /api/tokens/{mint}/mint", s.handleMint)
	mux.HandleFunc("POST /api/tokens/{mint}/burn", s.handleBurn)
	mux.HandleFunc("GET /api/activity", s.handleActivity)

	if s.hub != nil {
		mux.Handle("GET /ws", s.hub)
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("GET /status", s.handleStatus)

	return mux
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status            string          `json:"status"`
	Uptime            string          `json:"uptime"`
	Started           time.Time       `json:"started"`
	Cluster           string          `json:"cluster"`
	WalletConnected   bool            `json:"wallet_connected"`
	Wallet            string          `json:"wallet,omitempty"`
	InFlight          map[string]bool `json:"in_flight"`
	StatusSubscribers int             `json:"status_subscribers"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).Round(time.Second).String(),
		Started:         s.started,
		Cluster:         s.session.Cluster(),
		WalletConnected: s.session.Connected(),
		InFlight:        s.panels.Busy(),
	}
	if pk, ok := s.session.PublicKey(); ok {
		resp.Wallet = pk.String()
	}
	if s.hub != nil {
		resp.StatusSubscribers = s.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	if s.hub != nil {
		s.hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// errorResponse is the JSON body of a failed API call.
type errorResponse struct {
	Error string      `json:"error"`
	Kind  action.Kind `json:"kind,omitempty"`
}

// writeError maps panel errors to HTTP responses.
func writeError(w http.ResponseWriter, err error) {
	var f *action.Failure
	if !errors.As(err, &f) {
		if errors.Is(err, wallet.ErrNotConnected) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "Please connect your wallet first", Kind: action.KindPrecondition})
			return
		}
		if errors.Is(err, panels.ErrTokenNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Kind: action.KindUnknown})
		return
	}
	writeJSON(w, statusCode(f), errorResponse{Error: f.Message, Kind: f.Kind})
}

func statusCode(f *action.Failure) int {
	if errors.Is(f, action.ErrBusy) {
		return http.StatusConflict
	}
	switch f.Kind {
	case action.KindPrecondition, action.KindMalformedInput:
		return http.StatusBadRequest
	case action.KindInsufficientFunds:
		return http.StatusPaymentRequired
	case action.KindRejected:
		return http.StatusForbidden
	case action.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
