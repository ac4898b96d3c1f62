// Package web exposes the wallet session over a JSON API with a server-sent
// event stream of state changes.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
	"github.com/vadiminshakov/passkeywallet/internal/store"
)

const (
	heartbeatInterval = 30 * time.Second
	maxBodyBytes      = 64 << 10
)

type walletService interface {
	Connect(ctx context.Context) (domain.WalletSession, error)
	Disconnect(ctx context.Context)
	Refresh(ctx context.Context) (domain.TokenSnapshot, error)
	Send(ctx context.Context, recipient string, amount decimal.Decimal) (string, error)
	MaxSendable() decimal.Decimal
	SignMessage(ctx context.Context, message []byte) (string, error)
	State() store.State
	Subscribe() chan store.State
	Unsubscribe(ch chan store.State)
	Links() domain.Links
}

// Server HTTP front of one wallet.
type Server struct {
	Addr     string
	wallet   walletService
	limiter  *keyLimiter
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewServer creates a server. Manual refreshes are limited per client to
// refreshRPS with refreshBurst; gatherer may be nil to disable /metrics.
func NewServer(addr string, wallet walletService, refreshRPS float64, refreshBurst int, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Addr:     addr,
		wallet:   wallet,
		limiter:  newKeyLimiter(refreshRPS, refreshBurst, 10*time.Minute),
		gatherer: gatherer,
		logger:   logger,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", s.handleSession)
		r.Get("/session/stream", s.handleSessionStream)
		r.Post("/connect", s.handleConnect)
		r.Post("/disconnect", s.handleDisconnect)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/send", s.handleSend)
		r.Get("/send/max", s.handleMaxSendable)
		r.Post("/sign", s.handleSign)
		r.Get("/links/tx/{signature}", s.handleTxLink)
		r.Get("/links/address/{address}", s.handleAddressLink)
	})

	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates via ACME.
// It also starts an HTTP server on port 80 to handle ACME HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("http (acme) server shutdown error", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("https server shutdown error", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http (acme) server error", zap.Error(err))
		}
	}()

	s.logger.Info("https server listening", zap.String("addr", s.Addr), zap.Strings("domains", domains))
	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.wallet.State().View())
}

func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	updates := s.wallet.Subscribe()
	defer s.wallet.Unsubscribe(updates)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func(st store.State) bool {
		payload, err := json.Marshal(st.View())
		if err != nil {
			s.logger.Warn("state stream encode failed", zap.Error(err))
			return false
		}
		fmt.Fprintf(w, "event: state\n")
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		return true
	}

	if !send(s.wallet.State()) {
		return
	}

	// send a comment heartbeat so proxies keep the connection
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case st, ok := <-updates:
			if !ok {
				return
			}
			if !send(st) {
				return
			}
		}
	}
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	sess, err := s.wallet.Connect(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": sess})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.wallet.Disconnect(r.Context())
	writeJSON(w, http.StatusOK, s.wallet.State().View())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(clientKey(r), time.Now()) {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "refresh rate limit exceeded"})
		return
	}
	token, err := s.wallet.Refresh(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token})
}

type sendRequest struct {
	Recipient string          `json:"recipient"`
	Amount    json.RawMessage `json:"amount"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	// unparseable amounts reach the executor as zero so its check order decides the error
	amount, err := domain.ParseAmount(strings.Trim(string(req.Amount), `"`))
	if err != nil {
		amount = decimal.Zero
	}

	sig, err := s.wallet.Send(r.Context(), req.Recipient, amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"signature":    sig,
		"explorer_url": s.wallet.Links().TxURL(sig),
	})
}

func (s *Server) handleMaxSendable(w http.ResponseWriter, _ *http.Request) {
	maxAmount := s.wallet.MaxSendable()
	writeJSON(w, http.StatusOK, map[string]string{
		"max_sendable": maxAmount.String(),
		"formatted":    domain.FormatNative(maxAmount),
	})
}

type signRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	var req signRequest
	if err := decodeBody(w, r, &req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "message is required"})
		return
	}
	sig, err := s.wallet.SignMessage(r.Context(), []byte(req.Message))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"signature": sig})
}

func (s *Server) handleTxLink(w http.ResponseWriter, r *http.Request) {
	sig := chi.URLParam(r, "signature")
	if !domain.IsValidSignature(sig) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid transaction signature"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": s.wallet.Links().TxURL(sig)})
}

func (s *Server) handleAddressLink(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if !domain.IsValidAddress(address) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid address"})
		return
	}
	links := s.wallet.Links()
	body := map[string]string{
		"url":       links.AddressURL(address),
		"truncated": domain.TruncateAddress(address, 4),
	}
	if links.Network == domain.NetworkDevnet {
		body["faucet_url"] = links.FaucetLink(address)
	}
	writeJSON(w, http.StatusOK, body)
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotConnected), errors.Is(err, domain.ErrSigningInProgress):
		status = http.StatusConflict
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	case domain.IsConnection(err), domain.IsTransaction(err):
		status = http.StatusBadGateway
	default:
		s.logger.Error("unexpected wallet error", zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
