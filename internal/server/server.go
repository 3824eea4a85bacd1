// Package server exposes the bridge's HTTP surface: liveness endpoints,
// the pager outbound webhook, phone bootstrap, metrics, and the static
// mounts serving re-hosted media and avatars.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"pagerbridge/internal/avatar"
	"pagerbridge/internal/domain"
	"pagerbridge/internal/media"
	"pagerbridge/internal/metrics"
	"pagerbridge/internal/pager"
	"pagerbridge/internal/relay"
)

const maxBodySize = 1 << 20 // 1MB

// Server is the bridge's HTTP front.
type Server struct {
	host      string
	port      int
	auth      domain.Authenticator
	outbound  *relay.Outbound
	bootstrap *relay.Bootstrap
	mediaDir  string
	avatarDir string
	logger    *slog.Logger
	server    *http.Server
}

type Config struct {
	Host      string
	Port      int
	Auth      domain.Authenticator
	Outbound  *relay.Outbound
	Bootstrap *relay.Bootstrap
	MediaDir  string
	AvatarDir string
	Logger    *slog.Logger
}

func New(cfg Config) *Server {
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	return &Server{
		host:      cfg.Host,
		port:      cfg.Port,
		auth:      cfg.Auth,
		outbound:  cfg.Outbound,
		bootstrap: cfg.Bootstrap,
		mediaDir:  cfg.MediaDir,
		avatarDir: cfg.AvatarDir,
		logger:    cfg.Logger,
	}
}

// Handler builds the route table. Split out from Start so tests can drive
// it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /pager/outbound", s.requireKey(s.handleOutbound))
	mux.HandleFunc("POST /start_chat_by_phone", s.requireKey(s.handleStartChat))
	mux.HandleFunc("GET /metrics", metrics.Collector.Handler())

	mux.Handle("GET "+media.MediaServePath, http.StripPrefix(media.MediaServePath,
		http.FileServer(http.Dir(s.mediaDir))))
	mux.Handle("GET "+avatar.AvatarServePath, http.StripPrefix(avatar.AvatarServePath,
		http.FileServer(http.Dir(s.avatarDir))))

	return mux
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("http server starting", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

// requireKey wraps a handler with the channel-key check.
func (s *Server) requireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if err := s.auth.Authenticate(r); err != nil {
			s.logger.Warn("unauthorized request", "path", r.URL.Path, "remote", r.RemoteAddr)
			writeJSON(rw, http.StatusUnauthorized, map[string]string{"error": "bad x-channel-key"})
			return
		}
		next(rw, r)
	}
}

func (s *Server) handleRoot(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleHealth(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]string{"status": "up"})
}

func (s *Server) handleOutbound(rw http.ResponseWriter, r *http.Request) {
	var payload pager.Payload
	if !decodeBody(rw, r, &payload) {
		return
	}

	ack, err := s.outbound.Deliver(r.Context(), payload)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidIdentifier) {
			writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "missing/invalid client.externalId"})
			return
		}
		// The cause stays in the log, not in the response.
		s.logger.Error("outbound delivery failed", "err", err)
		writeJSON(rw, http.StatusInternalServerError, map[string]string{"error": "send failed"})
		return
	}

	writeJSON(rw, http.StatusOK, map[string]string{"externalMessageId": ack})
}

type startChatRequest struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

func (s *Server) handleStartChat(rw http.ResponseWriter, r *http.Request) {
	var req startChatRequest
	if !decodeBody(rw, r, &req) {
		return
	}

	res, err := s.bootstrap.StartChat(r.Context(), req.Phone, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPhone):
			writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "phone must be in +380... format"})
		case errors.Is(err, domain.ErrPhoneNotFound):
			writeJSON(rw, http.StatusNotFound, map[string]string{"error": "user not found by phone (maybe hidden / not on Telegram)"})
		case errors.Is(err, domain.ErrNotSupported):
			writeJSON(rw, http.StatusNotImplemented, map[string]string{"error": "contact import not supported by this client"})
		default:
			s.logger.Error("start chat failed", "phone", req.Phone, "err", err)
			writeJSON(rw, http.StatusInternalServerError, map[string]string{"error": "failed"})
		}
		return
	}

	writeJSON(rw, http.StatusOK, map[string]any{
		"ok":               true,
		"phone":            res.Phone,
		"telegramUserId":   res.PeerID,
		"clientExternalId": res.ClientExternalID,
		"sentMessageId":    res.SentMessageID,
	})
}

// decodeBody reads a bounded JSON body into dst, answering 400 on failure.
func decodeBody(rw http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return false
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, dst); err != nil {
		writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	return true
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(v)
}
