// Package api exposes screening sessions over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spigell/hh-screener/internal/interview"
	"github.com/spigell/hh-screener/internal/screening"
	"github.com/spigell/hh-screener/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	maxBodyBytes    = 64 << 10
	shutdownTimeout = 5 * time.Second
)

// Sessions is the part of screening.Manager served over HTTP.
type Sessions interface {
	Start(ctx context.Context) (screening.TurnResult, error)
	Resume(ctx context.Context, sessionID string) (screening.TurnResult, error)
	Submit(ctx context.Context, sessionID, text string) (screening.TurnResult, error)
	Record(ctx context.Context, sessionID string) (*interview.Record, error)
	Flush(ctx context.Context, sessionID string) error
}

type Server struct {
	sessions Sessions
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewServer returns a server for sessions. A nil gatherer disables /metrics.
func NewServer(sessions Sessions, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{sessions: sessions, gatherer: gatherer, logger: logger}
}

type messageRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", s.handleStart)
	mux.HandleFunc("POST /api/sessions/{id}/resume", s.handleResume)
	mux.HandleFunc("POST /api/sessions/{id}/messages", s.handleMessage)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleRecord)
	mux.HandleFunc("POST /api/sessions/{id}/flush", s.handleFlush)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// Handler returns a mux with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving http on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	// The parent context is already cancelled.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	res, err := s.sessions.Start(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	res, err := s.sessions.Resume(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	res, err := s.sessions.Submit(r.Context(), r.PathValue("id"), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.sessions.Record(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, screening.Sanitize(rec))
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Flush(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, screening.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, screening.ErrConversationEnded):
		status = http.StatusConflict
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, store.ErrTimeout):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encoding response", zap.Error(err))
	}
}
