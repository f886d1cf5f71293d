// Package http exposes the webhook, listing, health, and metrics endpoints.
package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agendasync/internal/domain"
	"agendasync/internal/observability"
)

// Webhook bodies are small JSON documents; anything near this limit is junk.
const maxBodyBytes = 1 << 20

// RowStore is the append/read contract the endpoints need. The concrete
// store is injected at startup so tests can substitute an in-memory fake.
type RowStore interface {
	Append(ctx context.Context, row domain.Row) error
	List(ctx context.Context) ([]domain.StoredRecord, error)
}

// ReadinessChecker reports whether the row store is reachable.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Options carries the endpoint configuration fixed at startup.
type Options struct {
	Addr          string
	WebhookToken  string
	AuthDisabled  bool
	AppendTimeout time.Duration
	Version       string
}

// Server routes webhook deliveries to the mapper and row store.
type Server struct {
	httpServer *http.Server
	mapper     *domain.Mapper
	store      RowStore
	metrics    *observability.Metrics
	logger     *slog.Logger
	opts       Options
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(opts Options, mapper *domain.Mapper, store RowStore, ready ReadinessChecker, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		mapper:  mapper,
		store:   store,
		metrics: metrics,
		logger:  logger,
		opts:    opts,
	}

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/agendamentos", s.handleList)
	mux.HandleFunc("POST /api/webhook", s.handleWebhook)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "agendasync",
		"status":  "ok",
		"version": s.opts.Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleWebhook accepts one AGENDAMENTO_NOVO delivery, maps it to a row, and
// appends it. Error bodies stay generic; diagnostics go to the log only.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	s.metrics.WebhooksReceived.Inc()

	if !s.authorize(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	payload, err := domain.DecodePayload(body)
	if err != nil {
		s.metrics.ValidationErrors.Inc()
		s.logger.Warn("undecodable webhook body", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	row, err := s.mapper.Map(payload)
	if err != nil {
		s.respondMapError(w, err)
		return
	}

	// Bounded append, no retry: the webhook sender retries failed
	// deliveries on its side.
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.AppendTimeout)
	defer cancel()

	if err := s.store.Append(ctx, row); err != nil {
		if errors.Is(err, domain.ErrDuplicateRow) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "duplicate", "dados": row})
			return
		}
		s.logger.Error("append failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record event"})
		return
	}

	s.metrics.RowsAppended.Inc()
	s.logger.Info("agendamento recorded",
		"schema", s.mapper.Schema().Version,
		"row_key", domain.RowKey(row),
	)
	writeJSON(w, http.StatusCreated, map[string]any{"status": "success", "dados": row})
}

func (s *Server) respondMapError(w http.ResponseWriter, err error) {
	var missing *domain.MissingFieldError
	switch {
	case errors.Is(err, domain.ErrUnsupportedEvent):
		s.metrics.ValidationErrors.Inc()
		s.logger.Warn("unsupported event discriminator")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported event"})
	case errors.As(err, &missing):
		s.metrics.ValidationErrors.Inc()
		s.logger.Warn("missing required field", "path", missing.Path)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing required field"})
	default:
		s.metrics.MappingErrors.Inc()
		s.logger.Error("mapping failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.AppendTimeout)
	defer cancel()

	records, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("list failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read records"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"total": len(records), "dados": records})
}

// authorize checks the bearer credential, or waves the delivery through when
// the bypass flag is set. Bypass is never silent: every accepted call logs a
// warning for the audit trail.
func (s *Server) authorize(r *http.Request) bool {
	if s.opts.AuthDisabled {
		s.metrics.AuthBypassed.Inc()
		s.logger.Warn("authorization bypass enabled, accepting unauthenticated delivery",
			"remote", r.RemoteAddr,
		)
		return true
	}

	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.WebhookToken)) != 1 {
		s.metrics.AuthFailures.Inc()
		s.logger.Warn("webhook rejected: bad or missing credential", "remote", r.RemoteAddr)
		return false
	}
	return true
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
