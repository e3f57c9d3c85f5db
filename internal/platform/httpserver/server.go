package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	campaignservice "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service"
	domainerrors "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/errors"
	campaignhttp "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/transport/http"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	_ "github.com/smithjps512/garden-prayer-campaigns-sub001/internal/platform/httpserver/docs"
)

const shutdownTimeout = 10 * time.Second

type Options struct {
	Addr               string
	RateLimitPerSecond float64
	RateLimitBurst     int
	Metrics            *metrics.Registry
}

type Server struct {
	mux       *http.ServeMux
	handler   http.Handler
	logger    *slog.Logger
	addr      string
	campaigns campaignservice.Module
	metrics   *metrics.Registry
	limiter   *rate.Limiter
}

func New(
	campaigns campaignservice.Module,
	logger *slog.Logger,
	opts Options,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry()
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      opts.Addr,
		campaigns: campaigns,
		metrics:   opts.Metrics,
	}
	if opts.RateLimitPerSecond > 0 && opts.RateLimitBurst > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitPerSecond), opts.RateLimitBurst)
	}
	s.registerRoutes()
	s.handler = s.instrument(s.limitWrites(s.mux))
	return s
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting",
			"event", "http_server_starting",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"addr", s.addr,
		)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /v1/businesses", s.handleCreateBusiness)
	s.mux.HandleFunc("POST /v1/businesses/{business_id}/playbooks", s.handleCreatePlaybook)
	s.mux.HandleFunc("POST /v1/playbooks/{playbook_id}/campaigns", s.handleCreateCampaign)

	s.mux.HandleFunc("GET /v1/campaigns/{campaign_id}", s.handleGetCampaign)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/approve", s.handleCampaignAction("approve"))
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/launch", s.handleCampaignAction("launch"))
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/pause", s.handleCampaignAction("pause"))
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/resume", s.handleCampaignAction("resume"))
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/complete", s.handleCampaignAction("complete"))
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/content", s.handleAddContent)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/tasks", s.handleCreateTask)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/escalations", s.handleCreateEscalation)

	s.mux.HandleFunc("GET /v1/tasks", s.handleListTasks)
	s.mux.HandleFunc("GET /v1/tasks/{task_id}", s.handleGetTask)
	s.mux.HandleFunc("PATCH /v1/tasks/{task_id}", s.handleUpdateTask)
	s.mux.HandleFunc("POST /v1/tasks/{task_id}/complete", s.handleCompleteTask)

	s.mux.HandleFunc("GET /v1/escalations", s.handleListEscalations)
	s.mux.HandleFunc("POST /v1/escalations/{escalation_id}/acknowledge", s.handleAcknowledgeEscalation)
	s.mux.HandleFunc("POST /v1/escalations/{escalation_id}/resolve", s.handleResolveEscalation)

	s.mux.HandleFunc("GET /v1/activity", s.handleListActivity)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireUser returns the operator id from X-User-Id, writing 401 when absent.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

// decodeBody decodes a JSON body into dst. An empty body is accepted when
// optional is true.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
	return false
}

func idempotencyKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("Idempotency-Key"))
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domainerrors.Kind(err)
	switch kind {
	case "not_found":
		writeError(w, http.StatusNotFound, kind, err.Error())
	case "invalid_transition", "invalid_state", "blocked", "conflict":
		writeError(w, http.StatusConflict, kind, err.Error())
	case "invalid_input":
		writeError(w, http.StatusBadRequest, kind, err.Error())
	case "persistence_failure":
		s.logError(r, kind, err)
		writeError(w, http.StatusServiceUnavailable, kind, "storage unavailable")
	default:
		s.logError(r, "internal", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) logError(r *http.Request, kind string, err error) {
	s.logger.Error("request failed",
		"event", "http_request_failed",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"method", r.Method,
		"path", r.URL.Path,
		"kind", kind,
		"error", err.Error(),
	)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, campaignhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
