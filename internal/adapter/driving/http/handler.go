// Package httphandler is the HTTP driving adapter serving the REST API:
// manual run dispatch, run history, creator trends, and health.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/efisher/tiktrends/internal/application"
	"github.com/efisher/tiktrends/internal/domain/model"
	"github.com/efisher/tiktrends/internal/domain/port/driven"
)

// defaultRunHistoryLimit bounds the run list endpoint.
const defaultRunHistoryLimit = 50

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	runStore        driven.RunStore
	creatorStore    driven.CreatorStore
	statStore       driven.StatStore
	credentialStore driven.CredentialStore
	collectSvc      *application.CollectService
	scheduler       *application.Scheduler
	logger          *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	runStore driven.RunStore,
	creatorStore driven.CreatorStore,
	statStore driven.StatStore,
	credentialStore driven.CredentialStore,
	collectSvc *application.CollectService,
	scheduler *application.Scheduler,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		runStore:        runStore,
		creatorStore:    creatorStore,
		statStore:       statStore,
		credentialStore: credentialStore,
		collectSvc:      collectSvc,
		scheduler:       scheduler,
		logger:          logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/runs", h.TriggerRun)
	mux.HandleFunc("GET /api/v1/runs", h.ListRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", h.GetRun)
	mux.HandleFunc("GET /api/v1/creators", h.ListCreators)
	mux.HandleFunc("GET /api/v1/creators/{username}/trends", h.GetCreatorTrends)
	mux.HandleFunc("GET /api/v1/credentials", h.ListCredentials)
	mux.HandleFunc("PUT /api/v1/credentials/{service}/{key}", h.SetCredential)
	mux.HandleFunc("DELETE /api/v1/credentials/{service}/{key}", h.DeleteCredential)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// TriggerRun dispatches a manual collection run. It responds 202 with the run
// ID once the run record exists; the run itself completes asynchronously and
// is observable via the run endpoints. A trigger arriving while a run is
// executing waits for that run to finish before being accepted.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	runID, err := h.collectSvc.TriggerRun(r.Context(), model.TriggerManual)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusServiceUnavailable, "trigger canceled")
			return
		}
		h.logger.Error("manual trigger failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("manual run dispatched", "run_id", runID)
	writeJSON(w, http.StatusAccepted, TriggerRunResponse{RunID: runID})
}

// ListRuns returns recent runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runStore.ListRecent(r.Context(), defaultRunHistoryLimit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toRunResponse(run))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetRun returns a single run by ID.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := h.runStore.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get run", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if run == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	writeJSON(w, http.StatusOK, toRunResponse(*run))
}

// ListCreators returns all tracked creators with their stored day counts.
func (h *Handler) ListCreators(w http.ResponseWriter, r *http.Request) {
	creators, err := h.creatorStore.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list creators", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]CreatorResponse, 0, len(creators))
	for _, creator := range creators {
		days, err := h.statStore.CountByCreator(r.Context(), creator.Username)
		if err != nil {
			h.logger.Error("failed to count stats", "creator", creator.Username, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		resp = append(resp, toCreatorResponse(creator, days))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetCreatorTrends returns the daily stat series for one creator.
func (h *Handler) GetCreatorTrends(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	creator, err := h.creatorStore.GetByUsername(r.Context(), username)
	if err != nil {
		h.logger.Error("failed to get creator", "creator", username, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if creator == nil {
		writeError(w, http.StatusNotFound, "creator not found")
		return
	}

	stats, err := h.statStore.GetByCreator(r.Context(), username)
	if err != nil {
		h.logger.Error("failed to get trends", "creator", username, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	points := make([]TrendPointResponse, 0, len(stats))
	for _, stat := range stats {
		points = append(points, toTrendPointResponse(stat))
	}

	writeJSON(w, http.StatusOK, CreatorTrendsResponse{
		Username: username,
		Points:   points,
	})
}

// ListCredentials returns metadata for every stored credential. Values are
// never exposed over the API.
func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := h.credentialStore.List(r.Context())
	if err != nil {
		if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
			writeError(w, http.StatusConflict, "credential storage disabled: no encryption key configured")
			return
		}
		h.logger.Error("failed to list credentials", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]CredentialResponse, 0, len(creds))
	for _, cred := range creds {
		resp = append(resp, toCredentialResponse(cred))
	}

	writeJSON(w, http.StatusOK, resp)
}

// SetCredential stores or replaces one credential. The value is accepted in
// the request body and encrypted at rest; new values take effect on the next
// process start.
func (h *Handler) SetCredential(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("service")
	key := r.PathValue("key")

	var req SetCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Value == "" {
		writeError(w, http.StatusBadRequest, "value must not be empty")
		return
	}

	if err := h.credentialStore.Set(r.Context(), service, key, req.Value); err != nil {
		if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
			writeError(w, http.StatusConflict, "credential storage disabled: no encryption key configured")
			return
		}
		h.logger.Error("failed to set credential", "service", service, "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("credential stored", "service", service, "key", key)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCredential removes one stored credential.
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("service")
	key := r.PathValue("key")

	if err := h.credentialStore.Delete(r.Context(), service, key); err != nil {
		h.logger.Error("failed to delete credential", "service", service, "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("credential deleted", "service", service, "key", key)
	w.WriteHeader(http.StatusNoContent)
}

// Health reports liveness and the next scheduled activation.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newHealthResponse(h.scheduler))
}
