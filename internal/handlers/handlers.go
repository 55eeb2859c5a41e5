// Package handlers implements the HTTP API: assignment decisions, rule
// management, rule dry runs, the workload dashboard and health.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "legal-router/internal/common/errors"
	"legal-router/internal/common/logging"
	"legal-router/internal/models"
	"legal-router/internal/routing"
	"legal-router/internal/workload"
)

type Handlers struct {
	engine    *routing.Engine
	rules     routing.RuleRepository
	workloads *workload.Cache
	validate  *validator.Validate
	logger    logging.Logger
	checks    map[string]func() error
}

// New creates the handler set. checks maps component names to health probes
// reported by the health endpoint; a nil map is allowed.
func New(engine *routing.Engine, rules routing.RuleRepository, workloads *workload.Cache, checks map[string]func() error) *Handlers {
	return &Handlers{
		engine:    engine,
		rules:     rules,
		workloads: workloads,
		validate:  validator.New(),
		logger:    logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "http"}),
		checks:    checks,
	}
}

// Health reports service and component status. Degraded components turn the
// overall status to unhealthy with a 503.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:     "healthy",
		Components: make(map[string]string, len(h.checks)),
		Timestamp:  time.Now().UTC(),
	}

	status := http.StatusOK
	for name, check := range h.checks {
		if err := check(); err != nil {
			resp.Components[name] = "unhealthy: " + err.Error()
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		} else {
			resp.Components[name] = "healthy"
		}
	}

	h.writeJSON(w, status, resp)
}

func (h *Handlers) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.ValidationError("invalid JSON payload: " + err.Error())
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperrors.ValidationError(err.Error())
	}
	return nil
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", err)
	}
	h.writeJSON(w, status, models.ErrorResponse{
		Error: err.Error(),
		Type:  string(apperrors.GetType(err)),
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, routing.ErrRuleNotFound),
		errors.Is(err, routing.ErrRequestNotFound),
		errors.Is(err, routing.ErrProviderNotFound):
		return http.StatusNotFound
	case errors.Is(err, routing.ErrDuplicateRuleName),
		errors.Is(err, routing.ErrProviderUnavailable):
		return http.StatusConflict
	case errors.Is(err, routing.ErrUnknownRequestType),
		errors.Is(err, routing.ErrUnknownStrategy),
		errors.Is(err, routing.ErrUnknownOperator),
		errors.Is(err, routing.ErrInvalidRule):
		return http.StatusBadRequest
	}

	var validationErr routing.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}

	switch apperrors.GetType(err) {
	case apperrors.ErrTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrTypeConflict:
		return http.StatusConflict
	case apperrors.ErrTypeRateLimit:
		return http.StatusTooManyRequests
	case apperrors.ErrTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
