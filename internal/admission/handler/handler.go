package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"wealthgate/internal/admission/models"
	dErrors "wealthgate/pkg/domain-errors"
	"wealthgate/pkg/platform/httputil"
	"wealthgate/pkg/platform/middleware/admin"
	"wealthgate/pkg/requestcontext"
)

type Service interface {
	Status(ctx context.Context, op models.Operation, identifier string) (*models.CounterStatus, error)
	Reset(ctx context.Context, op models.Operation, identifier string) error
	Policies() []models.Policy
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterAdmin mounts the operator endpoints. The caller wraps r with the
// admin token and throttle middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/rate-limit/policies", h.HandleListPolicies)
	r.Get("/admin/rate-limit/{operation}/{identifier}", h.HandleGetCounter)
	r.Delete("/admin/rate-limit/{operation}/{identifier}", h.HandleResetCounter)
}

// HandleListPolicies implements GET /admin/rate-limit/policies.
func (h *Handler) HandleListPolicies(w http.ResponseWriter, _ *http.Request) {
	policies := h.service.Policies()
	resp := make([]models.PolicyResponse, 0, len(policies))
	for _, p := range policies {
		resp = append(resp, models.PolicyResponse{
			Operation:     p.Operation,
			WindowSeconds: p.WindowSeconds(),
			MaxRequests:   p.MaxRequests,
			FailMode:      p.FailMode,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGetCounter implements GET /admin/rate-limit/{operation}/{identifier}.
// Output: { "operation": "login", "identifier": "1.2.3.4", "count": 3, ... }
func (h *Handler) HandleGetCounter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	op, identifier, err := parseCounterPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status, err := h.service.Status(ctx, op, identifier)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read rate limit counter",
			"error", err,
			"operation", op,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := &models.CounterStatusResponse{
		Operation:  status.Policy.Operation,
		Identifier: status.Identifier,
		Count:      status.Count,
		Limit:      status.Policy.MaxRequests,
		Remaining:  max(0, status.Policy.MaxRequests-status.Count),
		WindowSecs: status.Policy.WindowSeconds(),
	}
	if !status.ResetAt.IsZero() {
		resp.ResetAtUnix = status.ResetAt.Unix()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleResetCounter implements DELETE /admin/rate-limit/{operation}/{identifier}.
func (h *Handler) HandleResetCounter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	op, identifier, err := parseCounterPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Reset(ctx, op, identifier); err != nil {
		h.logger.ErrorContext(ctx, "failed to reset rate limit counter",
			"error", err,
			"operation", op,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "rate limit counter reset by admin",
		"operation", op,
		"actor", admin.ActorID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, &models.CounterResetResponse{
		Operation:  op,
		Identifier: identifier,
		Reset:      true,
	})
}

func parseCounterPath(r *http.Request) (models.Operation, string, error) {
	op, err := models.ParseOperation(chi.URLParam(r, "operation"))
	if err != nil {
		return "", "", err
	}
	identifier := strings.TrimSpace(chi.URLParam(r, "identifier"))
	if identifier == "" {
		return "", "", dErrors.New(dErrors.CodeInvalidInput, "identifier is required")
	}
	return op, identifier, nil
}
