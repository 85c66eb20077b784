package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"wealthgate/internal/wealth/models"
	"wealthgate/pkg/domain"
	dErrors "wealthgate/pkg/domain-errors"
	"wealthgate/pkg/platform/httputil"
	"wealthgate/pkg/requestcontext"
)

type Service interface {
	GetProfile(ctx context.Context, ownerID domain.OwnerID) (*models.WealthProfile, error)
	GenerateProfile(ctx context.Context, ownerName string) (*models.WealthProfile, error)
	GenerateProfileFor(ctx context.Context, ownerID domain.OwnerID, ownerName string) (*models.WealthProfile, error)
	RegenerateProfile(ctx context.Context, ownerID domain.OwnerID, ownerName string) (*models.WealthProfile, error)
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

// Register mounts the wealth analysis endpoints under /api.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/wealth-analysis", h.HandleGenerate)
	r.Get("/api/wealth-analysis/{ownerId}", h.HandleGetProfile)
	r.Post("/api/wealth-analysis/{ownerId}", h.HandleGenerateFor)
	r.Put("/api/wealth-analysis/{ownerId}", h.HandleRegenerate)
}

// HandleGetProfile implements GET /api/wealth-analysis/{ownerId}.
// A missing profile is generated on the fly when ?ownerName= is given,
// otherwise the response is 404.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(ctx, ownerID)
	if err != nil {
		ownerName := strings.TrimSpace(r.URL.Query().Get("ownerName"))
		if !dErrors.HasCode(err, dErrors.CodeNotFound) || ownerName == "" {
			h.writeFailure(ctx, w, "failed to get wealth profile", ownerID, err)
			return
		}
		profile, err = h.service.GenerateProfileFor(ctx, ownerID, ownerName)
		if err != nil {
			h.writeFailure(ctx, w, "failed to generate wealth profile", ownerID, err)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewProfileResponse(profile, requestcontext.Now(ctx)))
}

// HandleGenerate implements POST /api/wealth-analysis.
// Input: { "ownerName": "Acme Owner" }; the owner id is derived from the name.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.GenerateProfileRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	profile, err := h.service.GenerateProfile(ctx, req.OwnerName)
	if err != nil {
		h.writeFailure(ctx, w, "failed to generate wealth profile", "", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewProfileResponse(profile, requestcontext.Now(ctx)))
}

// HandleGenerateFor implements POST /api/wealth-analysis/{ownerId}.
// Input: { "ownerName": "Acme Owner" }
func (h *Handler) HandleGenerateFor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.GenerateProfileRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	profile, err := h.service.GenerateProfileFor(ctx, ownerID, req.OwnerName)
	if err != nil {
		h.writeFailure(ctx, w, "failed to generate wealth profile", ownerID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewProfileResponse(profile, requestcontext.Now(ctx)))
}

// HandleRegenerate implements PUT /api/wealth-analysis/{ownerId}. The body is
// optional; without ownerName the stored name is reused.
func (h *Handler) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var ownerName string
	if r.ContentLength != 0 {
		req, ok := httputil.DecodeJSON[models.RegenerateProfileRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
		ownerName = req.OwnerName
	}

	profile, err := h.service.RegenerateProfile(ctx, ownerID, ownerName)
	if err != nil {
		h.writeFailure(ctx, w, "failed to regenerate wealth profile", ownerID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewProfileResponse(profile, requestcontext.Now(ctx)))
}

func (h *Handler) ownerID(w http.ResponseWriter, r *http.Request) (domain.OwnerID, bool) {
	ownerID, err := domain.ParseOwnerID(chi.URLParam(r, "ownerId"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return ownerID, true
}

// writeFailure logs server-side failures; client errors are only answered.
func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, msg string, ownerID domain.OwnerID, err error) {
	if httputil.DomainCodeToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"owner_id", ownerID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
