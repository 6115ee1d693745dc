package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vishvendra9627/tourist-safety-app/internal/location/models"
	dErrors "github.com/vishvendra9627/tourist-safety-app/pkg/domain-errors"
	"github.com/vishvendra9627/tourist-safety-app/pkg/platform/httputil"
	"github.com/vishvendra9627/tourist-safety-app/pkg/requestcontext"
)

// Service defines the location operations exposed over HTTP.
type Service interface {
	Report(ctx context.Context, owner string, lat, lon float64) error
	Current(ctx context.Context, owner string) (*models.ResolvedLocation, error)
	Resolve(ctx context.Context, lat, lon float64) (*models.ResolvedLocation, error)
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

// Register mounts the location endpoints. The router must already require auth.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/location", h.HandleReport)
	r.Get("/api/location", h.HandleCurrent)
	r.Post("/api/location/resolve", h.HandleResolve)
}

// HandleReport handles POST /api/location. Resolution happens in the background.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	owner, ok := h.requireOwner(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CoordinatesRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Report(ctx, owner, *req.Latitude, *req.Longitude); err != nil {
		h.logger.WarnContext(ctx, "location report rejected", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, Envelope{Message: "Location accepted"})
}

// HandleCurrent handles GET /api/location.
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.requireOwner(w, ctx)
	if !ok {
		return
	}

	loc, err := h.service.Current(ctx, owner)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "location lookup failed", "request_id", requestcontext.RequestID(ctx), "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loc)
}

// HandleResolve handles POST /api/location/resolve.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if _, ok := h.requireOwner(w, ctx); !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CoordinatesRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	loc, err := h.service.Resolve(ctx, *req.Latitude, *req.Longitude)
	if err != nil {
		h.logger.WarnContext(ctx, "location resolve failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loc)
}

func (h *Handler) requireOwner(w http.ResponseWriter, ctx context.Context) (string, bool) {
	owner := requestcontext.Owner(ctx)
	if owner == "" {
		h.logger.ErrorContext(ctx, "owner missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "authentication required"))
		return "", false
	}
	return owner, true
}
