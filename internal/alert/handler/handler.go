package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vishvendra9627/tourist-safety-app/internal/alert/models"
	"github.com/vishvendra9627/tourist-safety-app/internal/alert/service"
	dErrors "github.com/vishvendra9627/tourist-safety-app/pkg/domain-errors"
	"github.com/vishvendra9627/tourist-safety-app/pkg/platform/httputil"
	"github.com/vishvendra9627/tourist-safety-app/pkg/requestcontext"
)

// Service defines the panic alert operations exposed over HTTP.
type Service interface {
	Record(ctx context.Context, owner string, alert models.Alert) (*models.Alert, error)
	Trigger(ctx context.Context, owner string, in service.TriggerInput) (*models.Alert, error)
	List(ctx context.Context, owner string) ([]*models.Alert, error)
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

// Register mounts the panic endpoints. The router must already require auth.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/panic", h.HandleRecord)
	r.Post("/api/panic/trigger", h.HandleTrigger)
	r.Get("/api/panic", h.HandleList)
}

// HandleRecord handles POST /api/panic with a client-composed alert.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	owner, ok := h.requireOwner(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[RecordRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	alert, err := h.service.Record(ctx, owner, req.Alert())
	if err != nil {
		h.logFailure(ctx, "panic record failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	h.created(ctx, w, requestID, alert)
}

// HandleTrigger handles POST /api/panic/trigger. The body may be empty.
func (h *Handler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	owner, ok := h.requireOwner(w, ctx)
	if !ok {
		return
	}

	req, err := httputil.DecodeOptional[TriggerRequest](r)
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		h.logger.WarnContext(ctx, "invalid panic trigger request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	alert, err := h.service.Trigger(ctx, owner, req.Input())
	if err != nil {
		h.logFailure(ctx, "panic trigger failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	h.created(ctx, w, requestID, alert)
}

// HandleList handles GET /api/panic.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.requireOwner(w, ctx)
	if !ok {
		return
	}

	alerts, err := h.service.List(ctx, owner)
	if err != nil {
		h.logFailure(ctx, "panic list failed", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, alerts)
}

func (h *Handler) created(ctx context.Context, w http.ResponseWriter, requestID string, alert *models.Alert) {
	h.logger.InfoContext(ctx, "panic alert stored",
		"request_id", requestID,
		"alert_id", alert.ID,
		"source", alert.Source,
		"locations", len(alert.Locations),
	)
	httputil.WriteJSON(w, http.StatusCreated, Envelope{Message: "Panic data stored successfully", Data: alert})
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

func (h *Handler) logFailure(ctx context.Context, msg, requestID string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
		return
	}
	h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err)
}
