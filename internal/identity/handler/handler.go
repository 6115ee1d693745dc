package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vishvendra9627/tourist-safety-app/internal/identity/models"
	dErrors "github.com/vishvendra9627/tourist-safety-app/pkg/domain-errors"
	"github.com/vishvendra9627/tourist-safety-app/pkg/platform/httputil"
	"github.com/vishvendra9627/tourist-safety-app/pkg/requestcontext"
)

// Service defines the interface for digital ID operations.
type Service interface {
	Create(ctx context.Context, owner string, sub models.Submission) (*models.IdentityRecord, error)
	FindByOwner(ctx context.Context, owner string) ([]*models.IdentityRecord, error)
	ListAll(ctx context.Context) ([]*models.IdentityRecord, error)
	DeleteByOwner(ctx context.Context, owner, email string) (*models.IdentityRecord, error)
}

// Handler wires digital ID endpoints to the identity service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an identity handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the owner-scoped endpoints. The router must already require auth.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/digital-id", h.HandleCreate)
	r.Get("/api/digital-id", h.HandleList)
	r.Delete("/api/digital-id", h.HandleDelete)
}

// RegisterAdmin mounts the operator listing. The router must already require the admin token.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/digital-ids", h.HandleListAll)
}

// HandleCreate handles POST /api/digital-id.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	owner, ok := h.requireOwner(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.Create(ctx, owner, req.Submission())
	if err != nil {
		h.logFailure(ctx, "digital ID create failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "digital ID saved",
		"request_id", requestID,
		"identity_id", record.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, Envelope{Message: "Digital ID saved", Data: record})
}

// HandleList handles GET /api/digital-id and returns only the caller's records.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.requireOwner(w, ctx)
	if !ok {
		return
	}

	records, err := h.service.FindByOwner(ctx, owner)
	if err != nil {
		h.logFailure(ctx, "digital ID list failed", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

// HandleListAll handles GET /admin/digital-ids.
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.service.ListAll(ctx)
	if err != nil {
		h.logFailure(ctx, "digital ID admin list failed", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

// HandleDelete handles DELETE /api/digital-id with body {"email": ...}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	owner, ok := h.requireOwner(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[DeleteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteByOwner(ctx, owner, req.Email)
	if err != nil {
		h.logFailure(ctx, "digital ID delete failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "digital ID deleted",
		"request_id", requestID,
		"identity_id", deleted.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, Envelope{Message: "Digital ID deleted successfully"})
}

func (h *Handler) requireOwner(w http.ResponseWriter, ctx context.Context) (string, bool) {
	owner := requestcontext.Owner(ctx)
	if owner == "" {
		// RequireAuth sets the owner; reaching here means the route was mounted without it.
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
