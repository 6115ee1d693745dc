package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vishvendra9627/tourist-safety-app/internal/audit"
	"github.com/vishvendra9627/tourist-safety-app/internal/identity/models"
	"github.com/vishvendra9627/tourist-safety-app/internal/identity/validation"
	"github.com/vishvendra9627/tourist-safety-app/internal/platform/metrics"
	dErrors "github.com/vishvendra9627/tourist-safety-app/pkg/domain-errors"
	"github.com/vishvendra9627/tourist-safety-app/pkg/platform/sentinel"
	"github.com/vishvendra9627/tourist-safety-app/pkg/requestcontext"
)

var tracer = otel.Tracer("github.com/vishvendra9627/tourist-safety-app/internal/identity/service")

// Store persists identity records.
type Store interface {
	Save(ctx context.Context, record *models.IdentityRecord) error
	ListAll(ctx context.Context) ([]*models.IdentityRecord, error)
	ListByEmail(ctx context.Context, email string) ([]*models.IdentityRecord, error)
	FindLatestByEmail(ctx context.Context, email string) (*models.IdentityRecord, error)
	DeleteOldestByEmail(ctx context.Context, email string) (*models.IdentityRecord, error)
}

// AuditPublisher records identity lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service owns digital ID creation, lookup and deletion for an authenticated owner.
type Service struct {
	store   Store
	auditor AuditPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	policy  validation.ContactPolicy
}

// Option configures the Service.
type Option func(*Service)

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithContactPolicy selects how emergency contacts are validated on create.
func WithContactPolicy(p validation.ContactPolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		policy: validation.StopAtFirstInvalidContact,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates sub and stores it as a new record for owner. A blank email
// defaults to the owner; any other email must match the owner.
func (s *Service) Create(ctx context.Context, owner string, sub models.Submission) (*models.IdentityRecord, error) {
	ctx, span := tracer.Start(ctx, "identity.Create")
	defer span.End()

	if strings.TrimSpace(sub.Email) == "" {
		sub.Email = owner
	}
	if !sameOwner(owner, sub.Email) {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot create a digital ID for another account")
	}
	sub.Email = strings.TrimSpace(owner)

	record, err := validation.Validate(sub, validation.WithContactPolicy(s.policy))
	if err != nil {
		return nil, err
	}
	record.ID = uuid.New()
	record.CreatedAt = requestcontext.Now(ctx)

	if err := s.store.Save(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save digital ID")
	}
	span.SetAttributes(attribute.String("identity.kyc", string(record.KYC.Type())))

	s.metrics.IncrementIdentitiesCreated()
	s.emit(ctx, audit.ActionIdentityCreated, owner, record.ID.String())
	return &record, nil
}

// FindByOwner lists the owner's records, oldest first.
func (s *Service) FindByOwner(ctx context.Context, owner string) ([]*models.IdentityRecord, error) {
	records, err := s.store.ListByEmail(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list digital IDs")
	}
	return nonNil(records), nil
}

// ListAll returns every record; reachable only from operator routes.
func (s *Service) ListAll(ctx context.Context) ([]*models.IdentityRecord, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list digital IDs")
	}
	return nonNil(records), nil
}

// Latest returns the owner's most recently created record, or a not_found error.
func (s *Service) Latest(ctx context.Context, owner string) (*models.IdentityRecord, error) {
	record, err := s.store.FindLatestByEmail(ctx, owner)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Digital ID not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load digital ID")
	}
	return record, nil
}

// DeleteByOwner removes exactly one record for email (the oldest).
func (s *Service) DeleteByOwner(ctx context.Context, owner, email string) (*models.IdentityRecord, error) {
	ctx, span := tracer.Start(ctx, "identity.Delete")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "Email is required to delete digital ID")
	}
	if !sameOwner(owner, email) {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot delete another account's digital ID")
	}
	email = strings.TrimSpace(owner)

	deleted, err := s.store.DeleteOldestByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Digital ID not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete digital ID")
	}

	s.metrics.IncrementIdentitiesDeleted()
	s.emit(ctx, audit.ActionIdentityDeleted, owner, deleted.ID.String())
	return deleted, nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, owner, resourceID string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Emit(ctx, audit.Event{
		Timestamp:  requestcontext.Now(ctx),
		Action:     action,
		Owner:      owner,
		ResourceID: resourceID,
		Subject:    requestcontext.Subject(ctx),
		TokenID:    requestcontext.TokenID(ctx),
		RequestID:  requestcontext.RequestID(ctx),
		ClientIP:   requestcontext.ClientIP(ctx),
	})
}

// sameOwner compares emails case-insensitively. Records are always stored
// under the owner's spelling so lookups by owner find them.
func sameOwner(owner, email string) bool {
	return strings.EqualFold(strings.TrimSpace(owner), strings.TrimSpace(email))
}

func nonNil(records []*models.IdentityRecord) []*models.IdentityRecord {
	if records == nil {
		return []*models.IdentityRecord{}
	}
	return records
}
