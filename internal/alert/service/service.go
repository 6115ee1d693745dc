package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vishvendra9627/tourist-safety-app/internal/alert/composer"
	"github.com/vishvendra9627/tourist-safety-app/internal/alert/models"
	"github.com/vishvendra9627/tourist-safety-app/internal/audit"
	"github.com/vishvendra9627/tourist-safety-app/internal/device"
	idmodels "github.com/vishvendra9627/tourist-safety-app/internal/identity/models"
	"github.com/vishvendra9627/tourist-safety-app/internal/identity/validation"
	locmodels "github.com/vishvendra9627/tourist-safety-app/internal/location/models"
	"github.com/vishvendra9627/tourist-safety-app/internal/platform/metrics"
	dErrors "github.com/vishvendra9627/tourist-safety-app/pkg/domain-errors"
	"github.com/vishvendra9627/tourist-safety-app/pkg/requestcontext"
)

var tracer = otel.Tracer("github.com/vishvendra9627/tourist-safety-app/internal/alert/service")

// Store persists alerts. Alerts are append-only.
type Store interface {
	Save(ctx context.Context, alert *models.Alert) error
	ListByEmail(ctx context.Context, email string) ([]*models.Alert, error)
}

// IdentitySource looks up the owner's current digital ID. A not_found error
// means the owner has none.
type IdentitySource interface {
	Latest(ctx context.Context, owner string) (*idmodels.IdentityRecord, error)
}

// LocationSource provides the owner's tracked location and on-demand resolution.
type LocationSource interface {
	Current(ctx context.Context, owner string) (*locmodels.ResolvedLocation, error)
	Resolve(ctx context.Context, lat, lon float64) (*locmodels.ResolvedLocation, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Coordinates is a client-reported position.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// TriggerInput carries the optional client-side state for a server-composed alert.
// Nil fields are filled from the owner's stored identity and tracked location.
type TriggerInput struct {
	Identity *idmodels.Submission
	Location *Coordinates
}

type Service struct {
	store      Store
	identities IdentitySource
	locations  LocationSource
	auditor    AuditPublisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	policy     validation.ContactPolicy
}

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

// WithContactPolicy applies to identity snapshots sent with a trigger.
func WithContactPolicy(p validation.ContactPolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func New(store Store, identities IdentitySource, locations LocationSource, opts ...Option) *Service {
	s := &Service{
		store:      store,
		identities: identities,
		locations:  locations,
		logger:     slog.Default(),
		policy:     validation.StopAtFirstInvalidContact,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record stores an alert the client composed itself.
func (s *Service) Record(ctx context.Context, owner string, alert models.Alert) (*models.Alert, error) {
	ctx, span := tracer.Start(ctx, "alert.Record")
	defer span.End()

	alert.Email = strings.TrimSpace(alert.Email)
	if alert.Email == "" {
		alert.Email = owner
	}
	if !sameOwner(owner, alert.Email) {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot send a panic alert for another account")
	}
	alert.Email = strings.TrimSpace(owner)
	if err := validateRecorded(&alert); err != nil {
		return nil, err
	}

	alert.Source = models.SourceRecorded
	return s.save(ctx, owner, alert)
}

// Trigger composes an alert server-side from the owner's identity and last
// known location. Without an identity nothing is stored.
func (s *Service) Trigger(ctx context.Context, owner string, in TriggerInput) (*models.Alert, error) {
	ctx, span := tracer.Start(ctx, "alert.Trigger")
	defer span.End()

	identity, err := s.identityFor(ctx, owner, in.Identity)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		span.SetAttributes(attribute.Bool("alert.missing_identity", true))
		return nil, composer.ErrMissingIdentity
	}

	loc, err := s.locationFor(ctx, owner, in.Location)
	if err != nil {
		return nil, err
	}

	alert, err := composer.Compose(owner, identity, loc, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	alert.Source = models.SourceTriggered
	return s.save(ctx, owner, alert)
}

// List returns the owner's alerts, newest first.
func (s *Service) List(ctx context.Context, owner string) ([]*models.Alert, error) {
	alerts, err := s.store.ListByEmail(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list panic alerts")
	}
	if alerts == nil {
		alerts = []*models.Alert{}
	}
	return alerts, nil
}

func (s *Service) identityFor(ctx context.Context, owner string, snapshot *idmodels.Submission) (*idmodels.IdentityRecord, error) {
	if snapshot != nil {
		sub := *snapshot
		if strings.TrimSpace(sub.Email) == "" {
			sub.Email = owner
		}
		if !sameOwner(owner, sub.Email) {
			return nil, dErrors.New(dErrors.CodeForbidden, "cannot send a panic alert for another account")
		}
		sub.Email = strings.TrimSpace(owner)
		record, err := validation.Validate(sub, validation.WithContactPolicy(s.policy))
		if err != nil {
			return nil, err
		}
		return &record, nil
	}

	record, err := s.identities.Latest(ctx, owner)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// locationFor never fails because of the geocoder: an unresolvable client
// position keeps its coordinates with "N/A" components, and a tracker failure
// yields no location.
func (s *Service) locationFor(ctx context.Context, owner string, reported *Coordinates) (*locmodels.ResolvedLocation, error) {
	if reported != nil {
		if err := locmodels.ValidateCoordinates(reported.Latitude, reported.Longitude); err != nil {
			return nil, err
		}
		loc, err := s.locations.Resolve(ctx, reported.Latitude, reported.Longitude)
		if err != nil {
			s.logger.WarnContext(ctx, "panic location not resolved, keeping raw coordinates",
				"owner", owner,
				"error", err,
			)
			raw := locmodels.Unresolved(reported.Latitude, reported.Longitude)
			return &raw, nil
		}
		return loc, nil
	}

	loc, err := s.locations.Current(ctx, owner)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.logger.WarnContext(ctx, "tracked location unavailable for panic alert",
				"owner", owner,
				"error", err,
			)
		}
		return nil, nil
	}
	return loc, nil
}

func (s *Service) save(ctx context.Context, owner string, alert models.Alert) (*models.Alert, error) {
	span := trace.SpanFromContext(ctx)
	alert.ID = uuid.New()
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = requestcontext.Now(ctx)
	}
	if alert.EmergencyContacts == nil {
		alert.EmergencyContacts = []models.EmergencyContact{}
	}
	if alert.Locations == nil {
		alert.Locations = []locmodels.ResolvedLocation{}
	}

	if err := s.store.Save(ctx, &alert); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to save panic data")
	}
	span.SetAttributes(
		attribute.String("alert.source", string(alert.Source)),
		attribute.Int("alert.locations", len(alert.Locations)),
	)

	s.metrics.IncrementPanicAlerts(string(alert.Source))
	if s.auditor != nil {
		dev := device.Parse(requestcontext.UserAgent(ctx))
		s.auditor.Emit(ctx, audit.Event{
			Timestamp:   requestcontext.Now(ctx),
			Action:      audit.ActionPanicAlertCreated,
			Owner:       owner,
			ResourceID:  alert.ID.String(),
			Subject:     requestcontext.Subject(ctx),
			TokenID:     requestcontext.TokenID(ctx),
			RequestID:   requestcontext.RequestID(ctx),
			ClientIP:    requestcontext.ClientIP(ctx),
			Device:      dev.Display,
			Mobile:      dev.Mobile,
			Source:      string(alert.Source),
			HasLocation: len(alert.Locations) > 0,
		})
	}
	return &alert, nil
}

// sameOwner compares emails case-insensitively; alerts are stored under the
// owner's spelling.
func sameOwner(owner, email string) bool {
	return strings.EqualFold(strings.TrimSpace(owner), strings.TrimSpace(email))
}

func validateRecorded(alert *models.Alert) error {
	fields := map[string]string{}
	alert.Name = strings.TrimSpace(alert.Name)
	alert.ContactNumber = strings.TrimSpace(alert.ContactNumber)
	if alert.Name == "" {
		fields["name"] = "Name is required."
	}
	if alert.ContactNumber == "" {
		fields["contact_number"] = "Contact number is required."
	}
	for i := range alert.Locations {
		p := &alert.Locations[i].Coordinates
		key := fmt.Sprintf("locations-%d-coordinates", i)
		if p.Type == "" {
			p.Type = "Point"
		}
		if p.Type != "Point" {
			fields[key] = "Coordinates must be a GeoJSON Point."
			continue
		}
		if err := locmodels.ValidateCoordinates(p.Latitude(), p.Longitude()); err != nil {
			fields[key] = "Coordinates are out of range."
		}
	}
	if len(fields) > 0 {
		return dErrors.Validation("panic alert is invalid", fields)
	}
	return nil
}
