// Package service is the entry point handlers use for location reporting and lookup.
package service

import (
	"context"
	"errors"

	"github.com/vishvendra9627/tourist-safety-app/internal/location/models"
	dErrors "github.com/vishvendra9627/tourist-safety-app/pkg/domain-errors"
	"github.com/vishvendra9627/tourist-safety-app/pkg/platform/sentinel"
	"github.com/vishvendra9627/tourist-safety-app/pkg/requestcontext"
)

type Publisher interface {
	Publish(s models.Sample)
}

type Tracker interface {
	Latest(ctx context.Context, owner string) (*models.ResolvedLocation, error)
}

type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) (models.ResolvedLocation, error)
}

type Service struct {
	feed     Publisher
	tracker  Tracker
	resolver Resolver
}

func New(feed Publisher, tracker Tracker, resolver Resolver) *Service {
	return &Service{feed: feed, tracker: tracker, resolver: resolver}
}

// Report queues a position sample for background resolution.
func (s *Service) Report(ctx context.Context, owner string, lat, lon float64) error {
	if err := models.ValidateCoordinates(lat, lon); err != nil {
		return err
	}
	s.feed.Publish(models.Sample{
		Owner:      owner,
		Latitude:   lat,
		Longitude:  lon,
		ReceivedAt: requestcontext.Now(ctx),
	})
	return nil
}

// Current returns the owner's last resolved location.
func (s *Service) Current(ctx context.Context, owner string) (*models.ResolvedLocation, error) {
	loc, err := s.tracker.Latest(ctx, owner)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "No location reported yet")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load location")
	}
	return loc, nil
}

// Resolve reverse geocodes synchronously.
func (s *Service) Resolve(ctx context.Context, lat, lon float64) (*models.ResolvedLocation, error) {
	loc, err := s.resolver.Resolve(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}
