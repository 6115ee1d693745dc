// Package resolver turns coordinates into a ResolvedLocation using a reverse
// geocoder, an optional cache and a circuit breaker around the upstream.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vishvendra9627/tourist-safety-app/internal/location/geocoder"
	"github.com/vishvendra9627/tourist-safety-app/internal/location/models"
	"github.com/vishvendra9627/tourist-safety-app/internal/platform/metrics"
	dErrors "github.com/vishvendra9627/tourist-safety-app/pkg/domain-errors"
	"github.com/vishvendra9627/tourist-safety-app/pkg/platform/circuit"
	"github.com/vishvendra9627/tourist-safety-app/pkg/platform/sentinel"
)

var tracer = otel.Tracer("github.com/vishvendra9627/tourist-safety-app/internal/location/resolver")

// MessageGeocoderUnavailable is the error description when the upstream fails.
const MessageGeocoderUnavailable = "geocoder_unavailable"

const defaultTimeout = 5 * time.Second

// Cache stores resolved locations by CacheKey. Get returns sentinel.ErrCacheMiss
// when nothing is stored.
type Cache interface {
	Get(ctx context.Context, key string) (models.ResolvedLocation, error)
	Set(ctx context.Context, key string, loc models.ResolvedLocation) error
}

type Resolver struct {
	client  geocoder.Client
	cache   Cache
	breaker *circuit.Breaker
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Resolver)

func WithCache(c Cache) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Resolver) {
		r.breaker = b
	}
}

// WithTimeout bounds each upstream call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

func New(client geocoder.Client, opts ...Option) *Resolver {
	r := &Resolver{
		client:  client,
		timeout: defaultTimeout,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve validates the coordinates and reverse geocodes them. An empty
// geocoder response yields an all-"N/A" location and no error.
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) (models.ResolvedLocation, error) {
	if err := models.ValidateCoordinates(lat, lon); err != nil {
		return models.ResolvedLocation{}, err
	}

	ctx, span := tracer.Start(ctx, "location.Resolve")
	defer span.End()

	key := CacheKey(lat, lon)
	if loc, ok := r.cached(ctx, key); ok {
		span.SetAttributes(attribute.Bool("geocode.cache_hit", true))
		loc.Coordinates = models.NewPoint(lat, lon)
		return loc, nil
	}

	if r.breaker != nil && !r.breaker.Allow() {
		span.SetStatus(codes.Error, "circuit open")
		r.metrics.ObserveGeocodeLatency("rejected", 0)
		return models.ResolvedLocation{}, dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeUpstream, MessageGeocoderUnavailable)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	result, err := r.client.ReverseGeocode(callCtx, lat, lon)
	if err != nil {
		r.metrics.ObserveGeocodeLatency("error", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "reverse geocode failed")
		r.recordFailure(ctx)
		return models.ResolvedLocation{}, dErrors.Wrap(err, dErrors.CodeUpstream, MessageGeocoderUnavailable)
	}
	r.metrics.ObserveGeocodeLatency("ok", time.Since(start))
	r.recordSuccess(ctx)

	loc := Extract(lat, lon, result)
	loc.ResolvedAt = r.now().UTC()
	span.SetAttributes(attribute.Bool("geocode.empty", result.Empty()))

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, loc); err != nil {
			r.logger.WarnContext(ctx, "failed to cache resolved location", "key", key, "error", err)
		}
	}
	return loc, nil
}

func (r *Resolver) cached(ctx context.Context, key string) (models.ResolvedLocation, bool) {
	if r.cache == nil {
		return models.ResolvedLocation{}, false
	}
	loc, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sentinel.ErrCacheMiss) {
			r.logger.WarnContext(ctx, "geocode cache lookup failed", "key", key, "error", err)
		}
		r.metrics.IncrementGeocodeCache(false)
		return models.ResolvedLocation{}, false
	}
	r.metrics.IncrementGeocodeCache(true)
	return loc, true
}

func (r *Resolver) recordFailure(ctx context.Context) {
	if r.breaker == nil {
		return
	}
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.logger.WarnContext(ctx, "geocoder circuit opened", "breaker", r.breaker.Name())
	}
}

func (r *Resolver) recordSuccess(ctx context.Context) {
	if r.breaker == nil {
		return
	}
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "geocoder circuit closed", "breaker", r.breaker.Name())
	}
}

// CacheKey rounds to 5 decimal places (about 1.1m) so nearby samples share an entry.
func CacheKey(lat, lon float64) string {
	return fmt.Sprintf("geo:%.5f,%.5f", round5(lat), round5(lon))
}

func round5(v float64) float64 {
	r := math.Round(v*1e5) / 1e5
	if r == 0 {
		return 0 // fold -0
	}
	return r
}

// Extract maps the first geocoder result onto a ResolvedLocation, filling
// missing components with models.NotAvailable.
func Extract(lat, lon float64, result geocoder.Result) models.ResolvedLocation {
	loc := models.Unresolved(lat, lon)
	if result.Empty() {
		return loc
	}
	first := result.Places[0]

	loc.State = component(first, "administrative_area_level_1")
	loc.District = component(first, "administrative_area_level_2", "administrative_area_level_3")
	loc.City = component(first, "locality", "sublocality", "administrative_area_level_3")
	loc.Postcode = component(first, "postal_code")
	loc.PlaceID = orNotAvailable(first.PlaceID)
	loc.DetailedAddress = orNotAvailable(first.FormattedAddress)
	if len(first.Types) > 0 {
		loc.Type = orNotAvailable(first.Types[0])
	}
	return loc
}

// component returns the long name of the first component matching any of
// types, trying types in order.
func component(p geocoder.Place, types ...string) string {
	for _, want := range types {
		for _, c := range p.AddressComponents {
			for _, t := range c.Types {
				if t == want && c.LongName != "" {
					return c.LongName
				}
			}
		}
	}
	return models.NotAvailable
}

func orNotAvailable(s string) string {
	if s == "" {
		return models.NotAvailable
	}
	return s
}
