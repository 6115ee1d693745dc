package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vishvendra9627/tourist-safety-app/internal/location/models"
	"github.com/vishvendra9627/tourist-safety-app/internal/platform/metrics"
)

// Sample outcomes reported to metrics.
const (
	OutcomeResolved  = "resolved"
	OutcomeThrottled = "throttled"
	OutcomeFailed    = "failed"
)

type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) (models.ResolvedLocation, error)
}

type Tracker interface {
	Set(ctx context.Context, owner string, loc models.ResolvedLocation) error
}

// Watcher resolves samples from a Feed and records them in a Tracker.
type Watcher struct {
	feed     *Feed
	resolver Resolver
	tracker  Tracker
	metrics  *metrics.Metrics
	logger   *slog.Logger

	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	// deferred holds the newest throttled sample per owner until its retry fires.
	deferred map[string]models.Sample
}

type Option func(*Watcher)

// WithThrottle allows perSecond resolutions per owner with the given burst.
// A throttled sample is retried once the owner has a token again, unless a
// newer one arrives first. perSecond of 0 disables throttling.
func WithThrottle(perSecond float64, burst int) Option {
	return func(w *Watcher) {
		w.limit = rate.Limit(perSecond)
		w.burst = max(burst, 1)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Watcher) {
		w.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

func NewWatcher(feed *Feed, resolver Resolver, tracker Tracker, opts ...Option) *Watcher {
	w := &Watcher{
		feed:     feed,
		resolver: resolver,
		tracker:  tracker,
		logger:   slog.Default(),
		limiters: make(map[string]*rate.Limiter),
		deferred: make(map[string]models.Sample),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes the feed until ctx is cancelled. Per-sample failures are
// logged and counted; they never stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "location watcher started")
	for s := range w.feed.Subscribe(ctx) {
		w.handle(ctx, s)
	}
	w.logger.InfoContext(ctx, "location watcher stopped")
	return nil
}

func (w *Watcher) handle(ctx context.Context, s models.Sample) {
	if delay, ok := w.admit(s.Owner); !ok {
		w.metrics.IncrementLocationSamples(OutcomeThrottled)
		w.retryAfter(s, delay)
		return
	}
	w.dropDeferred(s.Owner)

	loc, err := w.resolver.Resolve(ctx, s.Latitude, s.Longitude)
	if err != nil {
		w.logger.WarnContext(ctx, "failed to resolve location sample",
			"owner", s.Owner,
			"error", err,
		)
		w.metrics.IncrementLocationSamples(OutcomeFailed)
		return
	}
	if err := w.tracker.Set(ctx, s.Owner, loc); err != nil {
		w.logger.ErrorContext(ctx, "failed to track location",
			"owner", s.Owner,
			"error", err,
		)
		w.metrics.IncrementLocationSamples(OutcomeFailed)
		return
	}
	w.metrics.IncrementLocationSamples(OutcomeResolved)
}

// admit takes a token from the owner's limiter. When none is available it
// reports how long until one is, without consuming it.
func (w *Watcher) admit(owner string) (time.Duration, bool) {
	if w.limit <= 0 {
		return 0, true
	}
	w.mu.Lock()
	l, ok := w.limiters[owner]
	if !ok {
		l = rate.NewLimiter(w.limit, w.burst)
		w.limiters[owner] = l
	}
	w.mu.Unlock()

	now := time.Now()
	r := l.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay == 0 {
		return 0, true
	}
	r.CancelAt(now)
	return delay, false
}

// dropDeferred forgets an older throttled sample once a newer one is admitted.
func (w *Watcher) dropDeferred(owner string) {
	w.mu.Lock()
	delete(w.deferred, owner)
	w.mu.Unlock()
}

// retryAfter keeps s as the owner's deferred sample and hands it back to the
// feed after delay. One retry is scheduled per owner; later throttled samples
// replace the deferred one.
func (w *Watcher) retryAfter(s models.Sample, delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, scheduled := w.deferred[s.Owner]
	w.deferred[s.Owner] = s
	if scheduled {
		return
	}
	time.AfterFunc(delay, func() {
		w.mu.Lock()
		next, ok := w.deferred[s.Owner]
		delete(w.deferred, s.Owner)
		w.mu.Unlock()
		if ok {
			w.feed.Requeue(next)
		}
	})
}
