package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishvendra9627/tourist-safety-app/internal/location/models"
	"github.com/vishvendra9627/tourist-safety-app/internal/location/tracker"
	"github.com/vishvendra9627/tourist-safety-app/internal/platform/metrics"
)

func TestFeedConflatesPerOwner(t *testing.T) {
	feed := NewFeed()
	feed.Publish(models.Sample{Owner: "alice", Latitude: 1})
	feed.Publish(models.Sample{Owner: "bob", Latitude: 5})
	feed.Publish(models.Sample{Owner: "alice", Latitude: 2})
	require.Equal(t, 2, feed.Pending())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := feed.Subscribe(ctx)

	first := <-ch
	second := <-ch
	assert.Equal(t, "alice", first.Owner)
	assert.Equal(t, 2.0, first.Latitude, "latest sample wins")
	assert.Equal(t, "bob", second.Owner)
	assert.Zero(t, feed.Pending())
}

func TestFeedPublishDoesNotBlockWithoutSubscriber(t *testing.T) {
	feed := NewFeed()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			feed.Publish(models.Sample{Owner: "alice", Latitude: float64(i % 90)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked")
	}
	assert.Equal(t, 1, feed.Pending())
}

func TestFeedSubscribeClosesOnCancel(t *testing.T) {
	feed := NewFeed()
	ctx, cancel := context.WithCancel(context.Background())
	ch := feed.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription did not close")
	}
}

func TestFeedDeliversSamplesPublishedAfterSubscribe(t *testing.T) {
	feed := NewFeed()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := feed.Subscribe(ctx)

	feed.Publish(models.Sample{Owner: "carol", Latitude: 3})

	select {
	case s := <-ch:
		assert.Equal(t, "carol", s.Owner)
	case <-time.After(time.Second):
		t.Fatal("sample not delivered")
	}
}

func TestFeedRequeueKeepsNewerSample(t *testing.T) {
	feed := NewFeed()
	feed.Publish(models.Sample{Owner: "alice", Latitude: 9})
	feed.Requeue(models.Sample{Owner: "alice", Latitude: 4})
	feed.Requeue(models.Sample{Owner: "bob", Latitude: 5})
	require.Equal(t, 2, feed.Pending())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := feed.Subscribe(ctx)

	first := <-ch
	second := <-ch
	assert.Equal(t, 9.0, first.Latitude, "published sample is newer than the requeued one")
	assert.Equal(t, "bob", second.Owner)
}

type stubResolver struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *stubResolver) Resolve(_ context.Context, lat, lon float64) (models.ResolvedLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return models.ResolvedLocation{}, r.err
	}
	return models.Unresolved(lat, lon), nil
}

func TestWatcherHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("resolved samples are tracked", func(t *testing.T) {
		m := metrics.NewWithRegisterer(prometheus.NewRegistry())
		tr := tracker.NewInMemory()
		w := NewWatcher(NewFeed(), &stubResolver{}, tr, WithMetrics(m))

		w.handle(ctx, models.Sample{Owner: "alice", Latitude: 28.6, Longitude: 77.2})

		loc, err := tr.Latest(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, [2]float64{77.2, 28.6}, loc.Coordinates.Coordinates)
		assert.Equal(t, 1.0, promtest.ToFloat64(m.LocationSamples.WithLabelValues(OutcomeResolved)))
	})

	t.Run("resolver failure is counted and not tracked", func(t *testing.T) {
		m := metrics.NewWithRegisterer(prometheus.NewRegistry())
		tr := tracker.NewInMemory()
		w := NewWatcher(NewFeed(), &stubResolver{err: errors.New("upstream down")}, tr, WithMetrics(m))

		w.handle(ctx, models.Sample{Owner: "alice", Latitude: 1, Longitude: 1})

		_, err := tr.Latest(ctx, "alice")
		assert.Error(t, err)
		assert.Equal(t, 1.0, promtest.ToFloat64(m.LocationSamples.WithLabelValues(OutcomeFailed)))
	})

	t.Run("throttle is per owner", func(t *testing.T) {
		m := metrics.NewWithRegisterer(prometheus.NewRegistry())
		res := &stubResolver{}
		w := NewWatcher(NewFeed(), res, tracker.NewInMemory(), WithMetrics(m), WithThrottle(0.001, 1))

		w.handle(ctx, models.Sample{Owner: "alice", Latitude: 1, Longitude: 1})
		w.handle(ctx, models.Sample{Owner: "alice", Latitude: 2, Longitude: 2})
		w.handle(ctx, models.Sample{Owner: "bob", Latitude: 3, Longitude: 3})

		assert.Equal(t, 2, res.calls)
		assert.Equal(t, 1.0, promtest.ToFloat64(m.LocationSamples.WithLabelValues(OutcomeThrottled)))
	})

	t.Run("zero rate disables throttle", func(t *testing.T) {
		res := &stubResolver{}
		w := NewWatcher(NewFeed(), res, tracker.NewInMemory(), WithThrottle(0, 1))
		for i := 0; i < 5; i++ {
			w.handle(ctx, models.Sample{Owner: "alice", Latitude: 1, Longitude: 1})
		}
		assert.Equal(t, 5, res.calls)
	})
}

func trackedLatitude(t *testing.T, tr *tracker.InMemory, owner string) float64 {
	t.Helper()
	loc, err := tr.Latest(context.Background(), owner)
	if err != nil {
		return 0
	}
	return loc.Coordinates.Latitude()
}

func TestWatcherThrottledSampleIsEventuallyTracked(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	feed := NewFeed()
	tr := tracker.NewInMemory()
	w := NewWatcher(feed, &stubResolver{}, tr, WithMetrics(m), WithThrottle(20, 3))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for lat := 1; lat <= 4; lat++ {
		w.handle(ctx, models.Sample{Owner: "alice", Latitude: float64(lat), Longitude: float64(lat)})
	}
	assert.Equal(t, 3.0, trackedLatitude(t, tr, "alice"), "burst spent before the newest sample")
	assert.Equal(t, 1.0, promtest.ToFloat64(m.LocationSamples.WithLabelValues(OutcomeThrottled)))

	go func() { _ = w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return trackedLatitude(t, tr, "alice") == 4
	}, 2*time.Second, 10*time.Millisecond, "newest sample must supersede the tracked one")
}

func TestWatcherNewerReportReplacesDeferredSample(t *testing.T) {
	feed := NewFeed()
	tr := tracker.NewInMemory()
	res := &stubResolver{}
	w := NewWatcher(feed, res, tr, WithThrottle(20, 1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.handle(ctx, models.Sample{Owner: "alice", Latitude: 1, Longitude: 1})
	w.handle(ctx, models.Sample{Owner: "alice", Latitude: 2, Longitude: 2})
	feed.Publish(models.Sample{Owner: "alice", Latitude: 3, Longitude: 3})

	go func() { _ = w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return trackedLatitude(t, tr, "alice") == 3
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 3.0, trackedLatitude(t, tr, "alice"), "older deferred sample never lands")
	res.mu.Lock()
	defer res.mu.Unlock()
	assert.Equal(t, 2, res.calls, "lat 2 is never resolved")
}

func TestWatcherRunStopsOnCancel(t *testing.T) {
	feed := NewFeed()
	tr := tracker.NewInMemory()
	w := NewWatcher(feed, &stubResolver{}, tr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	feed.Publish(models.Sample{Owner: "alice", Latitude: 10, Longitude: 20})
	require.Eventually(t, func() bool {
		_, err := tr.Latest(context.Background(), "alice")
		return err == nil
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
