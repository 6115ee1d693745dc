package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newGeocoderBreaker(opts ...Option) (*Breaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)}
	return New("geocoder", append([]Option{WithClock(clock.Now)}, opts...)...), clock
}

// record replays a sequence of geocoder outcomes, 'f' for failure and 's' for success.
func record(b *Breaker, outcomes string) {
	for _, o := range outcomes {
		if o == 'f' {
			b.RecordFailure()
		} else {
			b.RecordSuccess()
		}
	}
}

func TestBreakerDefaultsTolerateShortOutages(t *testing.T) {
	b, _ := newGeocoderBreaker()
	require.Equal(t, "geocoder", b.Name())

	record(b, "ffff")
	assert.True(t, b.Allow(), "four timeouts in a row keep the geocoder in use")

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerConsecutiveFailures(t *testing.T) {
	tests := []struct {
		name     string
		outcomes string
		wantOpen bool
	}{
		{name: "flaky upstream never opens", outcomes: "ffsffsffs", wantOpen: false},
		{name: "three straight failures open", outcomes: "sfff", wantOpen: true},
		{name: "success just before threshold resets count", outcomes: "ffsff", wantOpen: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newGeocoderBreaker(WithFailureThreshold(3))
			record(b, tt.outcomes)
			assert.Equal(t, tt.wantOpen, b.IsOpen())
		})
	}
}

func TestBreakerOpenRejectsUntilCooldown(t *testing.T) {
	b, clock := newGeocoderBreaker(WithFailureThreshold(2), WithCooldown(30*time.Second))
	record(b, "ff")

	assert.False(t, b.Allow())
	clock.advance(29 * time.Second)
	assert.False(t, b.Allow(), "still cooling down")

	clock.advance(time.Second)
	assert.True(t, b.Allow(), "one trial call after cooldown")
	assert.False(t, b.Allow(), "concurrent callers wait while the trial is in flight")
}

func TestBreakerFailedTrialRestartsCooldown(t *testing.T) {
	b, clock := newGeocoderBreaker(WithFailureThreshold(1), WithCooldown(10*time.Second))
	b.RecordFailure()

	clock.advance(10 * time.Second)
	require.True(t, b.Allow())
	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened, "already open")

	clock.advance(5 * time.Second)
	assert.False(t, b.Allow(), "cooldown counts from the failed trial")
	clock.advance(5 * time.Second)
	assert.True(t, b.Allow())
}

func TestBreakerRecoveryNeedsConsecutiveTrialSuccesses(t *testing.T) {
	b, clock := newGeocoderBreaker(WithFailureThreshold(1), WithSuccessThreshold(2), WithCooldown(time.Second))
	b.RecordFailure()

	clock.advance(time.Second)
	require.True(t, b.Allow())
	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)

	clock.advance(time.Second)
	require.True(t, b.Allow())
	b.RecordFailure()
	assert.True(t, b.IsOpen(), "a failure between trials starts recovery over")

	record(b, "s")
	assert.True(t, b.IsOpen())
	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.True(t, b.Allow())
}

func TestBreakerResetAfterOutage(t *testing.T) {
	b, _ := newGeocoderBreaker(WithFailureThreshold(1), WithCooldown(time.Hour))
	b.RecordFailure()
	require.False(t, b.Allow())

	b.Reset()

	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
	useFallback, _ := b.RecordFailure()
	assert.True(t, useFallback, "threshold of one still applies after reset")
}

func TestBreakerIgnoresNonPositiveThresholds(t *testing.T) {
	b, _ := newGeocoderBreaker(WithFailureThreshold(0), WithSuccessThreshold(-1))
	record(b, "ffff")
	assert.False(t, b.IsOpen(), "default failure threshold kept")
	b.RecordFailure()
	assert.True(t, b.IsOpen())
}
