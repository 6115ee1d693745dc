// Package watch moves device position samples from HTTP handlers to the
// background resolver.
package watch

import (
	"context"
	"sync"

	"github.com/vishvendra9627/tourist-safety-app/internal/location/models"
)

// Feed buffers at most one pending sample per owner. Publishing a newer
// sample for an owner replaces the pending one, so a slow consumer sees only
// the latest position. Owners are delivered in first-published order.
type Feed struct {
	mu      sync.Mutex
	pending map[string]models.Sample
	order   []string
	notify  chan struct{}
}

func NewFeed() *Feed {
	return &Feed{
		pending: make(map[string]models.Sample),
		notify:  make(chan struct{}, 1),
	}
}

// Publish never blocks.
func (f *Feed) Publish(s models.Sample) {
	f.mu.Lock()
	if _, queued := f.pending[s.Owner]; !queued {
		f.order = append(f.order, s.Owner)
	}
	f.pending[s.Owner] = s
	f.mu.Unlock()

	select {
	case f.notify <- struct{}{}:
	default:
	}
}

// Requeue returns a sample taken from the feed. A sample published for the
// owner since then is newer and wins, so Requeue never overwrites it.
func (f *Feed) Requeue(s models.Sample) {
	f.mu.Lock()
	if _, queued := f.pending[s.Owner]; queued {
		f.mu.Unlock()
		return
	}
	f.order = append(f.order, s.Owner)
	f.pending[s.Owner] = s
	f.mu.Unlock()

	select {
	case f.notify <- struct{}{}:
	default:
	}
}

// Pending reports how many owners have an undelivered sample.
func (f *Feed) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Subscribe delivers samples until ctx is cancelled, then closes the channel.
// Concurrent subscribers split the samples between them.
func (f *Feed) Subscribe(ctx context.Context) <-chan models.Sample {
	out := make(chan models.Sample)
	go func() {
		defer close(out)
		for {
			s, ok := f.next()
			if !ok {
				select {
				case <-ctx.Done():
					return
				case <-f.notify:
					continue
				}
			}
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (f *Feed) next() (models.Sample, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.order) == 0 {
		return models.Sample{}, false
	}
	owner := f.order[0]
	f.order = f.order[1:]
	s := f.pending[owner]
	delete(f.pending, owner)
	return s, true
}
