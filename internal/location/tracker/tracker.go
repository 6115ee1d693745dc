// Package tracker remembers the most recent resolved location per owner.
package tracker

import (
	"context"
	"sync"

	"github.com/vishvendra9627/tourist-safety-app/internal/location/models"
	"github.com/vishvendra9627/tourist-safety-app/pkg/platform/sentinel"
)

// InMemory keeps the latest location per owner for the process lifetime.
type InMemory struct {
	mu     sync.RWMutex
	latest map[string]models.ResolvedLocation
}

func NewInMemory() *InMemory {
	return &InMemory{latest: make(map[string]models.ResolvedLocation)}
}

// Latest returns sentinel.ErrNotFound when nothing has been tracked for owner.
func (t *InMemory) Latest(_ context.Context, owner string) (*models.ResolvedLocation, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	loc, ok := t.latest[owner]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &loc, nil
}

func (t *InMemory) Set(_ context.Context, owner string, loc models.ResolvedLocation) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest[owner] = loc
	return nil
}
