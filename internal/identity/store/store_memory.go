package store

import (
	"context"
	"sort"
	"sync"

	"github.com/vishvendra9627/tourist-safety-app/internal/identity/models"
	"github.com/vishvendra9627/tourist-safety-app/pkg/platform/sentinel"
)

// InMemoryStore keeps identity records in memory for tests and single-node runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []*models.IdentityRecord
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Save(_ context.Context, record *models.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, clone(record))
	return nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*models.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.IdentityRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, clone(r))
	}
	sortOldestFirst(out)
	return out, nil
}

func (s *InMemoryStore) ListByEmail(_ context.Context, email string) ([]*models.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.IdentityRecord
	for _, r := range s.records {
		if r.Email == email {
			out = append(out, clone(r))
		}
	}
	sortOldestFirst(out)
	return out, nil
}

func (s *InMemoryStore) FindLatestByEmail(ctx context.Context, email string) (*models.IdentityRecord, error) {
	records, err := s.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return records[len(records)-1], nil
}

// DeleteOldestByEmail removes exactly one record: the earliest created for email.
func (s *InMemoryStore) DeleteOldestByEmail(_ context.Context, email string) (*models.IdentityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, r := range s.records {
		if r.Email != email {
			continue
		}
		if idx == -1 || olderThan(r, s.records[idx]) {
			idx = i
		}
	}
	if idx == -1 {
		return nil, sentinel.ErrNotFound
	}
	deleted := s.records[idx]
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	return deleted, nil
}

func olderThan(a, b *models.IdentityRecord) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func sortOldestFirst(records []*models.IdentityRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return olderThan(records[i], records[j])
	})
}

func clone(r *models.IdentityRecord) *models.IdentityRecord {
	c := *r
	c.EmergencyContacts = append([]models.EmergencyContact(nil), r.EmergencyContacts...)
	return &c
}
