package store

import (
	"context"
	"slices"
	"sync"

	"github.com/vishvendra9627/tourist-safety-app/internal/alert/models"
	locmodels "github.com/vishvendra9627/tourist-safety-app/internal/location/models"
)

// InMemoryStore keeps alerts in memory for tests and single-node runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	alerts []*models.Alert
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Save(_ context.Context, alert *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, clone(alert))
	return nil
}

// ListByEmail returns the owner's alerts, newest first.
func (s *InMemoryStore) ListByEmail(_ context.Context, email string) ([]*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Alert
	for i := len(s.alerts) - 1; i >= 0; i-- {
		if s.alerts[i].Email == email {
			out = append(out, clone(s.alerts[i]))
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Alert) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// Count reports how many alerts are stored.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}

func clone(a *models.Alert) *models.Alert {
	c := *a
	c.EmergencyContacts = slices.Clone(a.EmergencyContacts)
	c.Locations = slices.Clone(a.Locations)
	c.KYC = models.KYC{
		Aadhaar: models.AadhaarKYC{Number: clonePtr(a.KYC.Aadhaar.Number)},
		Passport: models.PassportKYC{
			Number:  clonePtr(a.KYC.Passport.Number),
			Country: clonePtr(a.KYC.Passport.Country),
		},
	}
	if c.Locations == nil {
		c.Locations = []locmodels.ResolvedLocation{}
	}
	if c.EmergencyContacts == nil {
		c.EmergencyContacts = []models.EmergencyContact{}
	}
	return &c
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
