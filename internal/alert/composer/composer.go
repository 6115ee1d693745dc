// Package composer builds panic alerts from an identity snapshot and a location.
package composer

import (
	"time"

	"github.com/vishvendra9627/tourist-safety-app/internal/alert/models"
	idmodels "github.com/vishvendra9627/tourist-safety-app/internal/identity/models"
	locmodels "github.com/vishvendra9627/tourist-safety-app/internal/location/models"
	dErrors "github.com/vishvendra9627/tourist-safety-app/pkg/domain-errors"
)

// MessageMissingIdentity asks the user to create a digital ID before raising alerts.
const MessageMissingIdentity = "Create your digital ID before sending a panic alert"

// ErrMissingIdentity is returned when there is no identity to compose from.
var ErrMissingIdentity = dErrors.New(dErrors.CodeMissingIdentity, MessageMissingIdentity)

// Compose copies identity fields into a new alert for owner. loc may be nil,
// in which case the alert has no locations. The caller assigns the ID.
func Compose(owner string, identity *idmodels.IdentityRecord, loc *locmodels.ResolvedLocation, now time.Time) (models.Alert, error) {
	if identity == nil {
		return models.Alert{}, ErrMissingIdentity
	}

	email := identity.Email
	if email == "" {
		email = owner
	}

	contacts := make([]models.EmergencyContact, 0, len(identity.EmergencyContacts))
	for _, c := range identity.EmergencyContacts {
		contacts = append(contacts, models.EmergencyContact{
			Name:     c.Name,
			Phone:    c.Contact,
			Relation: c.Relation,
		})
	}

	locations := []locmodels.ResolvedLocation{}
	if loc != nil {
		locations = append(locations, *loc)
	}

	return models.Alert{
		Email:             email,
		Name:              identity.Name,
		ContactNumber:     identity.ContactInfo,
		KYC:               splitKYC(identity.KYC),
		EmergencyContacts: contacts,
		Locations:         locations,
		CreatedAt:         now,
	}, nil
}

func splitKYC(k idmodels.KYC) models.KYC {
	var out models.KYC
	switch v := k.(type) {
	case idmodels.Aadhaar:
		out.Aadhaar.Number = &v.Number
	case idmodels.Passport:
		out.Passport.Number = &v.Number
		out.Passport.Country = &v.Country
	}
	return out
}
