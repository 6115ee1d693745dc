package models

import (
	"time"

	"github.com/google/uuid"

	locmodels "github.com/vishvendra9627/tourist-safety-app/internal/location/models"
)

// Source records how an alert was composed.
type Source string

const (
	// SourceRecorded alerts were composed by the client and stored as sent.
	SourceRecorded Source = "recorded"
	// SourceTriggered alerts were composed server-side from stored state.
	SourceTriggered Source = "triggered"
)

// Alert is an immutable panic record: a snapshot of the owner's identity,
// contacts and last known location at the moment the alert was raised.
type Alert struct {
	ID                uuid.UUID                    `json:"id"`
	Email             string                       `json:"email"`
	Name              string                       `json:"name"`
	ContactNumber     string                       `json:"contact_number"`
	KYC               KYC                          `json:"kyc"`
	EmergencyContacts []EmergencyContact           `json:"emergency_contacts"`
	Locations         []locmodels.ResolvedLocation `json:"locations"`
	Source            Source                       `json:"source"`
	CreatedAt         time.Time                    `json:"created_at"`
}

// KYC always carries both branches; the unused one has null fields.
type KYC struct {
	Aadhaar  AadhaarKYC  `json:"aadhaar"`
	Passport PassportKYC `json:"passport"`
}

type AadhaarKYC struct {
	Number *string `json:"number"`
}

type PassportKYC struct {
	Number  *string `json:"number"`
	Country *string `json:"country"`
}

// Type names the populated branch, or "" when neither is set.
func (k KYC) Type() string {
	switch {
	case k.Aadhaar.Number != nil:
		return "aadhaar"
	case k.Passport.Number != nil || k.Passport.Country != nil:
		return "passport"
	default:
		return ""
	}
}

// EmergencyContact in alert form: the identity's contact is exposed as phone.
type EmergencyContact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
}
