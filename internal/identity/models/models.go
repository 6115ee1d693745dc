package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// KYCType discriminates the two supported identity documents.
type KYCType string

const (
	KYCAadhaar  KYCType = "aadhaar"
	KYCPassport KYCType = "passport"
)

// KYC is the document branch of an identity record: either Aadhaar or Passport.
type KYC interface {
	Type() KYCType
	isKYC()
}

// Aadhaar is an Indian national identity number (12 digits).
type Aadhaar struct {
	Number string
}

func (Aadhaar) Type() KYCType { return KYCAadhaar }
func (Aadhaar) isKYC()        {}

// Passport identifies a foreign tourist.
type Passport struct {
	Country string
	Number  string
}

func (Passport) Type() KYCType { return KYCPassport }
func (Passport) isKYC()        {}

// EmergencyContact is someone to reach when the owner raises an alert.
type EmergencyContact struct {
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Relation string `json:"relation"`
}

// IdentityRecord is a validated digital ID. Records are keyed by owner email;
// an owner may hold several.
type IdentityRecord struct {
	ID                uuid.UUID
	Email             string
	Name              string
	ContactInfo       string
	KYC               KYC
	EmergencyContacts []EmergencyContact
	CreatedAt         time.Time
}

// Submission is the raw, unvalidated digital ID form as sent by the client.
type Submission struct {
	Email             string             `json:"email"`
	Name              string             `json:"name"`
	ContactInfo       string             `json:"contactInfo"`
	KYC               string             `json:"kyc"`
	AadhaarNumber     string             `json:"aadhaarNumber"`
	PassportCountry   string             `json:"passportCountry"`
	PassportNumber    string             `json:"passportNumber"`
	EmergencyContacts []EmergencyContact `json:"emergencyContacts"`
}

// identityJSON is the flat wire shape shared with the mobile and web clients.
type identityJSON struct {
	ID                uuid.UUID          `json:"id"`
	Email             string             `json:"email"`
	Name              string             `json:"name"`
	ContactInfo       string             `json:"contactInfo"`
	KYC               KYCType            `json:"kyc"`
	AadhaarNumber     string             `json:"aadhaarNumber,omitempty"`
	PassportCountry   string             `json:"passportCountry,omitempty"`
	PassportNumber    string             `json:"passportNumber,omitempty"`
	EmergencyContacts []EmergencyContact `json:"emergencyContacts"`
	CreatedAt         time.Time          `json:"createdAt"`
}

// MarshalJSON emits only the active KYC branch's fields.
func (r IdentityRecord) MarshalJSON() ([]byte, error) {
	out := identityJSON{
		ID:                r.ID,
		Email:             r.Email,
		Name:              r.Name,
		ContactInfo:       r.ContactInfo,
		EmergencyContacts: r.EmergencyContacts,
		CreatedAt:         r.CreatedAt,
	}
	if out.EmergencyContacts == nil {
		out.EmergencyContacts = []EmergencyContact{}
	}
	switch k := r.KYC.(type) {
	case Aadhaar:
		out.KYC = KYCAadhaar
		out.AadhaarNumber = k.Number
	case Passport:
		out.KYC = KYCPassport
		out.PassportCountry = k.Country
		out.PassportNumber = k.Number
	case nil:
	default:
		return nil, fmt.Errorf("unknown kyc variant %T", k)
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the KYC variant from the discriminator.
func (r *IdentityRecord) UnmarshalJSON(data []byte) error {
	var in identityJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = IdentityRecord{
		ID:                in.ID,
		Email:             in.Email,
		Name:              in.Name,
		ContactInfo:       in.ContactInfo,
		EmergencyContacts: in.EmergencyContacts,
		CreatedAt:         in.CreatedAt,
	}
	kyc, err := NewKYC(string(in.KYC), in.AadhaarNumber, in.PassportCountry, in.PassportNumber)
	if err != nil {
		return err
	}
	r.KYC = kyc
	return nil
}

// NewKYC builds the variant named by kycType from flat fields.
func NewKYC(kycType, aadhaarNumber, passportCountry, passportNumber string) (KYC, error) {
	switch KYCType(kycType) {
	case KYCAadhaar:
		return Aadhaar{Number: aadhaarNumber}, nil
	case KYCPassport:
		return Passport{Country: passportCountry, Number: passportNumber}, nil
	default:
		return nil, fmt.Errorf("unknown kyc type %q", kycType)
	}
}

// Fields flattens a KYC variant into (type, aadhaar number, passport country,
// passport number) for storage. Unused fields are empty.
func Fields(k KYC) (KYCType, string, string, string) {
	switch v := k.(type) {
	case Aadhaar:
		return KYCAadhaar, v.Number, "", ""
	case Passport:
		return KYCPassport, "", v.Country, v.Number
	default:
		return "", "", "", ""
	}
}
