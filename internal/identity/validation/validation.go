// Package validation turns a raw digital ID submission into a well-formed
// IdentityRecord or a field-keyed set of messages the form can display.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vishvendra9627/tourist-safety-app/internal/identity/models"
	dErrors "github.com/vishvendra9627/tourist-safety-app/pkg/domain-errors"
)

var (
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	lettersPattern  = regexp.MustCompile(`^[A-Za-z\s]+$`)
	digitsPattern   = regexp.MustCompile(`^\d+$`)
	aadhaarPattern  = regexp.MustCompile(`^\d{12}$`)
	passportPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// ContactPolicy controls how far emergency contact checking goes.
type ContactPolicy int

const (
	// StopAtFirstInvalidContact reports only the first contact with a problem.
	StopAtFirstInvalidContact ContactPolicy = iota
	// CollectAllContacts reports one error for every bad contact.
	CollectAllContacts
)

// ParseContactPolicy maps the config value ("first" or "all") to a policy.
func ParseContactPolicy(s string) (ContactPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return StopAtFirstInvalidContact, nil
	case "all":
		return CollectAllContacts, nil
	default:
		return 0, fmt.Errorf("unknown contact policy %q", s)
	}
}

type options struct {
	policy ContactPolicy
}

// Option configures Validate.
type Option func(*options)

// WithContactPolicy overrides the default StopAtFirstInvalidContact.
func WithContactPolicy(p ContactPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// Field keys reported in the error's Fields map.
const (
	FieldEmail           = "email"
	FieldName            = "name"
	FieldContactInfo     = "contactInfo"
	FieldKYC             = "kyc"
	FieldAadhaarNumber   = "aadhaarNumber"
	FieldPassportCountry = "passportCountry"
	FieldPassportNumber  = "passportNumber"
)

// ContactField is the error key for field of the i-th emergency contact.
func ContactField(i int, field string) string {
	return fmt.Sprintf("emergency-%d-%s", i, field)
}

// Validate normalizes sub (every string is trimmed) and checks it. The result
// carries no ID or CreatedAt; those are assigned on save.
func Validate(sub models.Submission, opts ...Option) (models.IdentityRecord, error) {
	o := options{policy: StopAtFirstInvalidContact}
	for _, opt := range opts {
		opt(&o)
	}

	sub = normalize(sub)
	errs := map[string]string{}

	check(errs, FieldEmail, sub.Email, emailPattern, "Email is required.", "Invalid email address.")
	check(errs, FieldName, sub.Name, lettersPattern, "Full name is required.", "Name must only contain letters.")
	check(errs, FieldContactInfo, sub.ContactInfo, digitsPattern, "Contact info is required.", "Contact must be numeric.")

	var kyc models.KYC
	switch models.KYCType(sub.KYC) {
	case models.KYCAadhaar:
		check(errs, FieldAadhaarNumber, sub.AadhaarNumber, aadhaarPattern, "Aadhaar number is required.", "Aadhaar must be 12 digits.")
		kyc = models.Aadhaar{Number: sub.AadhaarNumber}
	case models.KYCPassport:
		check(errs, FieldPassportCountry, sub.PassportCountry, lettersPattern, "Country is required.", "Country must be letters only.")
		check(errs, FieldPassportNumber, sub.PassportNumber, passportPattern, "Passport number is required.", "Passport number must be alphanumeric.")
		kyc = models.Passport{Country: sub.PassportCountry, Number: sub.PassportNumber}
	case "":
		errs[FieldKYC] = "KYC type is required."
	default:
		errs[FieldKYC] = "KYC type must be aadhaar or passport."
	}

	for i, c := range sub.EmergencyContacts {
		key, msg, ok := checkContact(i, c)
		if ok {
			continue
		}
		errs[key] = msg
		if o.policy == StopAtFirstInvalidContact {
			break
		}
	}

	if len(errs) > 0 {
		return models.IdentityRecord{}, dErrors.Validation("digital ID is invalid", errs)
	}

	contacts := sub.EmergencyContacts
	if contacts == nil {
		contacts = []models.EmergencyContact{}
	}
	return models.IdentityRecord{
		Email:             sub.Email,
		Name:              sub.Name,
		ContactInfo:       sub.ContactInfo,
		KYC:               kyc,
		EmergencyContacts: contacts,
	}, nil
}

// checkContact reports the first failing field of a contact in name, contact,
// relation order.
func checkContact(i int, c models.EmergencyContact) (string, string, bool) {
	switch {
	case c.Name == "":
		return ContactField(i, "name"), "Name is required.", false
	case !lettersPattern.MatchString(c.Name):
		return ContactField(i, "name"), "Name must be letters only.", false
	case c.Contact == "":
		return ContactField(i, "contact"), "Contact is required.", false
	case !digitsPattern.MatchString(c.Contact):
		return ContactField(i, "contact"), "Contact must be numeric.", false
	case c.Relation == "":
		return ContactField(i, "relation"), "Relation is required.", false
	case !lettersPattern.MatchString(c.Relation):
		return ContactField(i, "relation"), "Relation must be letters only.", false
	}
	return "", "", true
}

func check(errs map[string]string, field, value string, pattern *regexp.Regexp, requiredMsg, formatMsg string) {
	if value == "" {
		errs[field] = requiredMsg
		return
	}
	if !pattern.MatchString(value) {
		errs[field] = formatMsg
	}
}

func normalize(sub models.Submission) models.Submission {
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Name = strings.TrimSpace(sub.Name)
	sub.ContactInfo = strings.TrimSpace(sub.ContactInfo)
	sub.KYC = strings.ToLower(strings.TrimSpace(sub.KYC))
	sub.AadhaarNumber = strings.TrimSpace(sub.AadhaarNumber)
	sub.PassportCountry = strings.TrimSpace(sub.PassportCountry)
	sub.PassportNumber = strings.TrimSpace(sub.PassportNumber)
	if sub.EmergencyContacts != nil {
		contacts := make([]models.EmergencyContact, len(sub.EmergencyContacts))
		for i, c := range sub.EmergencyContacts {
			contacts[i] = models.EmergencyContact{
				Name:     strings.TrimSpace(c.Name),
				Contact:  strings.TrimSpace(c.Contact),
				Relation: strings.TrimSpace(c.Relation),
			}
		}
		sub.EmergencyContacts = contacts
	}
	return sub
}
