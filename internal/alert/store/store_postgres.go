package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vishvendra9627/tourist-safety-app/internal/alert/models"
	locmodels "github.com/vishvendra9627/tourist-safety-app/internal/location/models"
)

// PostgresStore persists alerts in the alerts table. Alerts are never updated
// or deleted.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const alertColumns = `id, email, full_name, contact_number, aadhaar_number, passport_country,
	passport_number, emergency_contacts, locations, source, created_at`

func (s *PostgresStore) Save(ctx context.Context, alert *models.Alert) error {
	contacts := alert.EmergencyContacts
	if contacts == nil {
		contacts = []models.EmergencyContact{}
	}
	contactsJSON, err := json.Marshal(contacts)
	if err != nil {
		return fmt.Errorf("marshal emergency contacts: %w", err)
	}
	locations := alert.Locations
	if locations == nil {
		locations = []locmodels.ResolvedLocation{}
	}
	locationsJSON, err := json.Marshal(locations)
	if err != nil {
		return fmt.Errorf("marshal locations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, email, full_name, contact_number, kyc_type, aadhaar_number,
			passport_country, passport_number, emergency_contacts, locations, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
		alert.ID, alert.Email, alert.Name, alert.ContactNumber, alert.KYC.Type(),
		nullable(alert.KYC.Aadhaar.Number), nullable(alert.KYC.Passport.Country), nullable(alert.KYC.Passport.Number),
		string(contactsJSON), string(locationsJSON), string(alert.Source), alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save alert: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByEmail(ctx context.Context, email string) ([]*models.Alert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE email = $1 ORDER BY created_at DESC, id`, email)
	if err != nil {
		return nil, fmt.Errorf("list alerts by email: %w", err)
	}
	defer rows.Close()

	var out []*models.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}

func scanAlert(rows *sql.Rows) (*models.Alert, error) {
	var (
		id                           uuid.UUID
		email, name, contact, source string
		aadhaar, country, number     sql.NullString
		contactsRaw, locationsRaw    []byte
		createdAt                    time.Time
	)
	if err := rows.Scan(&id, &email, &name, &contact, &aadhaar, &country, &number,
		&contactsRaw, &locationsRaw, &source, &createdAt); err != nil {
		return nil, err
	}

	alert := &models.Alert{
		ID:                id,
		Email:             email,
		Name:              name,
		ContactNumber:     contact,
		EmergencyContacts: []models.EmergencyContact{},
		Locations:         []locmodels.ResolvedLocation{},
		Source:            models.Source(source),
		CreatedAt:         createdAt,
		KYC: models.KYC{
			Aadhaar:  models.AadhaarKYC{Number: ptr(aadhaar)},
			Passport: models.PassportKYC{Number: ptr(number), Country: ptr(country)},
		},
	}
	if len(contactsRaw) > 0 {
		if err := json.Unmarshal(contactsRaw, &alert.EmergencyContacts); err != nil {
			return nil, fmt.Errorf("unmarshal emergency contacts: %w", err)
		}
	}
	if len(locationsRaw) > 0 {
		if err := json.Unmarshal(locationsRaw, &alert.Locations); err != nil {
			return nil, fmt.Errorf("unmarshal locations: %w", err)
		}
	}
	return alert, nil
}

func nullable(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func ptr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
