package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vishvendra9627/tourist-safety-app/internal/identity/models"
	"github.com/vishvendra9627/tourist-safety-app/pkg/platform/sentinel"
)

// PostgresStore persists identity records in the identities table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed identity store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const identityColumns = `id, email, full_name, contact_info, kyc_type, aadhaar_number,
	passport_country, passport_number, emergency_contacts, created_at`

func (s *PostgresStore) Save(ctx context.Context, record *models.IdentityRecord) error {
	contacts, err := json.Marshal(nonNilContacts(record.EmergencyContacts))
	if err != nil {
		return fmt.Errorf("marshal emergency contacts: %w", err)
	}
	kind, aadhaar, country, number := models.Fields(record.KYC)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO identities (id, email, full_name, contact_info, kyc_type, aadhaar_number,
			passport_country, passport_number, emergency_contacts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		record.ID, record.Email, record.Name, record.ContactInfo, string(kind),
		nullString(aadhaar), nullString(country), nullString(number),
		string(contacts), record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.IdentityRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+identityColumns+` FROM identities ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	return scanAll(rows)
}

func (s *PostgresStore) ListByEmail(ctx context.Context, email string) ([]*models.IdentityRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE email = $1 ORDER BY created_at, id`, email)
	if err != nil {
		return nil, fmt.Errorf("list identities by email: %w", err)
	}
	return scanAll(rows)
}

func (s *PostgresStore) FindLatestByEmail(ctx context.Context, email string) (*models.IdentityRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE email = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, email)
	record, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find latest identity: %w", err)
	}
	return record, nil
}

// DeleteOldestByEmail removes exactly one record: the earliest created for email.
// Concurrent deletes skip a row another transaction already holds.
func (s *PostgresStore) DeleteOldestByEmail(ctx context.Context, email string) (*models.IdentityRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM identities
		WHERE id = (
			SELECT id FROM identities
			WHERE email = $1
			ORDER BY created_at, id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+identityColumns, email)
	record, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("delete identity: %w", err)
	}
	return record, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row scanner) (*models.IdentityRecord, error) {
	var (
		id                             uuid.UUID
		email, name, contactInfo, kind string
		aadhaar, country, number       sql.NullString
		contactsRaw                    []byte
		createdAt                      time.Time
	)
	if err := row.Scan(&id, &email, &name, &contactInfo, &kind, &aadhaar, &country, &number, &contactsRaw, &createdAt); err != nil {
		return nil, err
	}
	kyc, err := models.NewKYC(kind, aadhaar.String, country.String, number.String)
	if err != nil {
		return nil, err
	}
	var contacts []models.EmergencyContact
	if len(contactsRaw) > 0 {
		if err := json.Unmarshal(contactsRaw, &contacts); err != nil {
			return nil, fmt.Errorf("unmarshal emergency contacts: %w", err)
		}
	}
	return &models.IdentityRecord{
		ID:                id,
		Email:             email,
		Name:              name,
		ContactInfo:       contactInfo,
		KYC:               kyc,
		EmergencyContacts: nonNilContacts(contacts),
		CreatedAt:         createdAt,
	}, nil
}

func scanAll(rows *sql.Rows) ([]*models.IdentityRecord, error) {
	defer rows.Close()
	var out []*models.IdentityRecord
	for rows.Next() {
		record, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return out, nil
}

func nonNilContacts(c []models.EmergencyContact) []models.EmergencyContact {
	if c == nil {
		return []models.EmergencyContact{}
	}
	return c
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
