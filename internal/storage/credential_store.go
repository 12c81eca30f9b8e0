package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stillpoint-hq/stillpoint/internal/vault"
)

// CredentialRecord is stored credential metadata
type CredentialRecord struct {
	ID        string
	Name      string
	TokenType string
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CredentialStore keeps OAuth tokens and API keys, sealed by the
// vault before they reach the database.
type CredentialStore struct {
	db    *DB
	vault *vault.Vault
}

// NewCredentialStore creates a new credential store
func NewCredentialStore(db *DB, v *vault.Vault) *CredentialStore {
	return &CredentialStore{
		db:    db,
		vault: v,
	}
}

// Store seals and saves a named credential.
func (s *CredentialStore) Store(name, tokenType string, data []byte, expiresAt *time.Time) error {
	sealed, err := s.vault.Seal(data)
	if err != nil {
		return fmt.Errorf("seal credential: %w", err)
	}

	var existingID string
	err = s.db.conn.QueryRow(`SELECT id FROM credentials WHERE name = ?`, name).Scan(&existingID)

	if err == sql.ErrNoRows {
		_, err = s.db.conn.Exec(`
			INSERT INTO credentials (
				id, name, sealed_data, token_type, expires_at,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			uuid.New().String(), name, sealed, tokenType, expiresAt,
			time.Now().UTC(), time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("insert credential: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("check existing: %w", err)
	} else {
		_, err = s.db.conn.Exec(`
			UPDATE credentials SET
				sealed_data = ?, token_type = ?, expires_at = ?, updated_at = ?
			WHERE name = ?
		`, sealed, tokenType, expiresAt, time.Now().UTC(), name)
		if err != nil {
			return fmt.Errorf("update credential: %w", err)
		}
	}

	return nil
}

// Get retrieves and opens a credential. Returns nil when the name is
// unknown.
func (s *CredentialStore) Get(name string) ([]byte, error) {
	var sealed []byte
	err := s.db.conn.QueryRow(`
		SELECT sealed_data FROM credentials WHERE name = ?
	`, name).Scan(&sealed)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query credential: %w", err)
	}

	data, err := s.vault.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("open credential: %w", err)
	}

	return data, nil
}

// GetRecord retrieves credential metadata without unsealing the data.
func (s *CredentialStore) GetRecord(name string) (*CredentialRecord, error) {
	var record CredentialRecord
	var expiresAt sql.NullTime

	err := s.db.conn.QueryRow(`
		SELECT id, name, token_type, expires_at, created_at, updated_at
		FROM credentials WHERE name = ?
	`, name).Scan(
		&record.ID, &record.Name, &record.TokenType,
		&expiresAt, &record.CreatedAt, &record.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query credential: %w", err)
	}

	if expiresAt.Valid {
		record.ExpiresAt = &expiresAt.Time
	}

	return &record, nil
}

// Delete removes a credential
func (s *CredentialStore) Delete(name string) error {
	_, err := s.db.conn.Exec(`DELETE FROM credentials WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// Exists checks whether a credential is stored
func (s *CredentialStore) Exists(name string) (bool, error) {
	var count int
	err := s.db.conn.QueryRow(`
		SELECT COUNT(*) FROM credentials WHERE name = ?
	`, name).Scan(&count)

	if err != nil {
		return false, fmt.Errorf("check exists: %w", err)
	}

	return count > 0, nil
}

// GetExpiring returns credentials expiring within the given duration
func (s *CredentialStore) GetExpiring(within time.Duration) ([]*CredentialRecord, error) {
	threshold := time.Now().Add(within)

	rows, err := s.db.conn.Query(`
		SELECT id, name, token_type, expires_at, created_at, updated_at
		FROM credentials
		WHERE expires_at IS NOT NULL AND expires_at < ?
	`, threshold)
	if err != nil {
		return nil, fmt.Errorf("query expiring: %w", err)
	}
	defer rows.Close()

	var records []*CredentialRecord
	for rows.Next() {
		var record CredentialRecord
		var expiresAt sql.NullTime

		err := rows.Scan(
			&record.ID, &record.Name, &record.TokenType,
			&expiresAt, &record.CreatedAt, &record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}

		if expiresAt.Valid {
			record.ExpiresAt = &expiresAt.Time
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}
