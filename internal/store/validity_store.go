package store

import (
	"database/sql"
	"time"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/models"
)

// UpsertCredentialValidity records the outcome of an upstream
// credential check. A nil expiresAt means the provider reported no
// expiration for the account.
func (s *Store) UpsertCredentialValidity(fp string, expiresAt *time.Time, checkedAt time.Time) error {
	var exp *time.Time
	if expiresAt != nil {
		u := expiresAt.UTC()
		exp = &u
	}
	query := `
		INSERT INTO credential_validity (credential_fp, expires_at, checked_at)
		VALUES (?, ?, ?)
		ON CONFLICT (credential_fp) DO UPDATE SET
			expires_at = excluded.expires_at,
			checked_at = excluded.checked_at`
	_, err := s.db.Exec(query, fp, exp, checkedAt.UTC())
	return err
}

// GetCredentialValidity retrieves the last recorded check for a
// credential, or nil if it has never been checked.
func (s *Store) GetCredentialValidity(fp string) (*models.CredentialValidity, error) {
	var v models.CredentialValidity
	var exp sql.NullTime
	query := "SELECT credential_fp, expires_at, checked_at FROM credential_validity WHERE credential_fp = ?"
	err := s.db.QueryRow(query, fp).Scan(&v.CredentialFP, &exp, &v.CheckedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if exp.Valid {
		v.ExpiresAt = &exp.Time
	}
	return &v, nil
}

// ListCredentialValidity retrieves every recorded check keyed by
// credential fingerprint.
func (s *Store) ListCredentialValidity() (map[string]*models.CredentialValidity, error) {
	rows, err := s.db.Query("SELECT credential_fp, expires_at, checked_at FROM credential_validity")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	validity := make(map[string]*models.CredentialValidity)
	for rows.Next() {
		var v models.CredentialValidity
		var exp sql.NullTime
		if err := rows.Scan(&v.CredentialFP, &exp, &v.CheckedAt); err != nil {
			return nil, err
		}
		if exp.Valid {
			v.ExpiresAt = &exp.Time
		}
		validity[v.CredentialFP] = &v
	}
	return validity, nil
}
