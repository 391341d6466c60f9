package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/models"
)

// ListUsers retrieves all users from the database, ordered by username.
func (s *Store) ListUsers() ([]*models.User, error) {
	rows, err := s.db.Query("SELECT id, username, role, parent_id, rd_token, enabled, created_at FROM users ORDER BY username ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		var parentID sql.NullInt64
		var rdToken sql.NullString
		if err := rows.Scan(&user.ID, &user.Username, &user.Role, &parentID, &rdToken, &user.Enabled, &user.CreatedAt); err != nil {
			return nil, err
		}
		if parentID.Valid {
			user.ParentID = &parentID.Int64
		}
		user.RDToken = rdToken.String
		users = append(users, &user)
	}
	return users, nil
}

// ListTokenOwners retrieves the users that carry their own debrid token.
// These are the accounts whose credentials the validator has to check.
func (s *Store) ListTokenOwners() ([]*models.User, error) {
	rows, err := s.db.Query("SELECT id, username, role, parent_id, rd_token, enabled, created_at FROM users WHERE rd_token IS NOT NULL AND rd_token != '' ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		var parentID sql.NullInt64
		var rdToken sql.NullString
		if err := rows.Scan(&user.ID, &user.Username, &user.Role, &parentID, &rdToken, &user.Enabled, &user.CreatedAt); err != nil {
			return nil, err
		}
		if parentID.Valid {
			user.ParentID = &parentID.Int64
		}
		user.RDToken = rdToken.String
		users = append(users, &user)
	}
	return users, nil
}

// CreateUser adds a new user to the database.
func (s *Store) CreateUser(username, passwordHash, role string, parentID *int64, rdToken string) (*models.User, error) {
	query := "INSERT INTO users (username, password_hash, role, parent_id, rd_token, enabled, created_at) VALUES (?, ?, ?, ?, ?, 1, ?)"
	res, err := s.db.Exec(query, username, passwordHash, role, parentID, nullableString(rdToken), time.Now())
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return &models.User{
		ID:       id,
		Username: username,
		Role:     role,
		ParentID: parentID,
		RDToken:  rdToken,
		Enabled:  true,
	}, nil
}

// UpdateUser updates a user's username, role, parent and debrid token.
func (s *Store) UpdateUser(id int64, username, role string, parentID *int64, rdToken string) error {
	query := "UPDATE users SET username = ?, role = ?, parent_id = ?, rd_token = ? WHERE id = ?"
	_, err := s.db.Exec(query, username, role, parentID, nullableString(rdToken), id)
	return err
}

// UpdateUserPassword updates only the user's password hash.
func (s *Store) UpdateUserPassword(id int64, passwordHash string) error {
	query := "UPDATE users SET password_hash = ? WHERE id = ?"
	_, err := s.db.Exec(query, passwordHash, id)
	return err
}

// SetUserEnabled flips a single account's enabled flag.
func (s *Store) SetUserEnabled(id int64, enabled bool) error {
	_, err := s.db.Exec("UPDATE users SET enabled = ? WHERE id = ?", enabled, id)
	return err
}

// DisableAccountsForOwner disables a token owner together with every
// account that inherits the owner's token. Children with a token of
// their own are left alone. Returns the number of accounts disabled.
func (s *Store) DisableAccountsForOwner(ownerID int64) (int64, error) {
	query := "UPDATE users SET enabled = 0 WHERE id = ? OR (parent_id = ? AND (rd_token IS NULL OR rd_token = ''))"
	res, err := s.db.Exec(query, ownerID, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteUser removes a user from the database. Cascading deletes will handle their sessions and leases.
func (s *Store) DeleteUser(id int64) error {
	_, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	return err
}

// GetUserByUsername retrieves a user by their unique username.
func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	var parentID sql.NullInt64
	var rdToken sql.NullString
	query := "SELECT id, username, password_hash, role, parent_id, rd_token, enabled, created_at FROM users WHERE username = ?"
	err := s.db.QueryRow(query, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &parentID, &rdToken, &user.Enabled, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		user.ParentID = &parentID.Int64
	}
	user.RDToken = rdToken.String
	return &user, nil
}

// GetUserByID retrieves a user by their primary key.
func (s *Store) GetUserByID(id int64) (*models.User, error) {
	var user models.User
	var parentID sql.NullInt64
	var rdToken sql.NullString
	query := "SELECT id, username, password_hash, role, parent_id, rd_token, enabled, created_at FROM users WHERE id = ?"
	err := s.db.QueryRow(query, id).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &parentID, &rdToken, &user.Enabled, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		user.ParentID = &parentID.Int64
	}
	user.RDToken = rdToken.String
	return &user, nil
}

// GetUserFromSession retrieves a user based on a session token.
func (s *Store) GetUserFromSession(token string) (*models.User, error) {
	var userID int64
	var expiry time.Time
	query := "SELECT user_id, expiry FROM sessions WHERE token = ?"
	err := s.db.QueryRow(query, token).Scan(&userID, &expiry)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("invalid session token")
		}
		return nil, err
	}

	if time.Now().After(expiry) {
		s.DeleteSession(token) // Clean up expired session
		return nil, errors.New("session expired")
	}

	return s.GetUserByID(userID)
}

// CountUsers returns the total number of users in the database.
func (s *Store) CountUsers() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// CreateSession creates a new session for a user and returns the session token.
func (s *Store) CreateSession(userID int64) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)
	expiry := time.Now().Add(7 * 24 * time.Hour) // 1 week session
	_, err := s.db.Exec("INSERT INTO sessions (token, user_id, expiry) VALUES (?, ?, ?)", token, userID, expiry)
	return token, err
}

// DeleteSession removes a session from the database (used for logout).
func (s *Store) DeleteSession(token string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// nullableString maps an empty string to NULL so that "no token" is
// stored uniformly regardless of how the caller spelled it.
func nullableString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
