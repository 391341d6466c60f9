// This file defines the core data structures (models) for our application.

package models

import "time"

// User represents an account on the platform. A secondary account carries no
// debrid token of its own and inherits its parent's (one level, by lookup).
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	ParentID     *int64    `json:"parent_id,omitempty"`
	RDToken      string    `json:"-"` // raw debrid token, never serialized
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
}

// AccountStatus is the admin-panel view of a user: the account itself plus
// the most recent validity info for the credential that applies to it.
type AccountStatus struct {
	User
	HasOwnToken         bool       `json:"has_own_token"`
	CredentialExpiresAt *time.Time `json:"credential_expires_at"`
	DaysLeft            *int       `json:"days_left,omitempty"`
}
