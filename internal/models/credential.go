package models

import "time"

// Credential is the resolved debrid token that applies to a user, after
// parent inheritance. The fingerprint, not the raw token, is what leases and
// cache entries are keyed by.
type Credential struct {
	Token       string // raw token; keep out of logs and responses
	Fingerprint string
	OwnerID     int64 // the root account that owns the token
}

// CredentialValidity records the most recent upstream answer for one
// credential fingerprint. Overwritten on every revalidation cycle.
type CredentialValidity struct {
	CredentialFP string     `json:"credential_fp"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CheckedAt    time.Time  `json:"checked_at"`
}
