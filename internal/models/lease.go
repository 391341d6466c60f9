package models

import "time"

// Lease represents "credential X is currently streaming from network
// location Y". At most one row exists per credential fingerprint; the
// leases table's primary key enforces that.
type Lease struct {
	CredentialFP    string    `json:"credential_fp"`
	NetworkLocation string    `json:"network_location"`
	UserID          int64     `json:"user_id"`
	StartedAt       time.Time `json:"started_at"`
	LastHeartbeat   time.Time `json:"last_heartbeat"`
}

// LeaseInfo is a lease joined with its holder's username, for conflict
// messages and the admin view.
type LeaseInfo struct {
	Lease
	HolderUsername string `json:"holder_username"`
}
