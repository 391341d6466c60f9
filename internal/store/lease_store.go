package store

import (
	"database/sql"
	"time"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/models"
)

// Lease timestamps are always written in UTC so that the comparisons
// inside the upsert below stay chronological.

// TryAcquireLease attempts to claim the playback lease for a credential
// fingerprint in a single atomic statement. The primary key on
// credential_fp is what enforces the one-stream rule; the conditional
// update lets the same network location re-claim its own lease and lets
// anyone take over a lease whose heartbeat went silent before
// staleBefore. Returns false when a live lease is held elsewhere.
func (s *Store) TryAcquireLease(fp, location string, userID int64, now, staleBefore time.Time) (bool, error) {
	query := `
		INSERT INTO leases (credential_fp, network_location, user_id, started_at, last_heartbeat)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (credential_fp) DO UPDATE SET
			network_location = excluded.network_location,
			user_id = excluded.user_id,
			started_at = CASE
				WHEN leases.network_location = excluded.network_location THEN leases.started_at
				ELSE excluded.started_at
			END,
			last_heartbeat = excluded.last_heartbeat
		WHERE leases.network_location = excluded.network_location
			OR leases.last_heartbeat < ?`
	res, err := s.db.Exec(query, fp, location, userID, now.UTC(), now.UTC(), staleBefore.UTC())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetLease retrieves the lease for a credential fingerprint, or nil if
// no lease is held.
func (s *Store) GetLease(fp string) (*models.Lease, error) {
	var lease models.Lease
	query := "SELECT credential_fp, network_location, user_id, started_at, last_heartbeat FROM leases WHERE credential_fp = ?"
	err := s.db.QueryRow(query, fp).Scan(&lease.CredentialFP, &lease.NetworkLocation, &lease.UserID, &lease.StartedAt, &lease.LastHeartbeat)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

// GetLeaseInfo retrieves the lease for a credential fingerprint along
// with the holder's username, or nil if no lease is held.
func (s *Store) GetLeaseInfo(fp string) (*models.LeaseInfo, error) {
	var info models.LeaseInfo
	query := `
		SELECT l.credential_fp, l.network_location, l.user_id, l.started_at, l.last_heartbeat, u.username
		FROM leases l
		JOIN users u ON u.id = l.user_id
		WHERE l.credential_fp = ?`
	err := s.db.QueryRow(query, fp).Scan(&info.CredentialFP, &info.NetworkLocation, &info.UserID, &info.StartedAt, &info.LastHeartbeat, &info.HolderUsername)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// HeartbeatLease renews the lease held by the given network location.
// Returns false when that location no longer holds the lease, either
// because it was released or because another location took it over.
func (s *Store) HeartbeatLease(fp, location string, now time.Time) (bool, error) {
	res, err := s.db.Exec("UPDATE leases SET last_heartbeat = ? WHERE credential_fp = ? AND network_location = ?", now.UTC(), fp, location)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ReleaseLease drops the lease held by the given network location. A
// release for a lease that is gone or held elsewhere is a no-op.
func (s *Store) ReleaseLease(fp, location string) error {
	_, err := s.db.Exec("DELETE FROM leases WHERE credential_fp = ? AND network_location = ?", fp, location)
	return err
}

// DeleteStaleLeases removes every lease whose last heartbeat is older
// than staleBefore and returns how many were swept.
func (s *Store) DeleteStaleLeases(staleBefore time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM leases WHERE last_heartbeat < ?", staleBefore.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListLeases retrieves all current leases with their holders, newest
// first, for the admin overview.
func (s *Store) ListLeases() ([]*models.LeaseInfo, error) {
	query := `
		SELECT l.credential_fp, l.network_location, l.user_id, l.started_at, l.last_heartbeat, u.username
		FROM leases l
		JOIN users u ON u.id = l.user_id
		ORDER BY l.started_at DESC`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leases []*models.LeaseInfo
	for rows.Next() {
		var info models.LeaseInfo
		if err := rows.Scan(&info.CredentialFP, &info.NetworkLocation, &info.UserID, &info.StartedAt, &info.LastHeartbeat, &info.HolderUsername); err != nil {
			return nil, err
		}
		leases = append(leases, &info)
	}
	return leases, nil
}
