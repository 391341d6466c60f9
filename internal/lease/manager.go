// Lease coordination for playback. A credential fingerprint can back
// at most one live stream; the leases table's primary key enforces
// that and the manager layers the liveness window on top.

package lease

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/config"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/metrics"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/store"
)

// ErrNotHolder is returned for a heartbeat from a location that no
// longer holds the lease, either because it was released or because a
// takeover happened after its heartbeats went silent.
var ErrNotHolder = errors.New("lease: not the current holder")

// ConflictError reports an acquisition denied because another location
// is streaming on the same credential right now.
type ConflictError struct {
	Location       string
	HolderUsername string
	StartedAt      time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("credential in use at %s since %s", e.Location, e.StartedAt.Format(time.RFC3339))
}

// Manager arbitrates lease acquisition, renewal and release.
type Manager struct {
	st  *store.Store
	cfg *config.Config
}

// NewManager creates a new lease manager.
func NewManager(st *store.Store, cfg *config.Config) *Manager {
	return &Manager{st: st, cfg: cfg}
}

func (m *Manager) window() time.Duration {
	return time.Duration(m.cfg.Lease.LivenessWindowSeconds) * time.Second
}

// TryAcquire claims the lease for a credential on behalf of a network
// location. A nil return means the stream may start. A ConflictError
// carries the current holder for the caller to report. The same
// location re-acquiring its own lease succeeds and keeps the original
// start time; a lease whose heartbeats stopped for longer than the
// liveness window is taken over.
func (m *Manager) TryAcquire(fp, location string, userID int64) error {
	// The holder can release between our failed insert and the
	// conflict lookup. One retry settles that race.
	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now()
		acquired, err := m.st.TryAcquireLease(fp, location, userID, now, now.Add(-m.window()))
		if err != nil {
			return err
		}
		if acquired {
			metrics.ObserveLeaseRequest("granted")
			return nil
		}

		info, err := m.st.GetLeaseInfo(fp)
		if err != nil {
			return err
		}
		if info == nil {
			continue
		}
		metrics.ObserveLeaseRequest("conflict")
		return &ConflictError{
			Location:       info.NetworkLocation,
			HolderUsername: info.HolderUsername,
			StartedAt:      info.StartedAt,
		}
	}
	return errors.New("lease: acquisition did not settle")
}

// Heartbeat renews the lease held by a location.
func (m *Manager) Heartbeat(fp, location string) error {
	renewed, err := m.st.HeartbeatLease(fp, location, time.Now())
	if err != nil {
		return err
	}
	if !renewed {
		return ErrNotHolder
	}
	return nil
}

// Release drops the lease held by a location. Releasing a lease that
// is already gone, or that another location took over, is a no-op.
func (m *Manager) Release(fp, location string) error {
	return m.st.ReleaseLease(fp, location)
}

// SweepStale removes every lease whose heartbeat is older than the
// liveness window. The sweeper calls this periodically; takeover on
// acquire does the same check inline, so a stale lease never blocks
// anyone even between sweeps.
func (m *Manager) SweepStale() (int64, error) {
	swept, err := m.st.DeleteStaleLeases(time.Now().Add(-m.window()))
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		log.Printf("Swept %d stale lease(s).", swept)
		metrics.AddSweptLeases(swept)
	}
	return swept, nil
}
