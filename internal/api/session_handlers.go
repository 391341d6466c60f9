// Handlers for the playback session lease endpoints. Clients call
// check before starting a stream, heartbeat while playing and end when
// playback stops. All three are safe to retry.

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/credential"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/lease"
)

type sessionRequest struct {
	Location string `json:"location"`
}

// sessionLocation picks the network location a lease is keyed on. A
// client that declares a device name keeps its lease across IP
// changes; everyone else is identified by address.
func sessionLocation(r *http.Request, declared string) string {
	if declared != "" {
		return declared
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func decodeSessionRequest(r *http.Request) (sessionRequest, error) {
	var payload sessionRequest
	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil && err != io.EOF {
		return payload, err
	}
	return payload, nil
}

func (s *Server) handleSessionCheck(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	payload, err := decodeSessionRequest(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	cred, err := s.resolver.ResolveUser(user)
	if err == credential.ErrNoCredential {
		RespondWithJSON(w, http.StatusForbidden, map[string]string{
			"error":   "no_credential",
			"message": "No debrid token is configured for this account.",
		})
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to resolve credential")
		return
	}

	err = s.leases.TryAcquire(cred.Fingerprint, sessionLocation(r, payload.Location), user.ID)
	var conflict *lease.ConflictError
	if errors.As(err, &conflict) {
		RespondWithJSON(w, http.StatusConflict, map[string]interface{}{
			"error":   "credential_in_use",
			"message": "Someone is already streaming with this account.",
			"details": map[string]interface{}{
				"active_user": conflict.HolderUsername,
				"started_at":  conflict.StartedAt,
			},
		})
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to acquire lease")
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]bool{"allowed": true})
}

func (s *Server) handleSessionHeartbeat(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	payload, err := decodeSessionRequest(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	cred, err := s.resolver.ResolveUser(user)
	if err == credential.ErrNoCredential {
		RespondWithJSON(w, http.StatusNotFound, map[string]string{
			"error":   "lease_not_found",
			"message": "No active lease for this account.",
		})
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to resolve credential")
		return
	}

	err = s.leases.Heartbeat(cred.Fingerprint, sessionLocation(r, payload.Location))
	if err == lease.ErrNotHolder {
		RespondWithJSON(w, http.StatusNotFound, map[string]string{
			"error":   "lease_not_found",
			"message": "No active lease for this location.",
		})
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to renew lease")
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	payload, err := decodeSessionRequest(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	cred, err := s.resolver.ResolveUser(user)
	if err == credential.ErrNoCredential {
		// Nothing this account could hold a lease on.
		w.WriteHeader(http.StatusOK)
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to resolve credential")
		return
	}

	if err := s.leases.Release(cred.Fingerprint, sessionLocation(r, payload.Location)); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to release lease")
		return
	}

	w.WriteHeader(http.StatusOK)
}
