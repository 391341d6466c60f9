package api

import (
	"encoding/json"
	"net/http"
	"time"
)

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"version": s.app.Version()})
}

// handleGetConfig exposes the client-relevant knobs. Players use the
// liveness window to pick their heartbeat cadence.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.app.Config()
	RespondWithJSON(w, http.StatusOK, map[string]int{
		"lease_liveness_window_seconds": cfg.Lease.LivenessWindowSeconds,
		"link_cache_ttl_hours":          cfg.LinkCache.TTLHours,
	})
}

func (s *Server) handleRunAdminJob(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		JobName string `json:"job_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	err := s.app.JobManager().RunJob(payload.JobName, s.app)
	if err != nil {
		RespondWithError(w, http.StatusConflict, err.Error()) // 409 Conflict if a job is already running
		return
	}

	RespondWithJSON(w, http.StatusAccepted, map[string]string{
		"message": "Job '" + payload.JobName + "' started successfully.",
	})
}

func (s *Server) handleGetAdminJobsStatus(w http.ResponseWriter, r *http.Request) {
	statuses := s.app.JobManager().GetStatus()
	RespondWithJSON(w, http.StatusOK, statuses)
}

func (s *Server) handleAdminListLeases(w http.ResponseWriter, r *http.Request) {
	leases, err := s.store.ListLeases()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve leases")
		return
	}
	RespondWithJSON(w, http.StatusOK, leases)
}

func (s *Server) handleAdminLinkCacheStats(w http.ResponseWriter, r *http.Request) {
	total, expired, err := s.store.LinkCacheStats(time.Now())
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve link cache stats")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]int64{
		"total":   total,
		"expired": expired,
	})
}

func (s *Server) handleAdminEvictLinks(w http.ResponseWriter, r *http.Request) {
	evicted, err := s.playback.EvictExpired()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to evict expired links")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]int64{"evicted": evicted})
}
