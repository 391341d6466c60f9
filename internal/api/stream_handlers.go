package api

import (
	"encoding/json"
	"net/http"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/credential"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/models"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/playback"
)

func (s *Server) handleStreamResolve(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload struct {
		TMDBID     int64  `json:"tmdb_id"`
		MediaType  string `json:"media_type"`
		Season     int    `json:"season"`
		Episode    int    `json:"episode"`
		Resolution int    `json:"resolution"`
		Link       string `json:"link"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	key := models.ContentKey{
		TMDBID:    payload.TMDBID,
		MediaType: payload.MediaType,
		Season:    payload.Season,
		Episode:   payload.Episode,
	}
	if !key.Valid() || payload.Resolution <= 0 {
		RespondWithError(w, http.StatusBadRequest, "Invalid content key or resolution")
		return
	}

	stream, err := s.playback.ResolveStream(r.Context(), user, key, payload.Resolution, payload.Link)
	if err == credential.ErrNoCredential {
		RespondWithJSON(w, http.StatusForbidden, map[string]string{
			"error":   "no_credential",
			"message": "No debrid token is configured for this account.",
		})
		return
	}
	if err == playback.ErrNoSourceLink {
		RespondWithError(w, http.StatusBadRequest, "Content is not cached and no source link was provided")
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusBadGateway, "Failed to resolve stream from provider")
		return
	}

	RespondWithJSON(w, http.StatusOK, stream)
}
