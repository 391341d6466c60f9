package models

import (
	"fmt"
	"time"
)

// Media types for ContentKey.
const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// ContentKey identifies one playable item: a movie, or a single episode.
// Season and episode are zero for movies.
type ContentKey struct {
	TMDBID    int64  `json:"tmdb_id"`
	MediaType string `json:"media_type"`
	Season    int    `json:"season"`
	Episode   int    `json:"episode"`
}

// String renders the key the way it appears in logs, e.g. "tv:1396:3:12"
// or "movie:603".
func (k ContentKey) String() string {
	if k.MediaType == MediaTypeTV {
		return fmt.Sprintf("%s:%d:%d:%d", k.MediaType, k.TMDBID, k.Season, k.Episode)
	}
	return fmt.Sprintf("%s:%d", k.MediaType, k.TMDBID)
}

// Valid reports whether the key describes a real content item.
func (k ContentKey) Valid() bool {
	if k.TMDBID <= 0 {
		return false
	}
	switch k.MediaType {
	case MediaTypeMovie:
		return true
	case MediaTypeTV:
		return k.Season > 0 && k.Episode > 0
	}
	return false
}

// CachedLink is one resolved stream URL, scoped to the credential that
// resolved it. Expiry is absolute: a fixed TTL from creation, regardless of
// how often the entry is read.
type CachedLink struct {
	ID           int64      `json:"id"`
	Key          ContentKey `json:"key"`
	Resolution   int        `json:"resolution"`
	CredentialFP string     `json:"credential_fp"`
	URL          string     `json:"url"`
	FileName     string     `json:"file_name"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	LastAccessed time.Time  `json:"last_accessed"`
}
