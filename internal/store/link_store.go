package store

import (
	"database/sql"
	"time"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/models"
)

// GetCachedLink looks up an unrestricted link for a piece of content at
// a given resolution under a given credential. Entries live for a fixed
// window from creation; an entry found past its expiry is deleted on
// the spot and reported as a miss. A hit only touches last_accessed,
// never the expiry.
func (s *Store) GetCachedLink(key models.ContentKey, resolution int, fp string, now time.Time) (*models.CachedLink, error) {
	var link models.CachedLink
	query := `
		SELECT id, tmdb_id, media_type, season, episode, resolution, credential_fp, url, file_name, created_at, expires_at, last_accessed
		FROM link_cache
		WHERE tmdb_id = ? AND media_type = ? AND season = ? AND episode = ? AND resolution = ? AND credential_fp = ?`
	err := s.db.QueryRow(query, key.TMDBID, key.MediaType, key.Season, key.Episode, resolution, fp).Scan(
		&link.ID, &link.Key.TMDBID, &link.Key.MediaType, &link.Key.Season, &link.Key.Episode,
		&link.Resolution, &link.CredentialFP, &link.URL, &link.FileName,
		&link.CreatedAt, &link.ExpiresAt, &link.LastAccessed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !now.Before(link.ExpiresAt) {
		if _, err := s.db.Exec("DELETE FROM link_cache WHERE id = ?", link.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if _, err := s.db.Exec("UPDATE link_cache SET last_accessed = ? WHERE id = ?", now.UTC(), link.ID); err != nil {
		return nil, err
	}
	link.LastAccessed = now
	return &link, nil
}

// UpsertCachedLink stores a freshly unrestricted link. A re-resolve of
// content that already has an entry replaces the URL and restarts the
// expiry window.
func (s *Store) UpsertCachedLink(key models.ContentKey, resolution int, fp, url, fileName string, now, expiresAt time.Time) error {
	query := `
		INSERT INTO link_cache (tmdb_id, media_type, season, episode, resolution, credential_fp, url, file_name, created_at, expires_at, last_accessed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tmdb_id, media_type, season, episode, resolution, credential_fp) DO UPDATE SET
			url = excluded.url,
			file_name = excluded.file_name,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			last_accessed = excluded.last_accessed`
	_, err := s.db.Exec(query, key.TMDBID, key.MediaType, key.Season, key.Episode, resolution, fp, url, fileName, now.UTC(), expiresAt.UTC(), now.UTC())
	return err
}

// EvictExpiredLinks removes every cache entry past its expiry and
// returns how many were evicted.
func (s *Store) EvictExpiredLinks(now time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM link_cache WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteLinksForCredential drops all cached links resolved under a
// credential. Used when the credential itself expires, since its links
// die with it upstream.
func (s *Store) DeleteLinksForCredential(fp string) (int64, error) {
	res, err := s.db.Exec("DELETE FROM link_cache WHERE credential_fp = ?", fp)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LinkCacheStats reports the total number of cached links and how many
// of them are already past expiry but not yet evicted.
func (s *Store) LinkCacheStats(now time.Time) (total, expired int64, err error) {
	query := "SELECT COUNT(*), COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0) FROM link_cache"
	err = s.db.QueryRow(query, now.UTC()).Scan(&total, &expired)
	return total, expired, err
}
