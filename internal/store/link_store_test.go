package store_test

import (
	"testing"
	"time"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/models"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/store"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/testutil"
)

const linkTTL = 48 * time.Hour

var movieKey = models.ContentKey{TMDBID: 603, MediaType: models.MediaTypeMovie}

func TestLinkStore_GetAndUpsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	now := time.Now()

	t.Run("Miss on empty cache", func(t *testing.T) {
		link, err := s.GetCachedLink(movieKey, 1080, "fp-a", now)
		if err != nil {
			t.Fatalf("GetCachedLink failed: %v", err)
		}
		if link != nil {
			t.Fatalf("Expected a miss, got %+v", link)
		}
	})

	t.Run("Hit after upsert", func(t *testing.T) {
		err := s.UpsertCachedLink(movieKey, 1080, "fp-a", "https://dl.test/matrix.mkv", "matrix.mkv", now, now.Add(linkTTL))
		if err != nil {
			t.Fatalf("UpsertCachedLink failed: %v", err)
		}

		link, err := s.GetCachedLink(movieKey, 1080, "fp-a", now.Add(time.Minute))
		if err != nil {
			t.Fatalf("GetCachedLink failed: %v", err)
		}
		if link == nil {
			t.Fatal("Expected a hit, got a miss")
		}
		if link.URL != "https://dl.test/matrix.mkv" || link.FileName != "matrix.mkv" {
			t.Errorf("Unexpected link contents: %+v", link)
		}
	})

	t.Run("Different resolution is a different entry", func(t *testing.T) {
		link, err := s.GetCachedLink(movieKey, 720, "fp-a", now.Add(time.Minute))
		if err != nil {
			t.Fatalf("GetCachedLink failed: %v", err)
		}
		if link != nil {
			t.Fatalf("Expected a miss for the 720p variant, got %+v", link)
		}
	})

	t.Run("Hit just inside the expiry window", func(t *testing.T) {
		created := now.Add(-48*time.Hour + time.Minute)
		key := models.ContentKey{TMDBID: 680, MediaType: models.MediaTypeMovie}
		if err := s.UpsertCachedLink(key, 1080, "fp-a", "https://dl.test/pulp.mkv", "pulp.mkv", created, created.Add(linkTTL)); err != nil {
			t.Fatalf("UpsertCachedLink failed: %v", err)
		}

		link, err := s.GetCachedLink(key, 1080, "fp-a", now)
		if err != nil {
			t.Fatalf("GetCachedLink failed: %v", err)
		}
		if link == nil {
			t.Fatal("Expected a hit one minute before expiry")
		}
	})

	t.Run("Expired entry is purged on lookup", func(t *testing.T) {
		created := now.Add(-48*time.Hour - time.Minute)
		key := models.ContentKey{TMDBID: 155, MediaType: models.MediaTypeMovie}
		if err := s.UpsertCachedLink(key, 1080, "fp-a", "https://dl.test/dark.mkv", "dark.mkv", created, created.Add(linkTTL)); err != nil {
			t.Fatalf("UpsertCachedLink failed: %v", err)
		}

		link, err := s.GetCachedLink(key, 1080, "fp-a", now)
		if err != nil {
			t.Fatalf("GetCachedLink failed: %v", err)
		}
		if link != nil {
			t.Fatalf("Expected expired entry to be a miss, got %+v", link)
		}

		var count int
		db.QueryRow("SELECT COUNT(*) FROM link_cache WHERE tmdb_id = ?", key.TMDBID).Scan(&count)
		if count != 0 {
			t.Errorf("Expected expired row to be deleted, found %d", count)
		}
	})

	t.Run("Exactly at expiry counts as expired", func(t *testing.T) {
		created := now.Add(-48 * time.Hour)
		key := models.ContentKey{TMDBID: 27205, MediaType: models.MediaTypeMovie}
		if err := s.UpsertCachedLink(key, 1080, "fp-a", "https://dl.test/inception.mkv", "inception.mkv", created, created.Add(linkTTL)); err != nil {
			t.Fatalf("UpsertCachedLink failed: %v", err)
		}

		link, err := s.GetCachedLink(key, 1080, "fp-a", now)
		if err != nil {
			t.Fatalf("GetCachedLink failed: %v", err)
		}
		if link != nil {
			t.Fatal("Expected an entry at its exact expiry to be a miss")
		}
	})
}

func TestLinkStore_UpsertReplacesAndRestartsExpiry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	t0 := time.Now()
	key := models.ContentKey{TMDBID: 1396, MediaType: models.MediaTypeTV, Season: 3, Episode: 12}

	if err := s.UpsertCachedLink(key, 1080, "fp-a", "https://dl.test/url-a.mkv", "url-a.mkv", t0, t0.Add(linkTTL)); err != nil {
		t.Fatalf("UpsertCachedLink failed: %v", err)
	}

	// A re-resolve one hour later replaces the URL and restarts the window.
	t1 := t0.Add(time.Hour)
	if err := s.UpsertCachedLink(key, 1080, "fp-a", "https://dl.test/url-b.mkv", "url-b.mkv", t1, t1.Add(linkTTL)); err != nil {
		t.Fatalf("UpsertCachedLink failed: %v", err)
	}

	link, err := s.GetCachedLink(key, 1080, "fp-a", t1.Add(time.Minute))
	if err != nil {
		t.Fatalf("GetCachedLink failed: %v", err)
	}
	if link == nil || link.URL != "https://dl.test/url-b.mkv" {
		t.Fatalf("Expected the replacement URL to win, got %+v", link)
	}

	// 48h30m after the first write the entry still lives off the second write's window.
	link, err = s.GetCachedLink(key, 1080, "fp-a", t0.Add(linkTTL).Add(30*time.Minute))
	if err != nil {
		t.Fatalf("GetCachedLink failed: %v", err)
	}
	if link == nil {
		t.Fatal("Expected the restarted window to keep the entry alive")
	}

	// Past the second write's window it is gone.
	link, err = s.GetCachedLink(key, 1080, "fp-a", t1.Add(linkTTL).Add(time.Minute))
	if err != nil {
		t.Fatalf("GetCachedLink failed: %v", err)
	}
	if link != nil {
		t.Fatalf("Expected a miss past the restarted window, got %+v", link)
	}
}

func TestLinkStore_PerCredentialIsolation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	now := time.Now()
	if err := s.UpsertCachedLink(movieKey, 1080, "fp-a", "https://dl.test/a.mkv", "a.mkv", now, now.Add(linkTTL)); err != nil {
		t.Fatalf("UpsertCachedLink failed: %v", err)
	}
	if err := s.UpsertCachedLink(movieKey, 1080, "fp-b", "https://dl.test/b.mkv", "b.mkv", now, now.Add(linkTTL)); err != nil {
		t.Fatalf("UpsertCachedLink failed: %v", err)
	}

	linkA, _ := s.GetCachedLink(movieKey, 1080, "fp-a", now)
	linkB, _ := s.GetCachedLink(movieKey, 1080, "fp-b", now)
	if linkA == nil || linkB == nil {
		t.Fatal("Expected both credentials to have their own entry")
	}
	if linkA.URL == linkB.URL {
		t.Error("Expected each credential to cache its own URL")
	}

	t.Run("DeleteLinksForCredential only hits one credential", func(t *testing.T) {
		purged, err := s.DeleteLinksForCredential("fp-a")
		if err != nil {
			t.Fatalf("DeleteLinksForCredential failed: %v", err)
		}
		if purged != 1 {
			t.Errorf("Expected 1 link purged, got %d", purged)
		}

		linkA, _ := s.GetCachedLink(movieKey, 1080, "fp-a", now)
		if linkA != nil {
			t.Error("Expected fp-a's entry to be gone")
		}
		linkB, _ := s.GetCachedLink(movieKey, 1080, "fp-b", now)
		if linkB == nil {
			t.Error("Expected fp-b's entry to survive")
		}
	})
}

func TestLinkStore_EvictAndStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	now := time.Now()
	old := now.Add(-49 * time.Hour)

	keys := []models.ContentKey{
		{TMDBID: 1, MediaType: models.MediaTypeMovie},
		{TMDBID: 2, MediaType: models.MediaTypeMovie},
		{TMDBID: 3, MediaType: models.MediaTypeMovie},
	}
	// Two expired entries and one fresh.
	s.UpsertCachedLink(keys[0], 1080, "fp-a", "https://dl.test/1.mkv", "1.mkv", old, old.Add(linkTTL))
	s.UpsertCachedLink(keys[1], 1080, "fp-a", "https://dl.test/2.mkv", "2.mkv", old, old.Add(linkTTL))
	s.UpsertCachedLink(keys[2], 1080, "fp-a", "https://dl.test/3.mkv", "3.mkv", now, now.Add(linkTTL))

	total, expired, err := s.LinkCacheStats(now)
	if err != nil {
		t.Fatalf("LinkCacheStats failed: %v", err)
	}
	if total != 3 || expired != 2 {
		t.Errorf("Expected total=3 expired=2, got total=%d expired=%d", total, expired)
	}

	evicted, err := s.EvictExpiredLinks(now)
	if err != nil {
		t.Fatalf("EvictExpiredLinks failed: %v", err)
	}
	if evicted != 2 {
		t.Errorf("Expected 2 links evicted, got %d", evicted)
	}

	total, expired, err = s.LinkCacheStats(now)
	if err != nil {
		t.Fatalf("LinkCacheStats failed: %v", err)
	}
	if total != 1 || expired != 0 {
		t.Errorf("Expected total=1 expired=0 after eviction, got total=%d expired=%d", total, expired)
	}
}
