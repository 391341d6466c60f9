// Playback link resolution. Unrestricted links are cached per content,
// resolution and credential so repeat playback within the expiry
// window never touches the provider.

package playback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/config"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/credential"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/metrics"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/models"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/rd"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/store"
)

// ErrNoSourceLink is returned when content is not cached and the
// request carried no hoster link to unrestrict.
var ErrNoSourceLink = errors.New("playback: no source link for uncached content")

// Stream is a playable link handed back to the client.
type Stream struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	Cached   bool   `json:"cached"`
}

// Service resolves content into playable links under a user's
// credential.
type Service struct {
	st       *store.Store
	rdc      *rd.Client
	resolver *credential.Resolver
	cfg      *config.Config
}

// NewService creates a new playback service.
func NewService(st *store.Store, rdc *rd.Client, resolver *credential.Resolver, cfg *config.Config) *Service {
	return &Service{st: st, rdc: rdc, resolver: resolver, cfg: cfg}
}

// ResolveStream returns a playable link for the given content under
// the user's credential. A cached entry inside its expiry window is
// returned as is; otherwise sourceLink is unrestricted through the
// provider and the result cached with a fresh expiry.
func (s *Service) ResolveStream(ctx context.Context, user *models.User, key models.ContentKey, resolution int, sourceLink string) (*Stream, error) {
	cred, err := s.resolver.ResolveUser(user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	cached, err := s.st.GetCachedLink(key, resolution, cred.Fingerprint, now)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		metrics.ObserveLinkCache("hit")
		return &Stream{URL: cached.URL, FileName: cached.FileName, Cached: true}, nil
	}
	metrics.ObserveLinkCache("miss")

	if sourceLink == "" {
		return nil, ErrNoSourceLink
	}

	un, err := s.rdc.UnrestrictLink(ctx, cred.Token, sourceLink)
	if err != nil {
		return nil, fmt.Errorf("unrestrict %s: %w", key.String(), err)
	}

	expiresAt := now.Add(time.Duration(s.cfg.LinkCache.TTLHours) * time.Hour)
	if err := s.st.UpsertCachedLink(key, resolution, cred.Fingerprint, un.URL, un.Filename, now, expiresAt); err != nil {
		return nil, err
	}

	return &Stream{URL: un.URL, FileName: un.Filename, Cached: false}, nil
}

// EvictExpired removes cache entries past their expiry. The scheduled
// eviction job calls this; lookups also purge expired entries lazily,
// so eviction only reclaims rows nobody asked for again.
func (s *Service) EvictExpired() (int64, error) {
	evicted, err := s.st.EvictExpiredLinks(time.Now())
	if err != nil {
		return 0, err
	}
	if evicted > 0 {
		log.Printf("Evicted %d expired cached link(s).", evicted)
		metrics.AddEvictedLinks(evicted)
	}
	return evicted, nil
}
