// Package avatar resolves and caches public URLs for contact profile
// photos. Resolution is best-effort enrichment: every failure degrades to
// an empty URL, never an error.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pagerbridge/internal/domain"
	"pagerbridge/internal/media"
)

// AvatarServePath is the public path prefix avatars are served under.
const AvatarServePath = "/avatars/"

// entry is one cache slot. URL is "" for contacts known to have no photo,
// which prevents re-checking them on every message.
type entry struct {
	url       string
	expiresAt time.Time
}

// Resolver fetches profile photos and caches the resulting public URLs,
// keyed by peer ID. The cache is bounded and entries expire after a TTL so
// avatar changes are eventually picked up.
type Resolver struct {
	client        domain.Client
	dir           string
	publicBaseURL string
	ttl           time.Duration
	maxEntries    int
	logger        *slog.Logger

	mu    sync.Mutex
	cache map[int64]entry
}

type ResolverConfig struct {
	Client        domain.Client
	Dir           string
	PublicBaseURL string
	TTL           time.Duration
	MaxEntries    int
	Logger        *slog.Logger
}

func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10000
	}
	return &Resolver{
		client:        cfg.Client,
		dir:           cfg.Dir,
		publicBaseURL: cfg.PublicBaseURL,
		ttl:           cfg.TTL,
		maxEntries:    cfg.MaxEntries,
		logger:        cfg.Logger,
		cache:         make(map[int64]entry),
	}, nil
}

// Resolve returns the public avatar URL for the peer, or "" when the peer
// has no photo or the photo cannot be fetched.
func (r *Resolver) Resolve(ctx context.Context, peerID int64) string {
	r.mu.Lock()
	if e, ok := r.cache[peerID]; ok && time.Now().Before(e.expiresAt) {
		r.mu.Unlock()
		return e.url
	}
	r.mu.Unlock()

	url := r.fetch(ctx, peerID)

	r.mu.Lock()
	if len(r.cache) >= r.maxEntries {
		r.evictLocked()
	}
	r.cache[peerID] = entry{url: url, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()

	return url
}

// fetch downloads the photo to a filename derived from the peer ID, so a
// re-resolve overwrites the previous file instead of accumulating copies.
func (r *Resolver) fetch(ctx context.Context, peerID int64) string {
	name := fmt.Sprintf("avatar_%d.jpg", peerID)
	dest := filepath.Join(r.dir, name)

	err := r.client.DownloadProfilePhoto(ctx, peerID, dest)
	switch {
	case err == nil:
		return media.JoinPublicURL(r.publicBaseURL, AvatarServePath+name)
	case isNoPhoto(err):
		return ""
	default:
		r.logger.Warn("avatar download failed", "peer_id", peerID, "err", err)
		return ""
	}
}

// evictLocked drops expired entries, then one arbitrary entry if the cache
// is still full. Callers hold r.mu.
func (r *Resolver) evictLocked() {
	now := time.Now()
	for id, e := range r.cache {
		if now.After(e.expiresAt) {
			delete(r.cache, id)
		}
	}
	if len(r.cache) < r.maxEntries {
		return
	}
	for id := range r.cache {
		delete(r.cache, id)
		return
	}
}

// Len reports the current cache size.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func isNoPhoto(err error) bool {
	return errors.Is(err, domain.ErrNoProfilePhoto)
}
