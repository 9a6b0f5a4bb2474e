// Package resolver maps media items to provider base serving URLs, remembering
// them in a cache.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leca/dt-serving-urls/internal/cache"
	"github.com/leca/dt-serving-urls/internal/metrics"
	"github.com/leca/dt-serving-urls/internal/model"
)

// FailurePolicy controls whether "no serving URL" answers are cached.
// With CacheFailures set and a zero TTL a miss is remembered until the entry
// is invalidated by hand.
type FailurePolicy struct {
	CacheFailures bool
	TTL           time.Duration
}

// entry is the cached record for one media item.
type entry struct {
	ServingURL  string `json:"serving_url,omitempty"`
	Backend     Kind   `json:"backend,omitempty"`
	Path        string `json:"path,omitempty"`
	Unavailable bool   `json:"unavailable,omitempty"`
}

// Resolver resolves base serving URLs. It is safe for concurrent use as long
// as its cache is; concurrent misses for one item may each run a lookup.
type Resolver struct {
	cache    cache.Cache
	backends []Backend
	failures FailurePolicy
}

// New creates a Resolver that tries backends in the given order.
func New(c cache.Cache, failures FailurePolicy, backends ...Backend) *Resolver {
	return &Resolver{cache: c, backends: backends, failures: failures}
}

// Key returns the cache key for item: its ID when set, otherwise its storage path.
func Key(item model.MediaItem) string {
	if item.ID != "" {
		return "servingurl:" + item.ID
	}
	return "servingurl:" + item.Path
}

// Secure rewrites a leading "http:" scheme (any case) to "https:".
func Secure(u string) string {
	if len(u) >= 5 && strings.EqualFold(u[:5], "http:") {
		return "https:" + u[5:]
	}
	return u
}

// Resolve returns the https base serving URL for item. Failures wrap
// ErrUnsupportedMediaType or ErrLookupUnavailable; see IsFallback.
func (r *Resolver) Resolve(ctx context.Context, item model.MediaItem) (string, error) {
	if !item.IsServable() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMediaType, item.MIMEType)
	}

	key := Key(item)
	if e, ok := r.cached(ctx, key); ok {
		if e.Unavailable {
			metrics.RecordCache("negative")
			return "", ErrLookupUnavailable
		}
		metrics.RecordCache("hit")
		return Secure(e.ServingURL), nil
	}
	metrics.RecordCache("miss")

	var errs []error
	for _, b := range r.backends {
		start := time.Now()
		u, err := b.Lookup(ctx, item.Path)
		elapsed := time.Since(start).Seconds()
		switch {
		case err != nil:
			metrics.RecordLookup(string(b.Kind()), "error", elapsed)
			errs = append(errs, err)
			continue
		case u == "":
			metrics.RecordLookup(string(b.Kind()), "not_found", elapsed)
			continue
		}
		metrics.RecordLookup(string(b.Kind()), "found", elapsed)

		// A failed cache write only costs a repeat lookup later.
		_ = r.store(ctx, key, entry{ServingURL: u, Backend: b.Kind(), Path: item.Path}, 0)
		return Secure(u), nil
	}

	if len(errs) > 0 {
		return "", fmt.Errorf("%w: %w", ErrLookupUnavailable, errors.Join(errs...))
	}
	if r.failures.CacheFailures {
		_ = r.store(ctx, key, entry{Unavailable: true, Path: item.Path}, r.failures.TTL)
	}
	return "", ErrLookupUnavailable
}

// Invalidate revokes the serving URL for item with the backend that issued it
// (every backend when unknown or no longer configured) and drops the cache entry. All failures are
// returned joined; the cache entry is removed regardless.
func (r *Resolver) Invalidate(ctx context.Context, item model.MediaItem) error {
	if !item.IsServable() {
		return nil
	}

	key := Key(item)
	var issuer Kind
	if e, ok := r.cached(ctx, key); ok && !e.Unavailable && r.configured(e.Backend) {
		issuer = e.Backend
	}

	var errs []error
	for _, b := range r.backends {
		if issuer != "" && b.Kind() != issuer {
			continue
		}
		if err := b.Delete(ctx, item.Path); err != nil {
			metrics.RecordInvalidation(string(b.Kind()), "error")
			errs = append(errs, fmt.Errorf("%s delete: %w", b.Kind(), err))
			continue
		}
		metrics.RecordInvalidation(string(b.Kind()), "ok")
	}

	if err := r.cache.Delete(ctx, key); err != nil {
		errs = append(errs, fmt.Errorf("cache delete: %w", err))
	}
	return errors.Join(errs...)
}

func (r *Resolver) configured(k Kind) bool {
	for _, b := range r.backends {
		if b.Kind() == k {
			return true
		}
	}
	return false
}

// cached reads and decodes the entry for key. Read errors count as a miss.
func (r *Resolver) cached(ctx context.Context, key string) (entry, bool) {
	raw, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		metrics.RecordCache("error")
		return entry{}, false
	}
	if !ok || raw == "" {
		return entry{}, false
	}
	if !strings.HasPrefix(raw, "{") {
		// A bare URL written by an older writer.
		return entry{ServingURL: raw}, true
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return entry{}, false
	}
	if e.ServingURL == "" && !e.Unavailable {
		return entry{}, false
	}
	return e, true
}

func (r *Resolver) store(ctx context.Context, key string, e entry, ttl time.Duration) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.cache.Set(ctx, key, string(raw), ttl)
}
