package cache

import (
	"context"
	"time"

	"github.com/leca/dt-serving-urls/internal/database"
)

// Compile-time check that Meta implements Cache.
var _ Cache = (*Meta)(nil)

// Meta stores entries durably in the media database, next to the items they describe.
type Meta struct {
	db  database.Database
	now func() time.Time
}

// NewMeta creates a Cache backed by db.
func NewMeta(db database.Database) *Meta {
	return &Meta{db: db, now: time.Now}
}

func (m *Meta) Get(_ context.Context, key string) (string, bool, error) {
	return m.db.GetCacheEntry(key, m.now())
}

func (m *Meta) Set(_ context.Context, key, value string, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.now().Add(ttl)
	}
	return m.db.SetCacheEntry(key, value, expiresAt)
}

func (m *Meta) Delete(_ context.Context, key string) error {
	return m.db.DeleteCacheEntry(key)
}
