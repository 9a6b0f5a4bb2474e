package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// Compile-time check that Memory implements Cache.
var _ Cache = (*Memory)(nil)

// expiryLen is the size of the expiry header stored in front of each value.
const expiryLen = 8

// Memory is a process-wide in-memory Cache. bigcache evicts every entry after
// its life window; shorter per-entry TTLs are kept as an expiry header in
// front of the value and checked on Get.
type Memory struct {
	cache *bigcache.BigCache
	now   func() time.Time
}

// NewMemory creates an in-memory cache whose entries live for at most lifeWindow.
func NewMemory(ctx context.Context, lifeWindow time.Duration) (*Memory, error) {
	cfg := bigcache.DefaultConfig(lifeWindow)
	cfg.Shards = 64
	cfg.CleanWindow = lifeWindow / 2
	cfg.Verbose = false

	c, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create bigcache: %w", err)
	}
	return &Memory{cache: c, now: time.Now}, nil
}

// Close releases the cache.
func (m *Memory) Close() error {
	return m.cache.Close()
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	v, err := m.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("memory get %s: %w", key, err)
	}
	if len(v) < expiryLen {
		return "", false, nil
	}

	// Zero means the entry only ends with the life window.
	if exp := int64(binary.BigEndian.Uint64(v[:expiryLen])); exp != 0 && m.now().UnixNano() >= exp {
		_ = m.cache.Delete(key)
		return "", false, nil
	}
	return string(v[expiryLen:]), true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	buf := make([]byte, expiryLen+len(value))
	if ttl > 0 {
		binary.BigEndian.PutUint64(buf[:expiryLen], uint64(m.now().Add(ttl).UnixNano()))
	}
	copy(buf[expiryLen:], value)

	if err := m.cache.Set(key, buf); err != nil {
		return fmt.Errorf("memory set %s: %w", key, err)
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	err := m.cache.Delete(key)
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("memory delete %s: %w", key, err)
	}
	return nil
}
