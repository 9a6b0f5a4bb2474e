package database

import (
	"errors"
	"time"

	"github.com/leca/dt-serving-urls/internal/model"
)

// ErrNotFound is returned when a lookup or delete matches no row.
var ErrNotFound = errors.New("not found")

// Database defines the persistence interface for all domain objects.
type Database interface {
	// Media items
	CreateMediaItem(item *model.MediaItem) error
	GetMediaItem(id string) (*model.MediaItem, error)
	ListMediaItems(page, perPage int) ([]*model.MediaItem, int, error)
	DeleteMediaItem(id string) error

	// Cache entries. A zero expiresAt never expires.
	GetCacheEntry(key string, now time.Time) (string, bool, error)
	SetCacheEntry(key, value string, expiresAt time.Time) error
	DeleteCacheEntry(key string) error

	// Serving URLs minted by the local provider
	CreateServingURL(s *model.ServingURL) error
	GetServingURL(filePath string) (*model.ServingURL, error)
	GetServingURLByToken(token string) (*model.ServingURL, error)
	DeleteServingURL(filePath string) error

	Close() error
}
