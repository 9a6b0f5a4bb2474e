package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leca/dt-serving-urls/internal/model"
	_ "modernc.org/sqlite"
)

// Compile-time check that SQLiteDB implements Database.
var _ Database = (*SQLiteDB)(nil)

// SQLiteDB implements Database backed by SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) an SQLite database at dsn and runs migrations.
// For in-memory use pass "file::memory:?cache=shared".
func NewSQLiteDB(dsn string) (*SQLiteDB, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	} else if !strings.Contains(dsn, "_journal_mode") {
		dsn += "&_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Media items
// ---------------------------------------------------------------------------

func (s *SQLiteDB) CreateMediaItem(item *model.MediaItem) error {
	_, err := s.db.Exec(`
		INSERT INTO media_items (id, mime_type, width, height, path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.MIMEType, item.Width, item.Height, item.Path,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert media item: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetMediaItem(id string) (*model.MediaItem, error) {
	row := s.db.QueryRow(`
		SELECT id, mime_type, width, height, path
		FROM media_items WHERE id = ?`,
		id,
	)
	return scanMediaItem(row)
}

func (s *SQLiteDB) ListMediaItems(page, perPage int) ([]*model.MediaItem, int, error) {
	var total int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM media_items`).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count media items: %w", err)
	}

	offset := (page - 1) * perPage
	rows, err := s.db.Query(`
		SELECT id, mime_type, width, height, path
		FROM media_items
		ORDER BY created_at ASC, id ASC
		LIMIT ? OFFSET ?`,
		perPage, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list media items: %w", err)
	}
	defer rows.Close()

	var items []*model.MediaItem
	for rows.Next() {
		item, err := scanMediaItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *SQLiteDB) DeleteMediaItem(id string) error {
	res, err := s.db.Exec(`DELETE FROM media_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete media item: %w", err)
	}
	return checkRowsAffected(res, "media item")
}

// ---------------------------------------------------------------------------
// Cache entries
// ---------------------------------------------------------------------------

func (s *SQLiteDB) GetCacheEntry(key string, now time.Time) (string, bool, error) {
	var value string
	var expiresAt int64
	err := s.db.QueryRow(`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key).
		Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get cache entry: %w", err)
	}
	if expiresAt != 0 && now.Unix() >= expiresAt {
		return "", false, nil
	}
	return value, true, nil
}

func (s *SQLiteDB) SetCacheEntry(key, value string, expiresAt time.Time) error {
	var exp int64
	if !expiresAt.IsZero() {
		exp = expiresAt.Unix()
	}
	_, err := s.db.Exec(`
		INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, exp,
	)
	if err != nil {
		return fmt.Errorf("set cache entry: %w", err)
	}
	return nil
}

// DeleteCacheEntry is idempotent: a missing key is not an error.
func (s *SQLiteDB) DeleteCacheEntry(key string) error {
	if _, err := s.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Serving URLs
// ---------------------------------------------------------------------------

func (s *SQLiteDB) CreateServingURL(su *model.ServingURL) error {
	_, err := s.db.Exec(`
		INSERT INTO serving_urls (file_path, token, url, created_at)
		VALUES (?, ?, ?, ?)`,
		su.FilePath, su.Token, su.URL, su.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert serving url: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetServingURL(filePath string) (*model.ServingURL, error) {
	su := &model.ServingURL{}
	var createdStr string
	err := s.db.QueryRow(`
		SELECT file_path, token, url, created_at
		FROM serving_urls WHERE file_path = ?`,
		filePath,
	).Scan(&su.FilePath, &su.Token, &su.URL, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("serving url: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get serving url: %w", err)
	}
	su.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	return su, nil
}

func (s *SQLiteDB) GetServingURLByToken(token string) (*model.ServingURL, error) {
	su := &model.ServingURL{}
	var createdStr string
	err := s.db.QueryRow(`
		SELECT file_path, token, url, created_at
		FROM serving_urls WHERE token = ?`,
		token,
	).Scan(&su.FilePath, &su.Token, &su.URL, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("serving url: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get serving url by token: %w", err)
	}
	su.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	return su, nil
}

func (s *SQLiteDB) DeleteServingURL(filePath string) error {
	res, err := s.db.Exec(`DELETE FROM serving_urls WHERE file_path = ?`, filePath)
	if err != nil {
		return fmt.Errorf("delete serving url: %w", err)
	}
	return checkRowsAffected(res, "serving url")
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanMediaItem(row scannable) (*model.MediaItem, error) {
	item := &model.MediaItem{}
	err := row.Scan(&item.ID, &item.MIMEType, &item.Width, &item.Height, &item.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("media item: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan media item: %w", err)
	}
	return item, nil
}

func checkRowsAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
