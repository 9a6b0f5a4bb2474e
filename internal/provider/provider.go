// Package provider defines the in-process image service API and a local
// implementation of it for development and tests.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leca/dt-serving-urls/internal/database"
	"github.com/leca/dt-serving-urls/internal/model"
	"github.com/leca/dt-serving-urls/internal/storage"
)

// ErrObjectNotFound is returned when a serving URL is requested for a missing file.
var ErrObjectNotFound = errors.New("object not found")

// Provider issues and revokes serving URLs for stored files. File paths have the
// form "gs://<bucket>/<object key>".
type Provider interface {
	ServingURL(ctx context.Context, filePath string) (string, error)
	DeleteServingURL(ctx context.Context, filePath string) error
	Exists(ctx context.Context, filePath string) (bool, error)
}

// FilePath builds the provider file path for an object in bucket.
func FilePath(bucket, object string) string {
	return "gs://" + bucket + "/" + strings.TrimLeft(object, "/")
}

// Compile-time check that Local implements Provider.
var _ Provider = (*Local)(nil)

// Local mints stable serving URLs for files in a Storage. Each file gets one
// token, persisted in the database, until its URL is deleted.
type Local struct {
	db         database.Database
	store      storage.Storage
	publicBase string
	newToken   func() string
	now        func() time.Time
}

// NewLocal creates a Local provider whose URLs are "<publicBase>/<token>".
func NewLocal(db database.Database, store storage.Storage, publicBase string) *Local {
	return &Local{
		db:         db,
		store:      store,
		publicBase: strings.TrimRight(publicBase, "/"),
		newToken:   func() string { return uuid.New().String() },
		now:        time.Now,
	}
}

func (l *Local) ServingURL(ctx context.Context, filePath string) (string, error) {
	existing, err := l.db.GetServingURL(filePath)
	if err == nil {
		return existing.URL, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return "", err
	}

	ok, err := l.Exists(ctx, filePath)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrObjectNotFound, filePath)
	}

	token := l.newToken()
	su := &model.ServingURL{
		FilePath:  filePath,
		Token:     token,
		URL:       l.publicBase + "/" + token,
		CreatedAt: l.now().UTC(),
	}
	if err := l.db.CreateServingURL(su); err != nil {
		// Another request minted one first.
		if existing, getErr := l.db.GetServingURL(filePath); getErr == nil {
			return existing.URL, nil
		}
		return "", err
	}
	return su.URL, nil
}

// DeleteServingURL revokes the URL for filePath. Revoking an unknown file is not an error.
func (l *Local) DeleteServingURL(_ context.Context, filePath string) error {
	err := l.db.DeleteServingURL(filePath)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}
	return nil
}

func (l *Local) Exists(_ context.Context, filePath string) (bool, error) {
	object, ok := strings.CutPrefix(filePath, "gs://")
	if !ok {
		return false, nil
	}
	return l.store.Exists(object)
}

// Open returns the stored file behind a token minted by ServingURL, along
// with its file path.
func (l *Local) Open(_ context.Context, token string) (io.ReadCloser, string, error) {
	su, err := l.db.GetServingURLByToken(token)
	if errors.Is(err, database.ErrNotFound) {
		return nil, "", fmt.Errorf("%w: token %s", ErrObjectNotFound, token)
	}
	if err != nil {
		return nil, "", err
	}
	rc, err := l.store.Retrieve(strings.TrimPrefix(su.FilePath, "gs://"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("%w: %s", ErrObjectNotFound, su.FilePath)
	}
	if err != nil {
		return nil, "", err
	}
	return rc, su.FilePath, nil
}
