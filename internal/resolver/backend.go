package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leca/dt-serving-urls/internal/provider"
)

// Kind names a backend variant.
type Kind string

const (
	KindDirect Kind = "direct"
	KindRemote Kind = "remote"
)

// Backend looks up and revokes serving URLs for a storage path. The only
// implementations are DirectBackend and RemoteBackend.
type Backend interface {
	Kind() Kind
	// Lookup returns "" with a nil error when the backend has no URL for path.
	Lookup(ctx context.Context, path string) (string, error)
	Delete(ctx context.Context, path string) error

	sealed()
}

// DirectBackend calls an in-process image provider.
type DirectBackend struct {
	Provider provider.Provider
}

func (DirectBackend) Kind() Kind { return KindDirect }
func (DirectBackend) sealed()    {}

func (d DirectBackend) Lookup(ctx context.Context, path string) (string, error) {
	u, err := d.Provider.ServingURL(ctx, path)
	if errors.Is(err, provider.ErrObjectNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: direct: %w", ErrLookupTransport, err)
	}
	return u, nil
}

func (d DirectBackend) Delete(ctx context.Context, path string) error {
	return d.Provider.DeleteServingURL(ctx, path)
}

// Options describes which backends are available to a resolver.
type Options struct {
	// Provider enables the direct backend when non-nil.
	Provider provider.Provider
	// ServiceURL enables the remote backend when non-empty.
	ServiceURL string
	// StripPrefix is removed from storage paths before building remote URLs.
	StripPrefix string
	// Timeout bounds each remote request.
	Timeout time.Duration
}

// Select returns the configured backends in resolution order: direct first,
// then remote.
func Select(opts Options) []Backend {
	var backends []Backend
	if opts.Provider != nil {
		backends = append(backends, DirectBackend{Provider: opts.Provider})
	}
	if opts.ServiceURL != "" {
		backends = append(backends, NewRemoteBackend(opts.ServiceURL, opts.StripPrefix, opts.Timeout))
	}
	return backends
}
