package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RemoteBackend asks the lookup service over HTTP:
//
//	GET    <service>/<relative path>  -> {"serving_url": "..."}
//	DELETE <service>/<relative path>  -> {"success": true}
type RemoteBackend struct {
	serviceURL  string
	stripPrefix string
	client      *http.Client
}

// NewRemoteBackend creates a remote backend. stripPrefix (e.g. "gs://") is removed
// from storage paths to form the relative request path.
func NewRemoteBackend(serviceURL, stripPrefix string, timeout time.Duration) *RemoteBackend {
	return &RemoteBackend{
		serviceURL:  serviceURL,
		stripPrefix: stripPrefix,
		client:      &http.Client{Timeout: timeout},
	}
}

func (*RemoteBackend) Kind() Kind { return KindRemote }
func (*RemoteBackend) sealed()    {}

// RelativePath strips the configured prefix and leading slashes from a storage path.
func (r *RemoteBackend) RelativePath(path string) string {
	rel := path
	if r.stripPrefix != "" {
		rel = strings.TrimPrefix(rel, r.stripPrefix)
	}
	return strings.TrimLeft(rel, "/")
}

func (r *RemoteBackend) endpoint(path string) (string, error) {
	return url.JoinPath(r.serviceURL, r.RelativePath(path))
}

type lookupResponse struct {
	// serving_url is a string, or false/null when the service has none.
	ServingURL interface{} `json:"serving_url"`
}

type deleteResponse struct {
	Success bool `json:"success"`
}

func (r *RemoteBackend) Lookup(ctx context.Context, path string) (string, error) {
	var body lookupResponse
	status, err := r.do(ctx, http.MethodGet, path, &body)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", nil
	}
	u, _ := body.ServingURL.(string)
	return u, nil
}

func (r *RemoteBackend) Delete(ctx context.Context, path string) error {
	var body deleteResponse
	status, err := r.do(ctx, http.MethodDelete, path, &body)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return nil
	}
	if !body.Success {
		return fmt.Errorf("%w: remote delete of %s reported failure", ErrLookupTransport, path)
	}
	return nil
}

// do sends one request and decodes a JSON body into out. A 404 is returned as
// a status without an error; other non-2xx answers are transport errors.
func (r *RemoteBackend) do(ctx context.Context, method, path string, out interface{}) (int, error) {
	endpoint, err := r.endpoint(path)
	if err != nil {
		return 0, fmt.Errorf("%w: build url: %w", ErrLookupTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrLookupTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %w", ErrLookupTransport, method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("%w: %s %s: status %d", ErrLookupTransport, method, endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return resp.StatusCode, fmt.Errorf("%w: decode %s response: %w", ErrLookupTransport, method, err)
	}
	return resp.StatusCode, nil
}
