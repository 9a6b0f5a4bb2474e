package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leca/dt-serving-urls/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lookupServer serves a fixed JSON body for GET and DELETE and records request paths.
func lookupServer(t *testing.T, status int, getBody, deleteBody string) (*httptest.Server, *[]string) {
	t.Helper()
	var paths []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.EscapedPath())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if r.Method == http.MethodDelete {
			_, _ = w.Write([]byte(deleteBody))
			return
		}
		_, _ = w.Write([]byte(getBody))
	}))
	t.Cleanup(ts.Close)
	return ts, &paths
}

func TestRemoteLookup(t *testing.T) {
	ts, paths := lookupServer(t, http.StatusOK, `{"serving_url":"http://lh3.example.com/abc"}`, "")
	b := NewRemoteBackend(ts.URL+"/", "gs://", time.Second)

	u, err := b.Lookup(context.Background(), "gs://media/2024/my photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "http://lh3.example.com/abc", u)
	assert.Equal(t, []string{"GET /media/2024/my%20photo.jpg"}, *paths)
}

func TestRemoteLookupNoURL(t *testing.T) {
	for _, body := range []string{`{"serving_url":false}`, `{"serving_url":null}`, `{}`, ``} {
		ts, _ := lookupServer(t, http.StatusOK, body, "")
		b := NewRemoteBackend(ts.URL, "gs://", time.Second)

		u, err := b.Lookup(context.Background(), "gs://media/a.jpg")
		require.NoError(t, err, body)
		assert.Equal(t, "", u, body)
	}
}

func TestRemoteLookupNotFoundStatus(t *testing.T) {
	ts, _ := lookupServer(t, http.StatusNotFound, `nope`, "")
	b := NewRemoteBackend(ts.URL, "gs://", time.Second)

	u, err := b.Lookup(context.Background(), "gs://media/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "", u)
}

func TestRemoteLookupTransportErrors(t *testing.T) {
	ts, _ := lookupServer(t, http.StatusInternalServerError, `{}`, "")
	b := NewRemoteBackend(ts.URL, "gs://", time.Second)
	_, err := b.Lookup(context.Background(), "gs://media/a.jpg")
	assert.ErrorIs(t, err, ErrLookupTransport)

	ts, _ = lookupServer(t, http.StatusOK, `<html>`, "")
	b = NewRemoteBackend(ts.URL, "gs://", time.Second)
	_, err = b.Lookup(context.Background(), "gs://media/a.jpg")
	assert.ErrorIs(t, err, ErrLookupTransport)

	b = NewRemoteBackend("http://127.0.0.1:1", "gs://", time.Second)
	_, err = b.Lookup(context.Background(), "gs://media/a.jpg")
	assert.ErrorIs(t, err, ErrLookupTransport)
}

func TestRemoteDelete(t *testing.T) {
	ts, paths := lookupServer(t, http.StatusOK, "", `{"success":true}`)
	b := NewRemoteBackend(ts.URL, "gs://", time.Second)

	require.NoError(t, b.Delete(context.Background(), "gs://media/a.jpg"))
	assert.Equal(t, []string{"DELETE /media/a.jpg"}, *paths)

	ts, _ = lookupServer(t, http.StatusOK, "", `{"success":false}`)
	b = NewRemoteBackend(ts.URL, "gs://", time.Second)
	assert.ErrorIs(t, b.Delete(context.Background(), "gs://media/a.jpg"), ErrLookupTransport)
}

func TestRelativePath(t *testing.T) {
	b := NewRemoteBackend("https://svc", "gs://", time.Second)
	assert.Equal(t, "media/a.jpg", b.RelativePath("gs://media/a.jpg"))

	uploads := NewRemoteBackend("https://svc", "/var/www/wp-content/uploads/", time.Second)
	assert.Equal(t, "2024/01/a.jpg", uploads.RelativePath("/var/www/wp-content/uploads/2024/01/a.jpg"))
}

func TestRemoteResolveEndToEnd(t *testing.T) {
	ts, _ := lookupServer(t, http.StatusOK, `{"serving_url":"http://lh3.example.com/abc"}`, `{"success":true}`)
	r := New(newMapCache(), FailurePolicy{}, Select(Options{ServiceURL: ts.URL, StripPrefix: "gs://", Timeout: time.Second})...)

	u, err := r.Resolve(context.Background(), photo)
	require.NoError(t, err)
	assert.Equal(t, "https://lh3.example.com/abc", u)
	assert.NoError(t, r.Invalidate(context.Background(), photo))
}

// stubProvider is a provider.Provider with fixed answers.
type stubProvider struct {
	url string
	err error
}

func (s stubProvider) ServingURL(context.Context, string) (string, error) { return s.url, s.err }
func (s stubProvider) DeleteServingURL(context.Context, string) error     { return nil }
func (s stubProvider) Exists(context.Context, string) (bool, error)       { return s.err == nil, nil }

func TestDirectBackend(t *testing.T) {
	u, err := DirectBackend{Provider: stubProvider{url: "https://lh3.example.com/d"}}.Lookup(context.Background(), photo.Path)
	require.NoError(t, err)
	assert.Equal(t, "https://lh3.example.com/d", u)

	u, err = DirectBackend{Provider: stubProvider{err: provider.ErrObjectNotFound}}.Lookup(context.Background(), photo.Path)
	require.NoError(t, err)
	assert.Equal(t, "", u)

	_, err = DirectBackend{Provider: stubProvider{err: errors.New("quota")}}.Lookup(context.Background(), photo.Path)
	assert.ErrorIs(t, err, ErrLookupTransport)
}

func TestSelectOrder(t *testing.T) {
	assert.Empty(t, Select(Options{}))

	backends := Select(Options{Provider: stubProvider{}, ServiceURL: "https://svc"})
	require.Len(t, backends, 2)
	assert.Equal(t, KindDirect, backends[0].Kind())
	assert.Equal(t, KindRemote, backends[1].Kind())
}
