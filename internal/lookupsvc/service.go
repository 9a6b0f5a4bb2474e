// Package lookupsvc implements the serving URL lookup service that the
// remote resolver backend talks to. It answers GET and DELETE requests for
// object paths below a single bucket.
package lookupsvc

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/leca/dt-serving-urls/internal/api"
	"github.com/leca/dt-serving-urls/internal/cache"
	"github.com/leca/dt-serving-urls/internal/metrics"
	"github.com/leca/dt-serving-urls/internal/provider"
	"github.com/leca/dt-serving-urls/internal/resolver"
)

// Opener serves the bytes behind a minted serving URL token.
type Opener interface {
	Open(ctx context.Context, token string) (io.ReadCloser, string, error)
}

// Service handles lookup requests. Opener is optional; when set, minted
// URLs are also served under /img/{token}.
type Service struct {
	Cache    cache.Cache
	Provider provider.Provider
	Opener   Opener
	Bucket   string
	Log      *slog.Logger
}

// ObjectsPrefix is the route prefix for object lookups. Clients use
// <service root>/objects as their lookup service URL.
const ObjectsPrefix = "/objects"

// Routes returns the lookup routes, relative to the service root.
func (s *Service) Routes() chi.Router {
	r := chi.NewRouter()
	if s.Opener != nil {
		r.Get("/img/{token}", s.Deliver)
	}
	r.Route(ObjectsPrefix, func(r chi.Router) {
		r.Get("/*", s.Lookup)
		r.Delete("/*", s.Delete)
	})
	return r
}

// lookupResponse is the GET body. ServingURL is the URL string or false.
type lookupResponse struct {
	ServingURL interface{} `json:"serving_url"`
}

type deleteResponse struct {
	Success bool `json:"success"`
}

// CacheKey returns the cache key for a file path: "imgsrv_" + hex(md5(filePath)).
func CacheKey(filePath string) string {
	sum := md5.Sum([]byte(filePath))
	return "imgsrv_" + hex.EncodeToString(sum[:])
}

// objectPath returns the request path below ObjectsPrefix.
func objectPath(r *http.Request) string {
	return strings.TrimLeft(strings.TrimPrefix(r.URL.Path, ObjectsPrefix), "/")
}

// Lookup handles GET /objects/{object...}: returns the cached serving URL, minting
// one when the object exists.
func (s *Service) Lookup(w http.ResponseWriter, r *http.Request) {
	object := objectPath(r)
	if object == "" {
		metrics.RecordLookupRequest(http.MethodGet, "bad_request")
		api.BadRequest(w, "object path is required")
		return
	}

	ctx := r.Context()
	filePath := provider.FilePath(s.Bucket, object)
	key := CacheKey(filePath)

	cached, ok, err := s.Cache.Get(ctx, key)
	if err != nil {
		s.logger().Warn("lookup cache read failed", "key", key, "error", err)
	}
	if ok && cached != "" {
		metrics.RecordLookupRequest(http.MethodGet, "hit")
		api.WriteJSON(w, http.StatusOK, lookupResponse{ServingURL: cached})
		return
	}

	exists, err := s.Provider.Exists(ctx, filePath)
	if err != nil {
		s.fail(w, http.MethodGet, "exists check failed", filePath, err)
		return
	}
	if !exists {
		metrics.RecordLookupRequest(http.MethodGet, "not_found")
		api.WriteJSON(w, http.StatusOK, lookupResponse{ServingURL: false})
		return
	}

	u, err := s.Provider.ServingURL(ctx, filePath)
	if errors.Is(err, provider.ErrObjectNotFound) {
		metrics.RecordLookupRequest(http.MethodGet, "not_found")
		api.WriteJSON(w, http.StatusOK, lookupResponse{ServingURL: false})
		return
	}
	if err != nil {
		s.fail(w, http.MethodGet, "minting serving url failed", filePath, err)
		return
	}

	u = resolver.Secure(u)
	if err := s.Cache.Set(ctx, key, u, 0); err != nil {
		s.logger().Warn("lookup cache write failed", "key", key, "error", err)
	}
	metrics.RecordLookupRequest(http.MethodGet, "minted")
	api.WriteJSON(w, http.StatusOK, lookupResponse{ServingURL: u})
}

// Delete handles DELETE /objects/{object...}: drops the cache entry and revokes the
// serving URL. Both steps are best-effort.
func (s *Service) Delete(w http.ResponseWriter, r *http.Request) {
	object := objectPath(r)
	if object == "" {
		metrics.RecordLookupRequest(http.MethodDelete, "bad_request")
		api.BadRequest(w, "object path is required")
		return
	}

	ctx := r.Context()
	filePath := provider.FilePath(s.Bucket, object)

	if err := s.Cache.Delete(ctx, CacheKey(filePath)); err != nil {
		s.logger().Warn("lookup cache delete failed", "file_path", filePath, "error", err)
	}
	if err := s.Provider.DeleteServingURL(ctx, filePath); err != nil {
		s.logger().Warn("revoking serving url failed", "file_path", filePath, "error", err)
	}

	metrics.RecordLookupRequest(http.MethodDelete, "ok")
	api.WriteJSON(w, http.StatusOK, deleteResponse{Success: true})
}

// Deliver handles GET /img/{token}, serving the original bytes of a file
// minted by the local provider. Variant parameters after "=" are accepted
// and ignored.
func (s *Service) Deliver(w http.ResponseWriter, r *http.Request) {
	token, _, _ := strings.Cut(chi.URLParam(r, "token"), "=")

	rc, filePath, err := s.Opener.Open(r.Context(), token)
	if errors.Is(err, provider.ErrObjectNotFound) {
		http.Error(w, "image not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger().Error("opening image failed", "token", token, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	ct := mime.TypeByExtension(path.Ext(filePath))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger().Warn("writing image failed", "token", token, "error", err)
	}
}

func (s *Service) fail(w http.ResponseWriter, method, msg, filePath string, err error) {
	s.logger().Error(msg, "file_path", filePath, "error", err)
	metrics.RecordLookupRequest(method, "error")
	api.BadGateway(w, msg)
}

func (s *Service) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
