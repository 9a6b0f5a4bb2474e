package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leca/dt-serving-urls/internal/api"
	"github.com/leca/dt-serving-urls/internal/media"
	"github.com/leca/dt-serving-urls/internal/model"
	"github.com/leca/dt-serving-urls/internal/resolver"
	"github.com/leca/dt-serving-urls/internal/variant"
)

// CreateMediaItem handles POST /media -- registers or replaces a media item.
func (h *Handler) CreateMediaItem(w http.ResponseWriter, r *http.Request) {
	var item model.MediaItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if item.Path == "" {
		api.BadRequest(w, "missing required field: path")
		return
	}
	if item.MIMEType == "" {
		api.BadRequest(w, "missing required field: mime_type")
		return
	}
	if item.Width < 0 || item.Height < 0 {
		api.BadRequest(w, "width and height must not be negative")
		return
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	if err := h.DB.CreateMediaItem(&item); err != nil {
		api.InternalError(w, "failed to create media item")
		return
	}
	api.WriteJSON(w, http.StatusOK, api.SuccessResponse(item))
}

// GetMediaItem handles GET /media/{id}.
func (h *Handler) GetMediaItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}
	api.WriteJSON(w, http.StatusOK, api.SuccessResponse(item))
}

// ListMediaItems handles GET /media.
func (h *Handler) ListMediaItems(w http.ResponseWriter, r *http.Request) {
	page := 1
	perPage := 100

	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if pp, err := strconv.Atoi(v); err == nil && pp > 0 {
			if pp > 1000 {
				pp = 1000
			}
			perPage = pp
		}
	}

	items, total, err := h.DB.ListMediaItems(page, perPage)
	if err != nil {
		api.InternalError(w, "failed to list media items")
		return
	}

	// Ensure non-nil slice for JSON serialisation.
	if items == nil {
		items = []*model.MediaItem{}
	}

	info := api.ResultInfo{
		Page:       page,
		PerPage:    perPage,
		Count:      len(items),
		TotalCount: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	api.WriteJSON(w, http.StatusOK, api.PaginatedResponse(map[string]interface{}{"media": items}, info))
}

// DeleteMediaItem handles DELETE /media/{id}. The serving URL is revoked
// before the record and its stored object are removed; revocation failures
// are only logged.
func (h *Handler) DeleteMediaItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}

	h.Pipeline.OnAttachmentDeleted(r.Context(), *item)

	if err := h.DB.DeleteMediaItem(item.ID); err != nil {
		api.NotFound(w, "media item not found")
		return
	}
	h.removeObject(item)
	api.WriteJSON(w, http.StatusOK, api.SuccessResponse(struct{}{}))
}

// GetDownsize handles GET /media/{id}/downsize?size=<name> or ?width=&height=.
func (h *Handler) GetDownsize(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}
	size, err := parseSize(r)
	if err != nil {
		api.BadRequest(w, err.Error())
		return
	}

	d, err := h.Pipeline.Downsize(r.Context(), *item, size)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.SuccessResponse(d))
}

// GetSrcset handles GET /media/{id}/srcset?size=<name> or ?width=&height=.
func (h *Handler) GetSrcset(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}
	size, err := parseSize(r)
	if err != nil {
		api.BadRequest(w, err.Error())
		return
	}

	s, err := h.Pipeline.Srcset(r.Context(), *item, size)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.SuccessResponse(map[string]interface{}{
		"srcset":     s.String(),
		"candidates": s,
	}))
}

// ListSizes handles GET /sizes.
func (h *Handler) ListSizes(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, api.SuccessResponse(h.Pipeline.Sizes().All()))
}

func (h *Handler) loadItem(w http.ResponseWriter, r *http.Request) (*model.MediaItem, bool) {
	item, err := h.DB.GetMediaItem(chi.URLParam(r, "id"))
	if err != nil {
		api.NotFound(w, "media item not found")
		return nil, false
	}
	return item, true
}

// parseSize reads ?size=<name>, or ?width=&height= for an explicit box.
// With neither, the full size is used.
func parseSize(r *http.Request) (media.Size, error) {
	q := r.URL.Query()
	if name := strings.TrimSpace(q.Get("size")); name != "" {
		return media.Named(name), nil
	}
	if q.Get("width") == "" && q.Get("height") == "" {
		return media.Named(media.Full), nil
	}

	dim := func(key string) (int, error) {
		v := q.Get(key)
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, errors.New("invalid " + key + ": " + v)
		}
		return n, nil
	}
	width, err := dim("width")
	if err != nil {
		return media.Size{}, err
	}
	height, err := dim("height")
	if err != nil {
		return media.Size{}, err
	}
	return media.Box(width, height), nil
}

func writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, media.ErrUnknownSize), errors.Is(err, variant.ErrInvalidSizeSpec):
		api.BadRequest(w, err.Error())
	case resolver.IsFallback(err):
		api.Fallback(w, err.Error())
	default:
		api.InternalError(w, "failed to build variant url")
	}
}
