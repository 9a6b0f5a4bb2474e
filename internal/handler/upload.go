package handler

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/leca/dt-serving-urls/internal/api"
	"github.com/leca/dt-serving-urls/internal/model"
	"github.com/leca/dt-serving-urls/internal/provider"
)

const defaultMaxUploadSize = 32 << 20

// UploadMediaItem handles POST /media/upload -- stores a multipart "file" in
// the configured bucket and registers it as a media item. The object key is
// the "path" form field, or <yyyy>/<mm>/<file name> when absent.
func (h *Handler) UploadMediaItem(w http.ResponseWriter, r *http.Request) {
	limit := h.Config.MaxUploadSize
	if limit <= 0 {
		limit = defaultMaxUploadSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		api.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.BadRequest(w, "missing required field: file")
		return
	}
	defer file.Close()

	object, ok := uploadKey(r.FormValue("path"), header.Filename)
	if !ok {
		api.BadRequest(w, "invalid object path")
		return
	}

	item := model.MediaItem{
		ID:       r.FormValue("id"),
		MIMEType: uploadMIMEType(header),
		Path:     provider.FilePath(h.Config.Bucket, object),
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	dims, err := uploadDimensions(r, file, item)
	if err != nil {
		api.BadRequest(w, err.Error())
		return
	}
	item.Width, item.Height = dims.Width, dims.Height

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		api.InternalError(w, "failed to read upload")
		return
	}
	key := h.Config.Bucket + "/" + object
	if _, err := h.Store.Store(key, file); err != nil {
		api.InternalError(w, "failed to store object")
		return
	}

	if err := h.DB.CreateMediaItem(&item); err != nil {
		// Leave no orphaned object behind.
		_ = h.Store.Delete(key)
		api.InternalError(w, "failed to create media item")
		return
	}
	api.WriteJSON(w, http.StatusOK, api.SuccessResponse(item))
}

// uploadKey cleans the requested object key, falling back to a dated key
// derived from the file name.
func uploadKey(requested, filename string) (string, bool) {
	key := strings.TrimSpace(requested)
	if key == "" {
		name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
		if name == "." || name == "/" {
			return "", false
		}
		key = time.Now().UTC().Format("2006/01") + "/" + name
	}
	if strings.Contains(key, "..") {
		return "", false
	}
	key = strings.TrimLeft(path.Clean("/"+key), "/")
	return key, key != ""
}

// uploadMIMEType prefers the part's declared type and falls back to the
// file extension.
func uploadMIMEType(header *multipart.FileHeader) string {
	if mt, _, err := mime.ParseMediaType(header.Header.Get("Content-Type")); err == nil && mt != "application/octet-stream" {
		return mt
	}
	if mt, _, err := mime.ParseMediaType(mime.TypeByExtension(path.Ext(header.Filename))); err == nil {
		return mt
	}
	return "application/octet-stream"
}

// uploadDimensions returns the width and height form fields when both are
// given. Otherwise servable images are decoded, honouring EXIF orientation;
// other types are registered without dimensions.
func uploadDimensions(r *http.Request, file io.Reader, item model.MediaItem) (model.Dimensions, error) {
	w, h := r.FormValue("width"), r.FormValue("height")
	if w != "" || h != "" {
		width, werr := strconv.Atoi(w)
		height, herr := strconv.Atoi(h)
		if werr != nil || herr != nil || width < 0 || height < 0 {
			return model.Dimensions{}, errors.New("width and height must both be non-negative integers")
		}
		return model.Dimensions{Width: width, Height: height}, nil
	}
	if !item.IsServable() {
		return model.Dimensions{}, nil
	}

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return model.Dimensions{}, errors.New("cannot read image dimensions: " + err.Error())
	}
	b := img.Bounds()
	return model.Dimensions{Width: b.Dx(), Height: b.Dy()}, nil
}

// removeObject deletes the stored object behind item when it lives in the
// configured bucket. Failures are logged only.
func (h *Handler) removeObject(item *model.MediaItem) {
	if h.Store == nil {
		return
	}
	object, ok := strings.CutPrefix(item.Path, provider.FilePath(h.Config.Bucket, ""))
	if !ok || object == "" {
		return
	}
	if err := h.Store.Delete(h.Config.Bucket + "/" + object); err != nil {
		h.logger().Warn("removing stored object failed", "media_id", item.ID, "path", item.Path, "error", err)
	}
}
