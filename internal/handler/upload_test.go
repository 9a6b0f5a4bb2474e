package handler_test

import (
	"bytes"
	"encoding/json"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/leca/dt-serving-urls/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngBytes encodes a solid width x height PNG.
func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(width, height, color.NRGBA{R: 200, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

// uploadBody builds a multipart body with a "file" part and extra fields.
func uploadBody(t *testing.T, fileName, contentType string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, body *bytes.Buffer, contentType string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/media/upload", body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestUploadMediaItem(t *testing.T) {
	env := setupTest(t)

	body, ct := uploadBody(t, "photo.png", "", pngBytes(t, 640, 480), map[string]string{"path": "2024/photo.png"})
	w, resp := env.upload(t, body, ct)
	require.Equal(t, http.StatusOK, w.Code)

	var item model.MediaItem
	require.NoError(t, json.Unmarshal(resp.Result, &item))
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "image/png", item.MIMEType)
	assert.Equal(t, "gs://media/2024/photo.png", item.Path)
	assert.Equal(t, 640, item.Width)
	assert.Equal(t, 480, item.Height)

	exists, err := env.store.Exists("media/2024/photo.png")
	require.NoError(t, err)
	assert.True(t, exists)

	stored, err := env.db.GetMediaItem(item.ID)
	require.NoError(t, err)
	assert.Equal(t, item, *stored)
}

func TestUploadDefaultsToDatedKey(t *testing.T) {
	env := setupTest(t)

	body, ct := uploadBody(t, "my photo.png", "image/png", pngBytes(t, 10, 20), map[string]string{"id": "up-1"})
	w, resp := env.upload(t, body, ct)
	require.Equal(t, http.StatusOK, w.Code)

	var item model.MediaItem
	require.NoError(t, json.Unmarshal(resp.Result, &item))
	assert.Equal(t, "up-1", item.ID)
	assert.Regexp(t, `^gs://media/\d{4}/\d{2}/my photo\.png$`, item.Path)
}

func TestUploadNonImageKeepsZeroDimensions(t *testing.T) {
	env := setupTest(t)

	body, ct := uploadBody(t, "doc.pdf", "application/pdf", []byte("%PDF-1.4"), nil)
	w, resp := env.upload(t, body, ct)
	require.Equal(t, http.StatusOK, w.Code)

	var item model.MediaItem
	require.NoError(t, json.Unmarshal(resp.Result, &item))
	assert.Equal(t, "application/pdf", item.MIMEType)
	assert.Zero(t, item.Width)
	assert.Zero(t, item.Height)
}

func TestUploadExplicitDimensions(t *testing.T) {
	env := setupTest(t)

	body, ct := uploadBody(t, "broken.jpg", "image/jpeg", []byte("not a jpeg"), map[string]string{"width": "1600", "height": "1200"})
	w, resp := env.upload(t, body, ct)
	require.Equal(t, http.StatusOK, w.Code)

	var item model.MediaItem
	require.NoError(t, json.Unmarshal(resp.Result, &item))
	assert.Equal(t, 1600, item.Width)
	assert.Equal(t, 1200, item.Height)
}

func TestUploadValidation(t *testing.T) {
	env := setupTest(t)

	body, ct := uploadBody(t, "broken.jpg", "image/jpeg", []byte("not a jpeg"), nil)
	w, _ := env.upload(t, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code, "undecodable image without dimensions")

	body, ct = uploadBody(t, "a.png", "", pngBytes(t, 4, 4), map[string]string{"path": "../escape.png"})
	w, _ = env.upload(t, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, ct = uploadBody(t, "a.png", "", pngBytes(t, 4, 4), map[string]string{"width": "wide"})
	w, _ = env.upload(t, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var empty bytes.Buffer
	mw := multipart.NewWriter(&empty)
	require.NoError(t, mw.WriteField("path", "a.png"))
	require.NoError(t, mw.Close())
	w, _ = env.upload(t, &empty, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	exists, err := env.store.Exists("media/escape.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUploadTooLarge(t *testing.T) {
	env := setupTest(t)

	body, ct := uploadBody(t, "big.png", "image/png", bytes.Repeat([]byte{0}, 2<<20), nil)
	w, _ := env.upload(t, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteRemovesStoredObject(t *testing.T) {
	env := setupTest(t)

	body, ct := uploadBody(t, "photo.png", "", pngBytes(t, 8, 8), map[string]string{"id": "9", "path": "2024/photo.jpg"})
	w, _ := env.upload(t, body, ct)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodDelete, "/media/9", nil)
	require.Equal(t, http.StatusOK, w.Code)

	exists, err := env.store.Exists("media/2024/photo.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
}
