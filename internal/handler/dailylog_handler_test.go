package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ojt-portal-api/pkg/config"
	"github.com/noah-isme/ojt-portal-api/pkg/storage"
)

func newPhotoHandler(t *testing.T, uploads config.UploadsConfig) (*DailyLogHandler, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	return NewDailyLogHandler(nil, store, uploads), dir
}

func multipartPhoto(t *testing.T, fieldValues map[string]string, filename, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fieldValues {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{`form-data; name="photo"; filename="` + filename + `"`}
		header["Content-Type"] = []string{contentType}
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(payload)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestCreateRejectsOversizePhoto(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newPhotoHandler(t, config.UploadsConfig{MaxFileSizeBytes: 4, AllowedMIMEs: []string{"image/jpeg"}})

	body, contentType := multipartPhoto(t, map[string]string{
		"log_date":           "2026-02-10",
		"time_in":            "08:00",
		"time_out":           "17:00",
		"tasks_accomplished": "Tasks",
	}, "big.jpg", "image/jpeg", []byte("way too big"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/logs", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "maximum allowed size")
}

func TestCreateRejectsDisallowedMIME(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newPhotoHandler(t, config.UploadsConfig{MaxFileSizeBytes: 1 << 20, AllowedMIMEs: []string{"image/jpeg", "image/png"}})

	body, contentType := multipartPhoto(t, map[string]string{
		"log_date":           "2026-02-10",
		"time_in":            "08:00",
		"time_out":           "17:00",
		"tasks_accomplished": "Tasks",
	}, "script.svg", "image/svg+xml", []byte("<svg/>"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/logs", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "jpeg or png")
}

func TestPhotoRejectsPathTraversal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newPhotoHandler(t, config.UploadsConfig{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/photos/x", nil)
	c.Params = gin.Params{{Key: "filename", Value: "../secrets.env"}}

	h.Photo(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPhotoServesStoredFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, dir := newPhotoHandler(t, config.UploadsConfig{})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "evidence.jpg"), []byte("jpegbytes"), 0o644))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/photos/evidence.jpg", nil)
	// legacy rows may still carry the old directory prefix
	c.Params = gin.Params{{Key: "filename", Value: "uploads/evidence.jpg"}}

	h.Photo(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpegbytes", w.Body.String())
}

func TestPhotoMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newPhotoHandler(t, config.UploadsConfig{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/photos/nope.jpg", nil)
	c.Params = gin.Params{{Key: "filename", Value: "nope.jpg"}}

	h.Photo(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
