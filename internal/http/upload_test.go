package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svvaap/bookhive/internal/catalog"
	"github.com/svvaap/bookhive/internal/remote"
	"github.com/svvaap/bookhive/internal/tasks"
)

func publishRouter(t *testing.T, store remote.Store, taskClient *tasks.Client) *gin.Engine {
	t.Helper()
	r := gin.New()
	controller := NewPublishController(store, taskClient, filepath.Join(t.TempDir(), "staging"))
	r.POST("/api/books", controller.CreateBook)
	r.PUT("/api/books/:id", controller.UpdateBook)
	r.DELETE("/api/books/:id", controller.DeleteBook)
	r.POST("/api/books/:id/assets", controller.UploadAsset)
	return r
}

func sendJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return sendJSON(t, r, http.MethodPost, path, body)
}

func TestCreateBook(t *testing.T) {
	store := remote.NewMemoryStore()
	r := publishRouter(t, store, nil)

	w := postJSON(t, r, "/api/books", map[string]any{
		"title": "Dune", "author": "Frank Herbert", "category": "Fiction", "price": 299.0,
	})
	body := mustStatus(t, w, http.StatusCreated)

	book := body["book"].(map[string]any)
	id := book["id"].(string)
	require.NotEmpty(t, id)
	assert.NotEmpty(t, book["upload_date"])

	snap, err := store.Read(context.Background(), remote.Join(catalog.Path, id))
	require.NoError(t, err)
	assert.Equal(t, "Dune", snap.Value.Child("title").StringOr(""))
	assert.Equal(t, 299.0, snap.Value.Child("price").FloatOr(-1))
}

func TestCreateBook_Validation(t *testing.T) {
	r := publishRouter(t, remote.NewMemoryStore(), nil)

	body := mustStatus(t, postJSON(t, r, "/api/books", map[string]any{"title": "No Author"}), http.StatusBadRequest)
	assert.Equal(t, "invalid_request", body["code"])

	body = mustStatus(t, postJSON(t, r, "/api/books", map[string]any{
		"title": "Dune", "author": "Frank Herbert", "price": -1.0,
	}), http.StatusBadRequest)
	assert.Equal(t, "invalid_request", body["code"])
}

func seedBook(t *testing.T, store remote.Store, id string, record map[string]any) {
	t.Helper()
	require.NoError(t, store.Write(context.Background(), remote.Join(catalog.Path, id), record))
}

func TestUpdateBook_MergesSubmittedFields(t *testing.T) {
	store := remote.NewMemoryStore()
	seedBook(t, store, "b1", map[string]any{
		"title": "Dune", "author": "Frank Herbert", "price": 299.0,
		"fileUrl": "https://objects.test/books/b1/fileUrl.epub",
	})
	r := publishRouter(t, store, nil)

	w := sendJSON(t, r, http.MethodPut, "/api/books/b1", map[string]any{
		"title": "Dune (Deluxe)", "price": 349.0,
	})
	mustStatus(t, w, http.StatusOK)

	snap, err := store.Read(context.Background(), remote.Join(catalog.Path, "b1"))
	require.NoError(t, err)
	assert.Equal(t, "Dune (Deluxe)", snap.Value.Child("title").StringOr(""))
	assert.Equal(t, 349.0, snap.Value.Child("price").FloatOr(-1))
	// Untouched fields survive, the asset URL in particular.
	assert.Equal(t, "Frank Herbert", snap.Value.Child("author").StringOr(""))
	assert.Equal(t, "https://objects.test/books/b1/fileUrl.epub", snap.Value.Child("fileUrl").StringOr(""))
}

func TestUpdateBook_Validation(t *testing.T) {
	store := remote.NewMemoryStore()
	seedBook(t, store, "b1", map[string]any{"title": "Dune", "author": "Frank Herbert", "price": 299.0})
	r := publishRouter(t, store, nil)

	body := mustStatus(t, sendJSON(t, r, http.MethodPut, "/api/books/b1", map[string]any{"price": -5.0}), http.StatusBadRequest)
	assert.Equal(t, "invalid_request", body["code"])

	body = mustStatus(t, sendJSON(t, r, http.MethodPut, "/api/books/b1", map[string]any{}), http.StatusBadRequest)
	assert.Equal(t, "invalid_request", body["code"])

	mustStatus(t, sendJSON(t, r, http.MethodPut, "/api/books/missing", map[string]any{"title": "X"}), http.StatusNotFound)
}

func TestDeleteBook(t *testing.T) {
	store := remote.NewMemoryStore()
	seedBook(t, store, "b1", map[string]any{"title": "Dune", "author": "Frank Herbert", "price": 299.0})
	r := publishRouter(t, store, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/books/b1", nil))
	mustStatus(t, w, http.StatusOK)

	snap, err := store.Read(context.Background(), remote.Join(catalog.Path, "b1"))
	require.NoError(t, err)
	assert.False(t, snap.Exists())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/books/b1", nil))
	mustStatus(t, w, http.StatusNotFound)
}

func TestUploadAsset_DisabledWithoutTaskQueue(t *testing.T) {
	r := publishRouter(t, remote.NewMemoryStore(), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/books/b1/assets", nil))
	body := mustStatus(t, w, http.StatusServiceUnavailable)
	assert.Equal(t, "uploads_disabled", body["code"])
}

func multipartUpload(t *testing.T, field, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("field", field))
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("epub bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadAsset_QueuesTask(t *testing.T) {
	taskClient, err := tasks.NewClient(filepath.Join(t.TempDir(), "bookhive.db"),
		tasks.Config{Workers: 1, ReleaseAfter: time.Minute, CleanupInterval: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { taskClient.Close() })
	taskClient.Register(tasks.NewUploadBookAssetQueue(nil, remote.NewMemoryStore(), time.Hour, nil))

	r := publishRouter(t, remote.NewMemoryStore(), taskClient)

	buf, contentType := multipartUpload(t, tasks.AssetFieldFile, "My Book.epub")
	req := httptest.NewRequest(http.MethodPost, "/api/books/b1/assets", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := mustStatus(t, w, http.StatusAccepted)
	assert.Equal(t, "upload queued", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "b1", data["book_id"])
	assert.Equal(t, tasks.AssetFieldFile, data["field"])
}

func TestUploadAsset_Validation(t *testing.T) {
	taskClient, err := tasks.NewClient(filepath.Join(t.TempDir(), "bookhive.db"),
		tasks.Config{Workers: 1, ReleaseAfter: time.Minute, CleanupInterval: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { taskClient.Close() })

	r := publishRouter(t, remote.NewMemoryStore(), taskClient)

	// Unknown asset field.
	buf, contentType := multipartUpload(t, "thumbnail", "cover.png")
	req := httptest.NewRequest(http.MethodPost, "/api/books/b1/assets", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	body := mustStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "invalid_request", body["code"])

	// Missing file part.
	buf, contentType = multipartUpload(t, tasks.AssetFieldCover, "")
	req = httptest.NewRequest(http.MethodPost, "/api/books/b1/assets", buf)
	req.Header.Set("Content-Type", contentType)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	body = mustStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "invalid_request", body["code"])
}
