package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svvaap/bookhive/internal/session"
)

func TestListBooks_Anonymous(t *testing.T) {
	env := newTestEnv(t)

	body := mustStatus(t, env.do(t, http.MethodGet, "/api/books", "", nil), http.StatusOK)
	assert.EqualValues(t, 3, body["count"])

	books := body["books"].([]any)
	require.Len(t, books, 3)
	for _, b := range books {
		book := b.(map[string]any)
		assert.Equal(t, false, book["purchased"])
		assert.Equal(t, false, book["can_read"])
		assert.Equal(t, true, book["can_buy"])
	}
}

func TestListBooks_SearchAndFilters(t *testing.T) {
	env := newTestEnv(t)

	body := mustStatus(t, env.do(t, http.MethodGet, "/api/books?q=dune", "", nil), http.StatusOK)
	assert.EqualValues(t, 1, body["count"])

	body = mustStatus(t, env.do(t, http.MethodGet, "/api/books?category=fiction", "", nil), http.StatusOK)
	assert.EqualValues(t, 2, body["count"])

	body = mustStatus(t, env.do(t, http.MethodGet, "/api/books?sort=latest", "", nil), http.StatusOK)
	books := body["books"].([]any)
	require.Len(t, books, 3)
	assert.Equal(t, "Deep Work", books[0].(map[string]any)["title"])
	assert.Equal(t, "Foundation", books[2].(map[string]any)["title"])

	body = mustStatus(t, env.do(t, http.MethodGet, "/api/books?q=work&category=productivity", "", nil), http.StatusOK)
	assert.EqualValues(t, 1, body["count"])
}

func TestGetBook_OwnershipFlags(t *testing.T) {
	env := newTestEnv(t)

	// First contact attaches the user, then grant b1.
	mustStatus(t, env.do(t, http.MethodGet, "/api/books", "u1", nil), http.StatusOK)
	require.NoError(t, env.ents.Grant(context.Background(), session.Session{UserID: "u1"}, "b1"))

	body := mustStatus(t, env.do(t, http.MethodGet, "/api/books/b1", "u1", nil), http.StatusOK)
	assert.Equal(t, "Dune", body["title"])
	assert.Equal(t, true, body["purchased"])
	assert.Equal(t, true, body["can_read"])
	assert.Equal(t, false, body["can_buy"])

	body = mustStatus(t, env.do(t, http.MethodGet, "/api/books/b2", "u1", nil), http.StatusOK)
	assert.Equal(t, false, body["purchased"])
	assert.Equal(t, true, body["can_buy"])
}

func TestGetBook_NotFound(t *testing.T) {
	env := newTestEnv(t)

	body := mustStatus(t, env.do(t, http.MethodGet, "/api/books/missing", "", nil), http.StatusNotFound)
	assert.Equal(t, "not_found", body["code"])
}

func TestGetBookContent_Gating(t *testing.T) {
	env := newTestEnv(t)

	// Anonymous readers are turned away before the ownership check.
	body := mustStatus(t, env.do(t, http.MethodGet, "/api/books/b1/content", "", nil), http.StatusUnauthorized)
	assert.Equal(t, "login_required", body["code"])

	// Logged in but not purchased.
	body = mustStatus(t, env.do(t, http.MethodGet, "/api/books/b1/content", "u1", nil), http.StatusPaymentRequired)
	assert.Equal(t, "purchase_required", body["code"])

	require.NoError(t, env.ents.Grant(context.Background(), session.Session{UserID: "u1"}, "b1"))

	body = mustStatus(t, env.do(t, http.MethodGet, "/api/books/b1/content", "u1", nil), http.StatusOK)
	assert.Equal(t, "b1", body["book_id"])
	assert.Equal(t, "https://objects.test/books/b1/fileUrl.epub", body["file_url"])
}

func TestGetBookContent_UnknownBook(t *testing.T) {
	env := newTestEnv(t)

	mustStatus(t, env.do(t, http.MethodGet, "/api/books/missing/content", "u1", nil), http.StatusNotFound)
}
