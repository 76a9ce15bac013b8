package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/svvaap/bookhive/internal/auth"
	"github.com/svvaap/bookhive/internal/cart"
	"github.com/svvaap/bookhive/internal/catalog"
	"github.com/svvaap/bookhive/internal/checkout"
	"github.com/svvaap/bookhive/internal/entitlements"
	"github.com/svvaap/bookhive/internal/lifecycle"
	"github.com/svvaap/bookhive/internal/orders"
	"github.com/svvaap/bookhive/internal/payment"
	"github.com/svvaap/bookhive/internal/remote"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv wires the purchase stack against an in-memory remote store and a
// router that resolves the user from the X-Test-UID request header.
type testEnv struct {
	store  *remote.MemoryStore
	scope  *lifecycle.Scope
	cat    *catalog.Catalog
	carts  *cart.Store
	ents   *entitlements.Store
	ledger *orders.Ledger
	orch   *checkout.Orchestrator
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{store: remote.NewMemoryStore()}
	env.scope = lifecycle.NewScope()
	t.Cleanup(env.scope.Close)

	ctx := context.Background()
	require.NoError(t, env.store.Write(ctx, catalog.Path, map[string]any{
		"b1": map[string]any{
			"title": "Dune", "author": "Frank Herbert", "category": "Fiction",
			"price": 299.0, "fileUrl": "https://objects.test/books/b1/fileUrl.epub",
			"uploadDate": "2024-02-01T00:00:00Z",
		},
		"b2": map[string]any{
			"title": "Foundation", "author": "Isaac Asimov", "category": "Fiction",
			"price": 199.0, "uploadDate": "2024-01-01T00:00:00Z",
		},
		"b3": map[string]any{
			"title": "Deep Work", "author": "Cal Newport", "category": "Productivity",
			"price": 249.0, "uploadDate": "2024-03-01T00:00:00Z",
		},
	}))

	env.cat = catalog.New()
	require.NoError(t, env.cat.Attach(env.scope, env.store))
	env.carts = cart.New(env.store)
	env.ents = entitlements.New(env.store)
	env.ledger = orders.NewLedger()
	require.NoError(t, env.ledger.Attach(env.scope, env.store))

	env.orch = checkout.NewOrchestrator(checkout.Config{
		Carts:    env.carts,
		Ents:     env.ents,
		Recorder: orders.NewRecorder(env.store),
		Books:    env.cat,
		Provider: payment.ManualProvider{},
		Currency: "INR",
		Merchant: "BookHive",
	})

	env.router = env.buildRouter()
	return env
}

// buildRouter registers the controller routes behind a header-driven user
// resolver, standing in for the session and bearer middleware.
func (env *testEnv) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-UID"); uid != "" {
			c.Set(auth.ContextKeyUID, uid)
		}
		c.Next()
	})
	r.Use(newUserAttacher(env.scope, env.carts, env.ents).Middleware())

	books := NewBooksController(env.cat, env.ents)
	cartController := NewCartController(env.carts, env.cat, env.ents)
	checkoutController := NewCheckoutController(env.orch, env.cat)
	ordersController := NewOrdersController(env.ledger)

	r.GET("/api/books", books.ListBooks)
	r.GET("/api/books/:id", books.GetBook)
	r.GET("/api/books/:id/content", books.GetBookContent)

	r.GET("/api/cart", cartController.GetCart)
	r.POST("/api/cart/items", cartController.AddItem)
	r.DELETE("/api/cart/items/:bookId", cartController.RemoveItem)

	r.POST("/api/checkout", checkoutController.StartCheckout)
	r.GET("/api/checkout/status", checkoutController.CheckoutStatus)
	r.POST("/api/checkout/callback", checkoutController.CheckoutCallback)

	r.GET("/api/orders", ordersController.ListOrders)
	r.GET("/api/orders/sales", ordersController.SalesReport)

	return r
}

// do performs a request as the given user. An empty uid is anonymous.
func (env *testEnv) do(t *testing.T, method, path, uid string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if uid != "" {
		req.Header.Set("X-Test-UID", uid)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) map[string]any {
	t.Helper()
	require.Equal(t, want, w.Code, "unexpected status, body: %s", w.Body.String())
	return decodeBody(t, w)
}
