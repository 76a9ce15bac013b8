package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svvaap/bookhive/internal/entities"
	"github.com/svvaap/bookhive/internal/orders"
)

func recordOrder(t *testing.T, env *testEnv, order entities.Order) {
	t.Helper()
	_, err := orders.NewRecorder(env.store).Record(context.Background(), order)
	require.NoError(t, err)
}

func TestListOrders_MineOnlyNewestFirst(t *testing.T) {
	env := newTestEnv(t)

	recordOrder(t, env, entities.Order{
		UserID: "u1", BookID: "b1", BookTitle: "Dune", BookPrice: 299,
		OrderDate: "2024-01-01T00:00:00Z", Status: entities.OrderStatusCompleted,
	})
	recordOrder(t, env, entities.Order{
		UserID: "u1", BookID: "b2", BookTitle: "Foundation", BookPrice: 199,
		OrderDate: "2024-02-01T00:00:00Z", Status: entities.OrderStatusCompleted,
	})
	recordOrder(t, env, entities.Order{
		UserID: "u2", BookID: "b3", BookTitle: "Deep Work", BookPrice: 249,
		OrderDate: "2024-03-01T00:00:00Z", Status: entities.OrderStatusCompleted,
	})

	body := mustStatus(t, env.do(t, http.MethodGet, "/api/orders", "u1", nil), http.StatusOK)
	require.EqualValues(t, 2, body["count"])

	list := body["orders"].([]any)
	assert.Equal(t, "b2", list[0].(map[string]any)["book_id"])
	assert.Equal(t, "b1", list[1].(map[string]any)["book_id"])
}

func TestListOrders_RequiresLogin(t *testing.T) {
	env := newTestEnv(t)

	body := mustStatus(t, env.do(t, http.MethodGet, "/api/orders", "", nil), http.StatusUnauthorized)
	assert.Equal(t, "login_required", body["code"])
}

func TestSalesReport(t *testing.T) {
	env := newTestEnv(t)

	recordOrder(t, env, entities.Order{
		UserID: "u1", BookID: "b1", BookTitle: "Dune", BookPrice: 299,
		Status: entities.OrderStatusCompleted,
	})
	recordOrder(t, env, entities.Order{
		UserID: "u2", BookID: "b1", BookTitle: "Dune", BookPrice: 299,
		Status: entities.OrderStatusCompleted,
	})
	recordOrder(t, env, entities.Order{
		UserID: "u2", BookID: "b2", BookTitle: "Foundation", BookPrice: 199,
		Status: entities.OrderStatusCancelled,
	})

	body := mustStatus(t, env.do(t, http.MethodGet, "/api/orders/sales", "u1", nil), http.StatusOK)
	assert.EqualValues(t, 598, body["total_revenue"])
	assert.EqualValues(t, 2, body["total_orders"])
}
