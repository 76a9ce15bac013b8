package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svvaap/bookhive/internal/entities"
	"github.com/svvaap/bookhive/internal/lifecycle"
	"github.com/svvaap/bookhive/internal/remote"
)

func completedOrder(userID, bookID, title string, price float64) entities.Order {
	return entities.Order{
		UserID:        userID,
		BookID:        bookID,
		BookTitle:     title,
		BookPrice:     price,
		OrderDate:     "2026-08-30T10:00:00Z",
		Status:        entities.OrderStatusCompleted,
		PaymentMethod: "stub",
	}
}

func setupLedger(t *testing.T) (*Recorder, *Ledger, *remote.MemoryStore) {
	t.Helper()
	store := remote.NewMemoryStore()
	recorder := NewRecorder(store)
	ledger := NewLedger()
	scope := lifecycle.NewScope()
	t.Cleanup(scope.Close)
	require.NoError(t, ledger.Attach(scope, store))
	return recorder, ledger, store
}

func TestRecorder_GeneratesOrderID(t *testing.T) {
	ctx := context.Background()
	recorder, ledger, _ := setupLedger(t)

	id, err := recorder.Record(ctx, completedOrder("u1", "b1", "Dune", 299))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got := ledger.Orders()
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].OrderID)
	assert.Equal(t, "u1", got[0].UserID)
	assert.Equal(t, 299.0, got[0].BookPrice)
	assert.Equal(t, entities.OrderStatusCompleted, got[0].Status)
}

func TestRecorder_KeepsExplicitOrderID(t *testing.T) {
	ctx := context.Background()
	recorder, _, _ := setupLedger(t)

	order := completedOrder("u1", "b1", "Dune", 299)
	order.OrderID = "ord-42"
	id, err := recorder.Record(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, "ord-42", id)
}

func TestRecorder_OnRecordHook(t *testing.T) {
	ctx := context.Background()
	recorder, _, _ := setupLedger(t)

	count := 0
	recorder.OnRecord = func() { count++ }

	_, err := recorder.Record(ctx, completedOrder("u1", "b1", "Dune", 299))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLedger_SkipsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	_, ledger, store := setupLedger(t)

	require.NoError(t, store.Write(ctx, "orders/good", map[string]any{
		"orderId": "good", "userId": "u1", "status": "completed",
	}))
	require.NoError(t, store.Write(ctx, "orders/bad", "scalar"))

	got := ledger.Orders()
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].OrderID)
}

func TestLedger_DefaultsMissingFields(t *testing.T) {
	ctx := context.Background()
	_, ledger, store := setupLedger(t)

	// Record with almost everything missing
	require.NoError(t, store.Write(ctx, "orders/o1", map[string]any{"userId": "u1"}))

	got := ledger.Orders()
	require.Len(t, got, 1)
	assert.Equal(t, "o1", got[0].OrderID, "falls back to the child key")
	assert.Equal(t, entities.OrderStatusPending, got[0].Status)
	assert.Zero(t, got[0].BookPrice)
}

func TestLedger_Sales(t *testing.T) {
	ctx := context.Background()
	recorder, ledger, _ := setupLedger(t)

	_, err := recorder.Record(ctx, completedOrder("u1", "b1", "Dune", 299))
	require.NoError(t, err)
	_, err = recorder.Record(ctx, completedOrder("u2", "b1", "Dune", 299))
	require.NoError(t, err)
	_, err = recorder.Record(ctx, completedOrder("u1", "b2", "Foundation", 199))
	require.NoError(t, err)

	cancelled := completedOrder("u3", "b1", "Dune", 299)
	cancelled.Status = entities.OrderStatusCancelled
	_, err = recorder.Record(ctx, cancelled)
	require.NoError(t, err)

	summary := ledger.Sales()
	assert.Equal(t, 797.0, summary.TotalRevenue)
	assert.Equal(t, 3, summary.TotalOrders)
	require.Len(t, summary.Books, 2)

	byID := make(map[string]BookSales)
	for _, row := range summary.Books {
		byID[row.BookID] = row
	}
	assert.Equal(t, 2, byID["b1"].Count)
	assert.Equal(t, 598.0, byID["b1"].Revenue)
	assert.Equal(t, 1, byID["b2"].Count)
	assert.Equal(t, 199.0, byID["b2"].Revenue)
}

func TestLedger_SalesEmpty(t *testing.T) {
	_, ledger, _ := setupLedger(t)
	summary := ledger.Sales()
	assert.Zero(t, summary.TotalRevenue)
	assert.Zero(t, summary.TotalOrders)
	assert.Empty(t, summary.Books)
}
