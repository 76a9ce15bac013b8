package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svvaap/bookhive/internal/orders"
	"github.com/svvaap/bookhive/internal/remote"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func seededLedger() *orders.Ledger {
	ledger := orders.NewLedger()
	ledger.LoadSnapshot(remote.NewSnapshot(orders.BasePath, map[string]any{
		"o1": map[string]any{
			"orderId": "o1", "userId": "u1", "bookId": "b1",
			"bookTitle": "Dune", "bookPrice": 299.0, "status": "completed",
		},
		"o2": map[string]any{
			"orderId": "o2", "userId": "u2", "bookId": "b1",
			"bookTitle": "Dune", "bookPrice": 299.0, "status": "completed",
		},
		"o3": map[string]any{
			"orderId": "o3", "userId": "u1", "bookId": "b2",
			"bookTitle": "Foundation", "bookPrice": 199.0, "status": "cancelled",
		},
	}))
	return ledger
}

func TestRollup_PublishesSummary(t *testing.T) {
	store := remote.NewMemoryStore()
	s := NewSalesRollupScheduler(seededLedger(), store, RollupConfig{Enabled: true, Schedule: "0 * * * *"})

	s.runRollup()

	snap, err := store.Read(context.Background(), RollupPath)
	require.NoError(t, err)
	require.True(t, snap.Exists())

	assert.Equal(t, 598.0, snap.Value.Child("totalRevenue").FloatOr(-1))
	assert.Equal(t, 2.0, snap.Value.Child("totalOrders").FloatOr(-1))
	assert.NotEmpty(t, snap.Value.Child("generatedAt").StringOr(""))

	dune := snap.Value.Child("books").Child("b1")
	assert.Equal(t, "Dune", dune.Child("title").StringOr(""))
	assert.Equal(t, 2.0, dune.Child("count").FloatOr(-1))
	assert.Equal(t, 598.0, dune.Child("revenue").FloatOr(-1))

	// The cancelled order for b2 must not surface in the rollup.
	assert.True(t, snap.Value.Child("books").Child("b2").IsMissing())
}

func TestRollup_EmptyLedger(t *testing.T) {
	store := remote.NewMemoryStore()
	s := NewSalesRollupScheduler(orders.NewLedger(), store, RollupConfig{Enabled: true, Schedule: "0 * * * *"})

	s.runRollup()

	snap, err := store.Read(context.Background(), RollupPath)
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.Value.Child("totalRevenue").FloatOr(-1))
	assert.Equal(t, 0.0, snap.Value.Child("totalOrders").FloatOr(-1))
}

func TestScheduler_StartStop(t *testing.T) {
	store := remote.NewMemoryStore()
	s := NewSalesRollupScheduler(orders.NewLedger(), store, RollupConfig{Enabled: true, Schedule: "0 * * * *"})

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.NotNil(t, s.GetNextRunTime())

	// Starting again is a no-op.
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())

	// Stopping twice is safe.
	s.Stop()
}

func TestScheduler_DisabledNeverRuns(t *testing.T) {
	store := remote.NewMemoryStore()
	s := NewSalesRollupScheduler(orders.NewLedger(), store, RollupConfig{Enabled: false, Schedule: "0 * * * *"})

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	store := remote.NewMemoryStore()
	s := NewSalesRollupScheduler(orders.NewLedger(), store, RollupConfig{Enabled: true, Schedule: "not a schedule"})

	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestScheduler_ContextCancelStops(t *testing.T) {
	store := remote.NewMemoryStore()
	s := NewSalesRollupScheduler(orders.NewLedger(), store, RollupConfig{Enabled: true, Schedule: "0 * * * *"})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	require.True(t, s.IsRunning())

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, waitFor, tick)
}
