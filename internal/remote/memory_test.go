package remote

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_WriteReadDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.Write(ctx, "ebooks/b1", map[string]any{"title": "Dune", "price": float64(299)})
	require.NoError(t, err)

	snap, err := store.Read(ctx, "ebooks/b1")
	require.NoError(t, err)
	assert.True(t, snap.Exists())
	assert.Equal(t, "b1", snap.Key)
	assert.Equal(t, "Dune", snap.Value.Child("title").StringOr(""))

	// Field-level write overrides inside the record
	require.NoError(t, store.Write(ctx, "ebooks/b1/title", "Dune Messiah"))
	snap, err = store.Read(ctx, "ebooks/b1")
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", snap.Value.Child("title").StringOr(""))

	require.NoError(t, store.Delete(ctx, "ebooks/b1"))
	snap, err = store.Read(ctx, "ebooks/b1")
	require.NoError(t, err)
	assert.False(t, snap.Exists())

	// Deleting an absent path is a no-op
	assert.NoError(t, store.Delete(ctx, "ebooks/никогда"))
}

func TestMemoryStore_EmptyPathRejected(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	assert.Error(t, store.Write(ctx, "", "x"))
	assert.Error(t, store.Delete(ctx, "/"))
}

func TestMemoryStore_MissingPathReadsAsAbsent(t *testing.T) {
	snap, err := NewMemoryStore().Read(context.Background(), "carts/u1")
	require.NoError(t, err)
	assert.False(t, snap.Exists())
	assert.Empty(t, snap.Children())
}

func TestMemoryStore_PushKeysSortChronologically(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var keys []string
	for i := 0; i < 5; i++ {
		key, err := store.Push(ctx, "orders/u1", map[string]any{"n": float64(i)})
		require.NoError(t, err)
		keys = append(keys, key)
	}

	assert.True(t, sort.StringsAreSorted(keys), "push keys should sort in insertion order: %v", keys)

	snap, err := store.Read(ctx, "orders/u1")
	require.NoError(t, err)
	children := snap.Children()
	require.Len(t, children, 5)
	for i, child := range children {
		assert.Equal(t, keys[i], child.Key)
		assert.Equal(t, float64(i), child.Value.Child("n").FloatOr(-1))
	}
}

func TestMemoryStore_SubscribeDeliversInitialSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Write(ctx, "ebooks/b1", map[string]any{"title": "Dune"}))

	var got []Snapshot
	cancel, err := store.Subscribe("ebooks", func(s Snapshot) {
		got = append(got, s)
	}, nil)
	require.NoError(t, err)
	defer cancel()

	require.Len(t, got, 1)
	assert.Equal(t, "Dune", got[0].Child("b1").Value.Child("title").StringOr(""))
}

func TestMemoryStore_SubscribeSeesOverlappingWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var got []Snapshot
	cancel, err := store.Subscribe("carts/u1", func(s Snapshot) {
		got = append(got, s)
	}, nil)
	require.NoError(t, err)
	defer cancel()

	// Descendant write
	require.NoError(t, store.Write(ctx, "carts/u1/b1", map[string]any{"title": "Dune"}))
	// Ancestor write
	require.NoError(t, store.Write(ctx, "carts", map[string]any{"u1": map[string]any{"b2": true}}))
	// Unrelated write must not notify
	require.NoError(t, store.Write(ctx, "carts/u2/b9", true))

	require.Len(t, got, 3)
	assert.False(t, got[0].Exists())
	assert.True(t, got[1].Child("b1").Exists())
	assert.True(t, got[2].Child("b2").Exists())
	assert.False(t, got[2].Child("b1").Exists())
}

func TestMemoryStore_CancelStopsDelivery(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	count := 0
	cancel, err := store.Subscribe("ebooks", func(Snapshot) { count++ }, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	cancel()
	cancel() // safe to call twice

	require.NoError(t, store.Write(ctx, "ebooks/b1", "x"))
	assert.Equal(t, 1, count, "no snapshots after cancel")
}

func TestMemoryStore_CancelListenersDeliversError(t *testing.T) {
	store := NewMemoryStore()

	var got error
	_, err := store.Subscribe("purchases/u1", func(Snapshot) {}, func(e error) { got = e })
	require.NoError(t, err)

	boom := errors.New("permission revoked")
	store.CancelListeners("purchases/u1", boom)
	assert.Equal(t, boom, got)
}

func TestMemoryStore_SnapshotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	original := map[string]any{"title": "Dune"}
	require.NoError(t, store.Write(ctx, "ebooks/b1", original))

	// Mutating the written map must not leak into the store
	original["title"] = "mutated"
	snap, err := store.Read(ctx, "ebooks/b1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", snap.Value.Child("title").StringOr(""))

	// Mutating a read must not leak either
	m := snap.Value.Raw().(map[string]any)
	m["title"] = "mutated again"
	snap, err = store.Read(ctx, "ebooks/b1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", snap.Value.Child("title").StringOr(""))
}
