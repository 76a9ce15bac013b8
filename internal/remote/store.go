// Package remote defines the contract of the hierarchical key-path store the
// storefront synchronizes against, plus the snapshot and raw-value types
// shared by every consumer. Two implementations ship with the repo: an
// in-memory store (this package) and a SQLite-backed one (sqlitestore).
package remote

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// SnapshotFunc receives a full, point-in-time read of the subscribed subtree.
// Callbacks run on the writing goroutine; per-path delivery order matches
// write order, but nothing is guaranteed across different paths. Callbacks
// must not call back into the store.
type SnapshotFunc func(Snapshot)

// ErrorFunc receives a listener-level error (e.g. a cancelled listener).
// Consumers keep their last good snapshot when this fires.
type ErrorFunc func(error)

// CancelFunc detaches a subscription. Safe to call more than once.
type CancelFunc func()

// Store is an async key-path-addressable store with child-level listeners.
// Paths are slash-separated, e.g. "carts/u1/book42".
type Store interface {
	// Read returns the snapshot of the subtree at path. A missing path
	// yields a snapshot whose Exists() is false, not an error.
	Read(ctx context.Context, path string) (Snapshot, error)

	// Write replaces the subtree at path with value.
	Write(ctx context.Context, path string, value any) error

	// Delete removes the subtree at path. Deleting an absent path is a no-op.
	Delete(ctx context.Context, path string) error

	// Push writes value under a new generated child key of path and returns
	// the key. Generated keys sort chronologically.
	Push(ctx context.Context, path string, value any) (string, error)

	// Subscribe attaches a listener to path. The current snapshot is
	// delivered immediately, then again after every overlapping write.
	Subscribe(path string, onSnapshot SnapshotFunc, onError ErrorFunc) (CancelFunc, error)
}

// Snapshot is a point-in-time read of a subtree. Key is the last path
// segment (the child key a record was stored under).
type Snapshot struct {
	Key      string
	Value    Value
	children []Snapshot
}

// Exists reports whether anything was stored at the snapshot's path.
func (s Snapshot) Exists() bool {
	return !s.Value.IsMissing()
}

// Children returns the child snapshots in key order. Generated child keys
// sort chronologically, so key order is insertion order.
func (s Snapshot) Children() []Snapshot {
	return s.children
}

// Child returns the named child, or an empty snapshot.
func (s Snapshot) Child(key string) Snapshot {
	for _, c := range s.children {
		if c.Key == key {
			return c
		}
	}
	return Snapshot{Key: key}
}

// NewSnapshot builds a snapshot tree from a raw value. Exposed so store
// implementations and tests can construct deliveries.
func NewSnapshot(key string, raw any) Snapshot {
	s := Snapshot{Key: key, Value: NewValue(raw)}
	m, ok := raw.(map[string]any)
	if !ok {
		return s
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s.children = make([]Snapshot, 0, len(keys))
	for _, k := range keys {
		s.children = append(s.children, NewSnapshot(k, m[k]))
	}
	return s
}

// Join assembles a path from segments, skipping empties.
func Join(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func lastSegment(path string) string {
	parts := splitPath(path)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// overlaps reports whether a write at wrote is visible to a listener at sub:
// either path is an ancestor of (or equal to) the other.
func overlaps(sub, wrote string) bool {
	return sub == wrote ||
		strings.HasPrefix(wrote, sub+"/") ||
		strings.HasPrefix(sub, wrote+"/")
}

// hub tracks subscriptions. Shared by the store implementations so they only
// differ in how the tree is persisted.
type hub struct {
	mu   sync.Mutex
	subs map[int]*subscriber
	next int
}

type subscriber struct {
	path       string
	onSnapshot SnapshotFunc
	onError    ErrorFunc
}

func newHub() *hub {
	return &hub{subs: make(map[int]*subscriber)}
}

func (h *hub) add(path string, onSnapshot SnapshotFunc, onError ErrorFunc) (int, CancelFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.subs[id] = &subscriber{path: path, onSnapshot: onSnapshot, onError: onError}
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
	return id, cancel
}

// affected returns the subscribers overlapping a written path.
func (h *hub) affected(wrote string) []*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*subscriber
	for _, s := range h.subs {
		if overlaps(s.path, wrote) {
			out = append(out, s)
		}
	}
	return out
}
