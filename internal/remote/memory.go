package remote

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryStore is the in-process Store implementation. It backs tests and
// local development, and defines the delivery semantics the SQLite-backed
// store mirrors: snapshots for a path are delivered in write order, on the
// writer's goroutine, with no ordering across paths.
type MemoryStore struct {
	mu   sync.Mutex
	root map[string]any
	hub  *hub
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		root: make(map[string]any),
		hub:  newHub(),
	}
}

func (s *MemoryStore) Read(_ context.Context, path string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewSnapshot(lastSegment(path), deepClone(s.get(path))), nil
}

func (s *MemoryStore) Write(_ context.Context, path string, value any) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return fmt.Errorf("write: empty path")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(parts, deepClone(value))
	s.notify(Join(parts...))
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return fmt.Errorf("delete: empty path")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(parts)
	s.notify(Join(parts...))
	return nil
}

func (s *MemoryStore) Push(ctx context.Context, path string, value any) (string, error) {
	key := PushKey()
	if err := s.Write(ctx, Join(path, key), value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *MemoryStore) Subscribe(path string, onSnapshot SnapshotFunc, onError ErrorFunc) (CancelFunc, error) {
	// Hold the tree lock across registration and the initial delivery so no
	// concurrent write can slip between them.
	s.mu.Lock()
	defer s.mu.Unlock()
	_, cancel := s.hub.add(path, onSnapshot, onError)
	onSnapshot(NewSnapshot(lastSegment(path), deepClone(s.get(path))))
	return cancel, nil
}

// CancelListeners delivers err to every listener overlapping path, the way
// the real store cancels a listener whose read permission was revoked.
// Test and fault-injection hook.
func (s *MemoryStore) CancelListeners(path string, err error) {
	for _, sub := range s.hub.affected(path) {
		if sub.onError != nil {
			sub.onError(err)
		}
	}
}

// notify is called with s.mu held.
func (s *MemoryStore) notify(wrote string) {
	for _, sub := range s.hub.affected(wrote) {
		sub.onSnapshot(NewSnapshot(lastSegment(sub.path), deepClone(s.get(sub.path))))
	}
}

func (s *MemoryStore) get(path string) any {
	var cur any = s.root
	for _, part := range splitPath(path) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	if m, ok := cur.(map[string]any); ok && len(m) == 0 {
		return nil
	}
	return cur
}

func (s *MemoryStore) set(parts []string, value any) {
	cur := s.root
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

func (s *MemoryStore) remove(parts []string) {
	cur := s.root
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, parts[len(parts)-1])
}

func deepClone(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, child := range m {
		out[k] = deepClone(child)
	}
	return out
}

var pushSeq atomic.Uint64

// PushKey generates a child key that sorts chronologically, so key order
// doubles as insertion order for pushed records.
func PushKey() string {
	return fmt.Sprintf("-%012x%06x", time.Now().UnixMilli(), pushSeq.Add(1)&0xffffff)
}
