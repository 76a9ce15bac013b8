package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
)

// PathRecord is a persisted subtree: the JSON value written at a path.
// Reads merge every record overlapping the requested path, shallow paths
// first, so a deeper write (e.g. ebooks/b1/coverImageUrl) overrides the
// field inside an earlier whole-record write at ebooks/b1.
type PathRecord struct {
	Path      string `gorm:"primaryKey;size:512"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (PathRecord) TableName() string {
	return "remote_records"
}

// SQLiteStore is the durable Store implementation. Entitlement writes go
// through here in production, which is what makes a replayed payment
// callback after a restart harmless: the grant is already on disk.
type SQLiteStore struct {
	db *gorm.DB

	// dispatch serializes mutation + notification so per-path snapshot
	// delivery order matches write order.
	dispatch sync.Mutex
	hub      *hub
}

// NewSQLiteStore prepares the schema on an open gorm handle.
func NewSQLiteStore(db *gorm.DB) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&PathRecord{}); err != nil {
		return nil, fmt.Errorf("migrate remote records: %w", err)
	}
	return &SQLiteStore{db: db, hub: newHub()}, nil
}

func (s *SQLiteStore) Read(_ context.Context, path string) (Snapshot, error) {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()
	return s.read(path)
}

func (s *SQLiteStore) Write(_ context.Context, path string, value any) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return fmt.Errorf("write: empty path")
	}
	path = Join(parts...)

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value at %s: %w", path, err)
	}

	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// A write replaces the whole subtree.
		if err := tx.Where("path LIKE ?", path+"/%").Delete(&PathRecord{}).Error; err != nil {
			return err
		}
		return tx.Save(&PathRecord{Path: path, Value: string(raw), UpdatedAt: time.Now()}).Error
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	s.notify(path)
	return nil
}

func (s *SQLiteStore) Delete(_ context.Context, path string) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return fmt.Errorf("delete: empty path")
	}
	path = Join(parts...)

	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("path = ? OR path LIKE ?", path, path+"/%").Delete(&PathRecord{}).Error; err != nil {
			return err
		}
		// The deleted path may live inside an ancestor's JSON blob.
		var ancestors []PathRecord
		if err := tx.Where("? LIKE path || '/%'", path).Find(&ancestors).Error; err != nil {
			return err
		}
		for _, rec := range ancestors {
			var raw any
			if err := json.Unmarshal([]byte(rec.Value), &raw); err != nil {
				continue
			}
			rel := strings.TrimPrefix(path, rec.Path+"/")
			pruned, changed := pruneAt(raw, splitPath(rel))
			if !changed {
				continue
			}
			if pruned == nil {
				if err := tx.Delete(&PathRecord{}, "path = ?", rec.Path).Error; err != nil {
					return err
				}
				continue
			}
			enc, err := json.Marshal(pruned)
			if err != nil {
				return err
			}
			rec.Value = string(enc)
			rec.UpdatedAt = time.Now()
			if err := tx.Save(&rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}

	s.notify(path)
	return nil
}

func (s *SQLiteStore) Push(ctx context.Context, path string, value any) (string, error) {
	key := PushKey()
	if err := s.Write(ctx, Join(path, key), value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *SQLiteStore) Subscribe(path string, onSnapshot SnapshotFunc, onError ErrorFunc) (CancelFunc, error) {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()
	_, cancel := s.hub.add(path, onSnapshot, onError)
	snap, err := s.read(path)
	if err != nil {
		cancel()
		return nil, err
	}
	onSnapshot(snap)
	return cancel, nil
}

// notify is called with dispatch held.
func (s *SQLiteStore) notify(wrote string) {
	for _, sub := range s.hub.affected(wrote) {
		snap, err := s.read(sub.path)
		if err != nil {
			if sub.onError != nil {
				sub.onError(err)
			}
			continue
		}
		sub.onSnapshot(snap)
	}
}

func (s *SQLiteStore) read(path string) (Snapshot, error) {
	path = Join(splitPath(path)...)
	var rows []PathRecord
	q := s.db.Where("path = ? OR path LIKE ? OR ? LIKE path || '/%'", path, path+"/%", path)
	if err := q.Find(&rows).Error; err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", path, err)
	}

	sort.Slice(rows, func(i, j int) bool {
		return len(splitPath(rows[i].Path)) < len(splitPath(rows[j].Path))
	})

	tree := make(map[string]any)
	for _, rec := range rows {
		var raw any
		if err := json.Unmarshal([]byte(rec.Value), &raw); err != nil {
			continue
		}
		mergeAt(tree, splitPath(rec.Path), raw)
	}

	raw := descend(tree, splitPath(path))
	if m, ok := raw.(map[string]any); ok && len(m) == 0 {
		raw = nil
	}
	return NewSnapshot(lastSegment(path), raw), nil
}

// mergeAt deep-sets val at parts inside tree, merging record values instead
// of replacing so deeper rows can override single fields.
func mergeAt(tree map[string]any, parts []string, val any) {
	cur := tree
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[part] = next
		}
		cur = next
	}
	last := parts[len(parts)-1]
	dst, dok := cur[last].(map[string]any)
	src, sok := val.(map[string]any)
	if dok && sok {
		deepMerge(dst, src)
		return
	}
	cur[last] = val
}

func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		if dm, ok := dst[k].(map[string]any); ok {
			if sm, ok := v.(map[string]any); ok {
				deepMerge(dm, sm)
				continue
			}
		}
		dst[k] = v
	}
}

func descend(raw any, parts []string) any {
	cur := raw
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

// pruneAt removes the value at parts. Returns the pruned tree (nil when it
// became empty) and whether anything changed.
func pruneAt(raw any, parts []string) (any, bool) {
	if len(parts) == 0 {
		return nil, true
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return raw, false
	}
	if len(parts) == 1 {
		if _, exists := m[parts[0]]; !exists {
			return raw, false
		}
		delete(m, parts[0])
	} else {
		child, changed := pruneAt(m[parts[0]], parts[1:])
		if !changed {
			return raw, false
		}
		if child == nil {
			delete(m, parts[0])
		} else {
			m[parts[0]] = child
		}
	}
	if len(m) == 0 {
		return nil, true
	}
	return m, true
}
