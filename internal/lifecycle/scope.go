// Package lifecycle scopes remote-store subscriptions to the lifetime of the
// consumer that owns them. The remote store delivers asynchronously, so a
// snapshot can arrive after teardown has begun; the scope samples a liveness
// flag inside the delivered callback, not just at subscribe time, and drops
// the late delivery silently.
package lifecycle

import (
	"errors"
	"sync"

	"github.com/svvaap/bookhive/internal/remote"
)

// ErrScopeClosed is returned when subscribing through a scope that has
// already been torn down.
var ErrScopeClosed = errors.New("subscription scope is closed")

// Scope owns a set of subscriptions and guarantees each one is released
// exactly once when the scope closes.
type Scope struct {
	mu      sync.Mutex
	alive   bool
	cancels []remote.CancelFunc

	// OnDeliver and OnDrop are optional observation hooks (metrics).
	OnDeliver func()
	OnDrop    func()
}

// NewScope creates a live scope.
func NewScope() *Scope {
	return &Scope{alive: true}
}

// Alive reports whether the scope has not been closed. Deliveries consult
// this internally; it is exported for callers that hold work past Close and
// want to skip touching anything the scope owned.
func (s *Scope) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// Subscribe attaches a listener through the scope. Deliveries arriving after
// Close are dropped without reaching the consumer.
func (s *Scope) Subscribe(store remote.Store, path string, onSnapshot remote.SnapshotFunc, onError remote.ErrorFunc) error {
	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return ErrScopeClosed
	}
	s.mu.Unlock()

	wrappedSnap := func(snap remote.Snapshot) {
		if !s.Alive() {
			if s.OnDrop != nil {
				s.OnDrop()
			}
			return
		}
		if s.OnDeliver != nil {
			s.OnDeliver()
		}
		onSnapshot(snap)
	}
	wrappedErr := func(err error) {
		if !s.Alive() {
			if s.OnDrop != nil {
				s.OnDrop()
			}
			return
		}
		if onError != nil {
			onError(err)
		}
	}

	cancel, err := store.Subscribe(path, wrappedSnap, wrappedErr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !s.alive {
		// Closed while we were subscribing; release immediately.
		s.mu.Unlock()
		cancel()
		return ErrScopeClosed
	}
	s.cancels = append(s.cancels, cancel)
	s.mu.Unlock()
	return nil
}

// Close marks the scope dead and releases every subscription. Idempotent.
func (s *Scope) Close() {
	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return
	}
	s.alive = false
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
