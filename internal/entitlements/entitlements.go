// Package entitlements tracks which books each user owns. Ownership is the
// existence of the key purchases/{userId}/{bookId} in the remote store: the
// stored value is not consulted on read, because legacy writers stored true
// in some records and the bookId in others. New grants always write true.
package entitlements

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/svvaap/bookhive/internal/entities"
	"github.com/svvaap/bookhive/internal/lifecycle"
	"github.com/svvaap/bookhive/internal/remote"
	"github.com/svvaap/bookhive/internal/session"
)

// BasePath is the remote subtree holding all purchase sets.
const BasePath = "purchases"

// Store is the per-user purchase set, rebuilt wholesale from every remote
// snapshot. Purchases are permanent: nothing in the application removes a
// key once present.
type Store struct {
	store remote.Store

	mu    sync.RWMutex
	users map[string]map[string]struct{}
}

// New creates an entitlement store backed by the given remote store.
func New(store remote.Store) *Store {
	return &Store{store: store, users: make(map[string]map[string]struct{})}
}

// Attach subscribes the user's purchase subtree for the lifetime of the
// scope.
func (s *Store) Attach(scope *lifecycle.Scope, userID string) error {
	if userID == "" {
		return session.ErrUnauthenticated
	}
	path := remote.Join(BasePath, userID)
	return scope.Subscribe(s.store, path, func(snap remote.Snapshot) {
		s.applySnapshot(userID, snap)
	}, func(err error) {
		log.Printf("WARNING: purchases listener error for user %s: %v", userID, err)
	})
}

func (s *Store) applySnapshot(userID string, snap remote.Snapshot) {
	owned := make(map[string]struct{})
	for _, child := range snap.Children() {
		// Existence of the key is the fact of ownership; a falsy stored
		// value still counts.
		owned[child.Key] = struct{}{}
	}
	s.mu.Lock()
	s.users[userID] = owned
	s.mu.Unlock()
}

// IsPurchased reports ownership. Anonymous sessions own nothing.
func (s *Store) IsPurchased(sess session.Session, bookID string) bool {
	if !sess.Authenticated() {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[sess.UserID][bookID]
	return ok
}

// Grant durably records ownership of one book. Granting an already-granted
// book rewrites the same key: a no-op, not an error.
func (s *Store) Grant(ctx context.Context, sess session.Session, bookID string) error {
	userID, err := sess.Require()
	if err != nil {
		return err
	}
	if err := s.store.Write(ctx, remote.Join(BasePath, userID, bookID), true); err != nil {
		return fmt.Errorf("grant %s: %w", bookID, err)
	}
	return nil
}

// GrantMany grants a batch of books, used after a cart checkout. Each grant
// is independently idempotent; the first failed write aborts and surfaces so
// the caller never clears a cart whose entitlements did not all land.
func (s *Store) GrantMany(ctx context.Context, sess session.Session, bookIDs []string) error {
	for _, id := range bookIDs {
		if err := s.Grant(ctx, sess, id); err != nil {
			return err
		}
	}
	return nil
}

// CanRead reports whether the user may open the book. Derived purely from
// the purchase set.
func (s *Store) CanRead(sess session.Session, book entities.Book) bool {
	return s.IsPurchased(sess, book.ID)
}

// CanBuy is the exact complement of CanRead: the UI never shows both read
// and buy affordances for the same book and user.
func (s *Store) CanBuy(sess session.Session, book entities.Book) bool {
	return !s.CanRead(sess, book)
}
