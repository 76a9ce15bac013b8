// Package cart keeps each user's cart synchronized against the remote store.
// The remote subtree carts/{userId} is authoritative: mutations are written
// through to the store and the local view is rebuilt wholesale from every
// delivered snapshot, never merged incrementally.
package cart

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

// BasePath is the remote subtree holding all carts.
const BasePath = "carts"

type userCart struct {
	items map[string]entities.CartItem
	order []string // bookIDs in snapshot (insertion) order
}

// Store is the per-session cart view. One instance serves the whole process;
// state is partitioned by user.
type Store struct {
	store remote.Store

	mu    sync.RWMutex
	users map[string]*userCart
}

// New creates a cart store backed by the given remote store.
func New(store remote.Store) *Store {
	return &Store{store: store, users: make(map[string]*userCart)}
}

// Attach subscribes the user's cart subtree for the lifetime of the scope.
// Operations on a user whose cart was never attached see an empty cart.
func (s *Store) Attach(scope *lifecycle.Scope, userID string) error {
	if userID == "" {
		return session.ErrUnauthenticated
	}
	path := remote.Join(BasePath, userID)
	return scope.Subscribe(s.store, path, func(snap remote.Snapshot) {
		s.applySnapshot(userID, snap)
	}, func(err error) {
		// Last good snapshot stays in place.
		log.Printf("WARNING: cart listener error for user %s: %v", userID, err)
	})
}

// applySnapshot rebuilds the user's cart from scratch. Prices are coerced
// the same way book records are, since legacy writers stored them as strings.
func (s *Store) applySnapshot(userID string, snap remote.Snapshot) {
	cart := &userCart{items: make(map[string]entities.CartItem)}
	for _, child := range snap.Children() {
		item := entities.CartItem{
			BookID:        child.Key,
			Title:         child.Value.Child("title").StringOr(""),
			Author:        child.Value.Child("author").StringOr(""),
			Price:         child.Value.Child("price").FloatOr(0),
			CoverImageURL: child.Value.Child("coverImageUrl").StringOr(""),
		}
		cart.items[item.BookID] = item
		cart.order = append(cart.order, item.BookID)
	}

	s.mu.Lock()
	s.users[userID] = cart
	s.mu.Unlock()
}

// AddItem upserts the denormalized snapshot of a book into the user's cart.
// Re-adding the same book overwrites; there is no quantity to increment.
func (s *Store) AddItem(ctx context.Context, sess session.Session, book entities.Book) error {
	userID, err := sess.Require()
	if err != nil {
		return err
	}
	record := map[string]any{
		"title":         book.Title,
		"author":        book.Author,
		"price":         book.Price,
		"coverImageUrl": book.CoverImageURL,
	}
	if err := s.store.Write(ctx, remote.Join(BasePath, userID, book.ID), record); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	return nil
}

// RemoveItem deletes a cart entry. Removing an absent entry is a no-op.
func (s *Store) RemoveItem(ctx context.Context, sess session.Session, bookID string) error {
	userID, err := sess.Require()
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, remote.Join(BasePath, userID, bookID)); err != nil {
		return fmt.Errorf("remove from cart: %w", err)
	}
	return nil
}

// Clear removes every entry for the user. Called by the checkout
// orchestrator after entitlements have been granted, and nowhere else.
func (s *Store) Clear(ctx context.Context, sess session.Session) error {
	userID, err := sess.Require()
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, remote.Join(BasePath, userID)); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Items returns the user's cart entries in insertion order.
func (s *Store) Items(sess session.Session) ([]entities.CartItem, error) {
	userID, err := sess.Require()
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cart, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	out := make([]entities.CartItem, 0, len(cart.order))
	for _, id := range cart.order {
		out = append(out, cart.items[id])
	}
	return out, nil
}

// CurrentTotal sums the prices of the current entries. The total is
// recomputed on every call from the latest snapshot, never accumulated, so
// it cannot drift under partial updates.
func (s *Store) CurrentTotal(sess session.Session) (float64, error) {
	items, err := s.Items(sess)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, item := range items {
		total += item.Price
	}
	return total, nil
}

// BookIDs returns the ids currently in the user's cart, insertion ordered.
func (s *Store) BookIDs(sess session.Session) ([]string, error) {
	items, err := s.Items(sess)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.BookID)
	}
	return ids, nil
}
