package catalog

import (
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/svvaap/bookhive/internal/entities"
	"github.com/svvaap/bookhive/internal/lifecycle"
	"github.com/svvaap/bookhive/internal/remote"
)

// Path is the remote subtree holding the canonical book set.
const Path = "ebooks"

// Catalog is the read-mostly view of all known books. Each remote snapshot
// replaces the whole set atomically; a listener error leaves the last good
// snapshot in place.
type Catalog struct {
	mu    sync.RWMutex
	books []entities.Book
	byID  map[string]int

	// OnSkip fires once per child record dropped by normalization.
	OnSkip func()
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{byID: make(map[string]int)}
}

// Attach subscribes the catalog to the remote book set for the lifetime of
// the scope.
func (c *Catalog) Attach(scope *lifecycle.Scope, store remote.Store) error {
	return scope.Subscribe(store, Path, c.LoadSnapshot, func(err error) {
		// Keep serving the last good snapshot.
		log.Printf("WARNING: catalog listener error: %v", err)
	})
}

// LoadSnapshot normalizes every child of the snapshot and replaces the
// in-memory set. A child that fails normalization is skipped, not fatal:
// the rest of the catalog still loads.
func (c *Catalog) LoadSnapshot(snap remote.Snapshot) {
	children := snap.Children()
	books := make([]entities.Book, 0, len(children))
	byID := make(map[string]int, len(children))

	for _, child := range children {
		book := Normalize(child.Value)
		if book == nil {
			log.Printf("WARNING: skipping malformed book record %q", child.Key)
			if c.OnSkip != nil {
				c.OnSkip()
			}
			continue
		}
		book.ID = child.Key
		byID[book.ID] = len(books)
		books = append(books, *book)
	}

	c.mu.Lock()
	c.books = books
	c.byID = byID
	c.mu.Unlock()
}

// Books returns every known book in catalog (insertion) order.
func (c *Catalog) Books() []entities.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]entities.Book, len(c.books))
	copy(out, c.books)
	return out
}

// Get looks a book up by id.
func (c *Catalog) Get(id string) (entities.Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return entities.Book{}, false
	}
	return c.books[i], true
}

// Search matches query case-insensitively against title or author. The
// empty query returns the full set. Result order is the catalog's natural
// order, not re-sorted.
func (c *Catalog) Search(query string) []entities.Book {
	if query == "" {
		return c.Books()
	}
	q := strings.ToLower(query)

	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []entities.Book
	for _, b := range c.books {
		if strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q) {
			out = append(out, b)
		}
	}
	return out
}

// FilterByCategory returns books whose category matches exactly, ignoring
// case.
func (c *Catalog) FilterByCategory(category string) []entities.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []entities.Book
	for _, b := range c.books {
		if strings.EqualFold(b.Category, category) {
			out = append(out, b)
		}
	}
	return out
}

// LatestFirst returns all books newest first. The upload date is fixed-width
// ISO-8601, so lexical comparison orders correctly; books with no date sort
// last keeping their relative order.
func (c *Catalog) LatestFirst() []entities.Book {
	out := c.Books()
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].UploadDate, out[j].UploadDate
		if di == "" {
			return false
		}
		if dj == "" {
			return true
		}
		return di > dj
	})
	return out
}
