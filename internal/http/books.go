package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/svvaap/bookhive/internal/catalog"
	"github.com/svvaap/bookhive/internal/entities"
	"github.com/svvaap/bookhive/internal/entitlements"
)

// BooksController serves the catalog. Listing and detail are public;
// ownership flags are filled in when the request carries a user.
type BooksController struct {
	catalog *catalog.Catalog
	ents    *entitlements.Store
}

func NewBooksController(cat *catalog.Catalog, ents *entitlements.Store) *BooksController {
	return &BooksController{catalog: cat, ents: ents}
}

// bookView is a catalog entry plus the caller's ownership flags.
type bookView struct {
	entities.Book
	Purchased bool `json:"purchased"`
	CanRead   bool `json:"can_read"`
	CanBuy    bool `json:"can_buy"`
}

func (controller *BooksController) view(c *gin.Context, book entities.Book) bookView {
	sess := CurrentSession(c)
	canRead := controller.ents.CanRead(sess, book)
	return bookView{
		Book:      book,
		Purchased: controller.ents.IsPurchased(sess, book.ID),
		CanRead:   canRead,
		CanBuy:    !canRead,
	}
}

// ListBooks returns the catalog, optionally filtered.
// Query parameters: q (title/author substring), category, sort=latest.
func (controller *BooksController) ListBooks(c *gin.Context) {
	var books []entities.Book

	query := strings.TrimSpace(c.Query("q"))
	if query != "" {
		books = controller.catalog.Search(query)
	} else if c.Query("sort") == "latest" {
		books = controller.catalog.LatestFirst()
	} else {
		books = controller.catalog.Books()
	}

	if category := strings.TrimSpace(c.Query("category")); category != "" {
		filtered := books[:0:0]
		for _, b := range books {
			if strings.EqualFold(b.Category, category) {
				filtered = append(filtered, b)
			}
		}
		books = filtered
	}

	views := make([]bookView, 0, len(books))
	for _, b := range books {
		views = append(views, controller.view(c, b))
	}

	c.IndentedJSON(http.StatusOK, gin.H{"books": views, "count": len(views)})
}

// GetBook returns a single catalog entry with ownership flags.
func (controller *BooksController) GetBook(c *gin.Context) {
	book, ok := controller.catalog.Get(c.Param("id"))
	if !ok {
		respondNotFound(c, "book")
		return
	}
	c.IndentedJSON(http.StatusOK, controller.view(c, book))
}

// GetBookContent gates access to the book file. The route requires a
// logged-in user; a user who has not purchased the book gets 402.
func (controller *BooksController) GetBookContent(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	book, found := controller.catalog.Get(c.Param("id"))
	if !found {
		respondNotFound(c, "book")
		return
	}

	if !controller.ents.CanRead(sess, book) {
		respondError(c, http.StatusPaymentRequired, "book has not been purchased", "purchase_required")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"book_id":  book.ID,
		"file_url": book.FileURL,
	})
}
