package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/svvaap/bookhive/internal/cart"
	"github.com/svvaap/bookhive/internal/catalog"
	"github.com/svvaap/bookhive/internal/entitlements"
)

// CartController exposes the per-user cart. All routes require a session.
type CartController struct {
	carts   *cart.Store
	catalog *catalog.Catalog
	ents    *entitlements.Store
}

func NewCartController(carts *cart.Store, cat *catalog.Catalog, ents *entitlements.Store) *CartController {
	return &CartController{carts: carts, catalog: cat, ents: ents}
}

// GetCart returns the cart entries and the recomputed total.
func (controller *CartController) GetCart(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	items, err := controller.carts.Items(sess)
	if err != nil {
		respondInternalError(c, err, "cart items")
		return
	}
	total, err := controller.carts.CurrentTotal(sess)
	if err != nil {
		respondInternalError(c, err, "cart total")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
		"total": total,
	})
}

type addItemRequest struct {
	BookID string `json:"book_id" binding:"required"`
}

// AddItem puts a catalog book into the cart. Books the user already owns
// are rejected; re-adding a book already in the cart is an overwrite.
func (controller *CartController) AddItem(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required", "invalid_request")
		return
	}

	book, found := controller.catalog.Get(req.BookID)
	if !found {
		respondNotFound(c, "book")
		return
	}

	if controller.ents.IsPurchased(sess, book.ID) {
		respondError(c, http.StatusConflict, "book is already owned", "already_owned")
		return
	}

	if err := controller.carts.AddItem(c.Request.Context(), sess, book); err != nil {
		if isUnauthenticated(err) {
			respondUnauthenticated(c)
			return
		}
		respondInternalError(c, err, "add to cart")
		return
	}

	respondSuccess(c, "added to cart")
}

// RemoveItem deletes one entry. Removing an absent entry still succeeds.
func (controller *CartController) RemoveItem(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	if err := controller.carts.RemoveItem(c.Request.Context(), sess, c.Param("bookId")); err != nil {
		if isUnauthenticated(err) {
			respondUnauthenticated(c)
			return
		}
		respondInternalError(c, err, "remove from cart")
		return
	}

	respondSuccess(c, "removed from cart")
}
