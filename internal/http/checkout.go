package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/svvaap/bookhive/internal/catalog"
	"github.com/svvaap/bookhive/internal/checkout"
	"github.com/svvaap/bookhive/internal/payment"
)

// CheckoutController drives the purchase flow: starting a checkout,
// polling its status and receiving the provider callback.
type CheckoutController struct {
	orchestrator *checkout.Orchestrator
	catalog      *catalog.Catalog
}

func NewCheckoutController(orch *checkout.Orchestrator, cat *catalog.Catalog) *CheckoutController {
	return &CheckoutController{orchestrator: orch, catalog: cat}
}

type startCheckoutRequest struct {
	Kind   string `json:"kind"` // "cart" (default) or "single"
	BookID string `json:"book_id,omitempty"`
}

// StartCheckout opens a payment for the whole cart or a single book.
func (controller *CheckoutController) StartCheckout(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	var req startCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondBadRequest(c, "malformed request body", "invalid_request")
		return
	}

	intent := checkout.Intent{Kind: checkout.KindCart}
	switch req.Kind {
	case "", string(checkout.KindCart):
	case string(checkout.KindSingle):
		book, found := controller.catalog.Get(req.BookID)
		if !found {
			respondNotFound(c, "book")
			return
		}
		intent = checkout.Intent{Kind: checkout.KindSingle, BookID: book.ID, Amount: book.Price}
	default:
		respondBadRequest(c, "kind must be cart or single", "invalid_request")
		return
	}

	co, err := controller.orchestrator.Start(c.Request.Context(), sess, intent)
	if err != nil {
		switch {
		case isUnauthenticated(err):
			respondUnauthenticated(c)
		case errors.Is(err, checkout.ErrEmptyCart):
			respondBadRequest(c, "cart is empty", "empty_cart")
		case errors.Is(err, checkout.ErrInvalidAmount):
			respondBadRequest(c, "amount must be positive", "invalid_amount")
		case errors.Is(err, checkout.ErrConcurrentCheckout):
			respondError(c, http.StatusConflict, "a checkout is already in progress", "checkout_in_progress")
		default:
			respondInternalError(c, err, "start checkout")
		}
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"checkout": co})
}

// CheckoutStatus returns the caller's latest checkout.
func (controller *CheckoutController) CheckoutStatus(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	co, found := controller.orchestrator.Status(sess)
	if !found {
		respondError(c, http.StatusNotFound, "no checkout in progress", "no_active_checkout")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"checkout": co})
}

type checkoutCallbackRequest struct {
	Status    string `json:"status" binding:"required"` // "success" or "error"
	PaymentID string `json:"payment_id,omitempty"`
	Code      *int   `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// CheckoutCallback receives the provider outcome reported by the client.
// Replaying a success for an already-settled checkout is a no-op.
func (controller *CheckoutController) CheckoutCallback(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	var req checkoutCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "status is required", "invalid_request")
		return
	}

	var (
		co  checkout.Checkout
		err error
	)
	switch req.Status {
	case "success":
		if req.PaymentID == "" {
			respondBadRequest(c, "payment_id is required on success", "invalid_request")
			return
		}
		co, err = controller.orchestrator.HandleProviderSuccess(sess, req.PaymentID)
	case "error":
		code := payment.CodeNetworkError
		if req.Code != nil {
			code = *req.Code
		}
		co, err = controller.orchestrator.HandleProviderError(sess, code, req.Message)
	default:
		respondBadRequest(c, "status must be success or error", "invalid_request")
		return
	}

	if err != nil {
		switch {
		case isUnauthenticated(err):
			respondUnauthenticated(c)
		case errors.Is(err, checkout.ErrNoActiveCheckout):
			respondError(c, http.StatusNotFound, "no checkout in progress", "no_active_checkout")
		default:
			respondInternalError(c, err, "checkout callback")
		}
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"checkout": co})
}
