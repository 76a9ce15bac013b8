package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/svvaap/bookhive/internal/entities"
	"github.com/svvaap/bookhive/internal/orders"
)

// OrdersController serves order history and sales aggregates from the
// replicated order ledger.
type OrdersController struct {
	ledger *orders.Ledger
}

func NewOrdersController(ledger *orders.Ledger) *OrdersController {
	return &OrdersController{ledger: ledger}
}

// ListOrders returns the caller's orders, newest first.
func (controller *OrdersController) ListOrders(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	all := controller.ledger.Orders()
	mine := make([]entities.Order, 0)
	for _, o := range all {
		if o.UserID == sess.UserID {
			mine = append(mine, o)
		}
	}
	// Ledger order is chronological; show newest first.
	for i, j := 0, len(mine)-1; i < j; i, j = i+1, j-1 {
		mine[i], mine[j] = mine[j], mine[i]
	}

	c.IndentedJSON(http.StatusOK, gin.H{"orders": mine, "count": len(mine)})
}

// SalesReport aggregates completed orders per book. Admin only.
func (controller *OrdersController) SalesReport(c *gin.Context) {
	summary := controller.ledger.Sales()
	c.IndentedJSON(http.StatusOK, summary)
}
