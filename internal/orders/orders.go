// Package orders keeps the append-only transaction history used by the
// reporting screens. Orders never feed access control; that is the purchase
// set's job.
package orders

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/svvaap/bookhive/internal/entities"
	"github.com/svvaap/bookhive/internal/lifecycle"
	"github.com/svvaap/bookhive/internal/remote"
)

// BasePath is the remote subtree holding order records.
const BasePath = "orders"

// Recorder appends completed transactions at orders/{orderId}.
type Recorder struct {
	store remote.Store

	// OnRecord fires after a successful append (metrics).
	OnRecord func()
}

// NewRecorder creates a recorder backed by the given remote store.
func NewRecorder(store remote.Store) *Recorder {
	return &Recorder{store: store}
}

// Record writes the order. An empty OrderID gets a generated one; the id
// used is returned.
func (r *Recorder) Record(ctx context.Context, order entities.Order) (string, error) {
	if order.OrderID == "" {
		order.OrderID = uuid.NewString()
	}
	record := map[string]any{
		"orderId":       order.OrderID,
		"userId":        order.UserID,
		"bookId":        order.BookID,
		"bookTitle":     order.BookTitle,
		"bookAuthor":    order.BookAuthor,
		"bookPrice":     order.BookPrice,
		"orderDate":     order.OrderDate,
		"status":        string(order.Status),
		"paymentMethod": order.PaymentMethod,
	}
	if err := r.store.Write(ctx, remote.Join(BasePath, order.OrderID), record); err != nil {
		return "", fmt.Errorf("record order: %w", err)
	}
	if r.OnRecord != nil {
		r.OnRecord()
	}
	return order.OrderID, nil
}

// Ledger is the snapshot-synchronized view over all orders.
type Ledger struct {
	mu     sync.RWMutex
	orders []entities.Order
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Attach subscribes the ledger to the orders subtree for the lifetime of the
// scope.
func (l *Ledger) Attach(scope *lifecycle.Scope, store remote.Store) error {
	return scope.Subscribe(store, BasePath, l.LoadSnapshot, func(err error) {
		log.Printf("WARNING: orders listener error: %v", err)
	})
}

// LoadSnapshot rebuilds the order list. Malformed children are skipped.
func (l *Ledger) LoadSnapshot(snap remote.Snapshot) {
	children := snap.Children()
	orders := make([]entities.Order, 0, len(children))
	for _, child := range children {
		if !child.Value.IsRecord() {
			log.Printf("WARNING: skipping malformed order record %q", child.Key)
			continue
		}
		v := child.Value
		orders = append(orders, entities.Order{
			OrderID:       v.Child("orderId").StringOr(child.Key),
			UserID:        v.Child("userId").StringOr(""),
			BookID:        v.Child("bookId").StringOr(""),
			BookTitle:     v.Child("bookTitle").StringOr(""),
			BookAuthor:    v.Child("bookAuthor").StringOr(""),
			BookPrice:     v.Child("bookPrice").FloatOr(0),
			OrderDate:     v.Child("orderDate").StringOr(""),
			Status:        entities.OrderStatus(v.Child("status").StringOr(string(entities.OrderStatusPending))),
			PaymentMethod: v.Child("paymentMethod").StringOr(""),
		})
	}

	l.mu.Lock()
	l.orders = orders
	l.mu.Unlock()
}

// Orders returns every known order.
func (l *Ledger) Orders() []entities.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]entities.Order, len(l.orders))
	copy(out, l.orders)
	return out
}

// BookSales is one row of the sales report.
type BookSales struct {
	BookID  string  `json:"book_id"`
	Title   string  `json:"title"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

// SalesSummary aggregates completed orders.
type SalesSummary struct {
	TotalRevenue float64     `json:"total_revenue"`
	TotalOrders  int         `json:"total_orders"`
	Books        []BookSales `json:"books"`
}

// Sales aggregates the ledger into per-book counts and revenue. Only
// completed orders are counted; pending and cancelled rows carry no revenue.
func (l *Ledger) Sales() SalesSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	summary := SalesSummary{}
	index := make(map[string]int)
	for _, o := range l.orders {
		if o.Status != entities.OrderStatusCompleted {
			continue
		}
		summary.TotalRevenue += o.BookPrice
		summary.TotalOrders++

		i, ok := index[o.BookID]
		if !ok {
			index[o.BookID] = len(summary.Books)
			summary.Books = append(summary.Books, BookSales{BookID: o.BookID, Title: o.BookTitle})
			i = index[o.BookID]
		}
		summary.Books[i].Count++
		summary.Books[i].Revenue += o.BookPrice
	}
	return summary
}
