package checkout

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/svvaap/bookhive/internal/cart"
	"github.com/svvaap/bookhive/internal/catalog"
	"github.com/svvaap/bookhive/internal/entities"
	"github.com/svvaap/bookhive/internal/entitlements"
	"github.com/svvaap/bookhive/internal/orders"
	"github.com/svvaap/bookhive/internal/payment"
	"github.com/svvaap/bookhive/internal/session"
)

// Checkout is one payment attempt. Exposed read-only through Status queries.
type Checkout struct {
	Intent    Intent  `json:"intent"`
	Status    Status  `json:"status"`
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference"`
	PaymentID string  `json:"payment_id,omitempty"`
	Error     string  `json:"error,omitempty"`

	// granted records that the success side effects have landed. A success
	// delivery for a succeeded checkout without it retries the grants.
	granted bool
}

// Hooks observe terminal transitions (metrics wiring).
type Hooks struct {
	Started   func()
	Succeeded func()
	Failed    func()
	Cancelled func()
}

func (h Hooks) fire(f func()) {
	if f != nil {
		f()
	}
}

// Orchestrator owns the in-flight checkout per user and performs the
// success side effects exactly once per settled intent. Entitlements are
// granted durably before the cart is cleared, so a crash between the two
// steps can never lose a paid-for entitlement.
type Orchestrator struct {
	carts    *cart.Store
	ents     *entitlements.Store
	recorder *orders.Recorder
	books    *catalog.Catalog
	provider payment.Provider
	currency string
	merchant string
	hooks    Hooks

	mu     sync.Mutex
	active map[string]*Checkout
}

// Config carries the orchestrator's collaborators.
type Config struct {
	Carts    *cart.Store
	Ents     *entitlements.Store
	Recorder *orders.Recorder
	Books    *catalog.Catalog
	Provider payment.Provider
	Currency string
	Merchant string
	Hooks    Hooks
}

// NewOrchestrator wires an orchestrator.
func NewOrchestrator(cfg Config) *Orchestrator {
	return &Orchestrator{
		carts:    cfg.Carts,
		ents:     cfg.Ents,
		recorder: cfg.Recorder,
		books:    cfg.Books,
		provider: cfg.Provider,
		currency: cfg.Currency,
		merchant: cfg.Merchant,
		hooks:    cfg.Hooks,
		active:   make(map[string]*Checkout),
	}
}

// Start resolves the intent's amount and opens the provider. Returns the
// checkout in StatusPaymentOpened, or an error with no state left behind.
func (o *Orchestrator) Start(ctx context.Context, sess session.Session, intent Intent) (Checkout, error) {
	userID, err := sess.Require()
	if err != nil {
		return Checkout{}, err
	}
	intent.UserID = userID

	amount := intent.Amount
	if intent.Kind == KindCart {
		// Read fresh at this moment; the cart may have changed since the
		// checkout screen opened.
		amount, err = o.carts.CurrentTotal(sess)
		if err != nil {
			return Checkout{}, err
		}
		if amount <= 0 {
			return Checkout{}, ErrEmptyCart
		}
	}

	o.mu.Lock()
	if existing, ok := o.active[userID]; ok && !existing.Status.Terminal() {
		o.mu.Unlock()
		return Checkout{}, ErrConcurrentCheckout
	}

	c := &Checkout{Intent: intent, Status: StatusIdle, Reference: uuid.NewString()}
	if c.Status, err = Transition(c.Status, EventResolve{Amount: amount}); err != nil {
		o.mu.Unlock()
		return Checkout{}, err
	}
	c.Amount = amount

	// Move to PaymentOpened before the handoff: a provider that calls back
	// synchronously must find the machine ready for its terminal event.
	if c.Status, err = Transition(c.Status, EventOpen{}); err != nil {
		o.mu.Unlock()
		return Checkout{}, err
	}
	o.active[userID] = c
	o.mu.Unlock()

	o.hooks.fire(o.hooks.Started)

	req := payment.Request{
		Amount:      amount,
		Currency:    o.currency,
		Merchant:    o.merchant,
		Description: "Book purchase",
		Reference:   c.Reference,
	}
	cb := payment.Callbacks{
		OnSuccess: func(paymentID string) { o.settleSuccess(userID, paymentID) },
		OnError:   func(code int, msg string) { o.settleError(userID, code, msg) },
	}
	if err := o.provider.Open(ctx, req, cb); err != nil {
		o.settleError(userID, payment.CodeInvalidOptions, err.Error())
		return o.snapshot(userID), fmt.Errorf("open payment: %w", err)
	}

	return o.snapshot(userID), nil
}

// HandleProviderSuccess is the callback-endpoint entry: the client finished
// the provider flow and reports the payment id.
func (o *Orchestrator) HandleProviderSuccess(sess session.Session, paymentID string) (Checkout, error) {
	userID, err := sess.Require()
	if err != nil {
		return Checkout{}, err
	}
	if err := o.settleSuccess(userID, paymentID); err != nil {
		return o.snapshot(userID), err
	}
	return o.snapshot(userID), nil
}

// HandleProviderError is the callback-endpoint entry for failure/cancel.
func (o *Orchestrator) HandleProviderError(sess session.Session, code int, message string) (Checkout, error) {
	userID, err := sess.Require()
	if err != nil {
		return Checkout{}, err
	}
	if err := o.settleError(userID, code, message); err != nil {
		return o.snapshot(userID), err
	}
	return o.snapshot(userID), nil
}

// Status returns the user's latest checkout, terminal included.
func (o *Orchestrator) Status(sess session.Session) (Checkout, bool) {
	userID, err := sess.Require()
	if err != nil {
		return Checkout{}, false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.active[userID]
	if !ok {
		return Checkout{}, false
	}
	return *c, true
}

func (o *Orchestrator) snapshot(userID string) Checkout {
	o.mu.Lock()
	defer o.mu.Unlock()
	if c, ok := o.active[userID]; ok {
		return *c
	}
	return Checkout{}
}

// settleSuccess performs the terminal transition and its side effects. The
// transition is claimed under the lock, but the checkout is not treated as
// fully settled until the grants have landed: a replayed success callback
// after a failed grant retries the side effects, and only a granted
// checkout drops the duplicate delivery.
func (o *Orchestrator) settleSuccess(userID, paymentID string) error {
	o.mu.Lock()
	c, ok := o.active[userID]
	if !ok {
		o.mu.Unlock()
		return ErrNoActiveCheckout
	}
	if c.Status.Terminal() {
		if c.Status == StatusSucceeded && !c.granted {
			// The payment was captured but an earlier delivery's grants
			// failed; this replay is the retry path.
			intent, amount := c.Intent, c.Amount
			o.mu.Unlock()
			return o.grantAndRecord(userID, intent, amount)
		}
		// Duplicate delivery; grants are set-inserts and already done.
		o.mu.Unlock()
		return nil
	}
	next, err := Transition(c.Status, EventSucceed{PaymentID: paymentID})
	if err != nil {
		o.mu.Unlock()
		return err
	}
	c.Status = next
	c.PaymentID = paymentID
	intent := c.Intent
	amount := c.Amount
	o.mu.Unlock()

	o.hooks.fire(o.hooks.Succeeded)

	return o.grantAndRecord(userID, intent, amount)
}

// grantAndRecord runs the success side effects: durable entitlement grants
// first, then order records, then the cart clear. Safe to call again after
// a failure; everything before the grants landed gets redone.
func (o *Orchestrator) grantAndRecord(userID string, intent Intent, amount float64) error {
	ctx := context.Background()
	sess := session.Session{UserID: userID}

	if intent.Kind == KindSingle {
		if err := o.ents.Grant(ctx, sess, intent.BookID); err != nil {
			o.noteSideEffectError(userID, err)
			return err
		}
		o.markGranted(userID)
		o.recordOrder(ctx, userID, intent.BookID, amount)
		return nil
	}

	items, err := o.carts.Items(sess)
	if err != nil {
		o.noteSideEffectError(userID, err)
		return err
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.BookID)
	}

	// Grants must be durable before the cart clear: once the cart is gone
	// the entitlements can no longer be re-derived from it.
	if err := o.ents.GrantMany(ctx, sess, ids); err != nil {
		o.noteSideEffectError(userID, err)
		return err
	}
	o.markGranted(userID)
	for _, item := range items {
		o.recordOrder(ctx, userID, item.BookID, item.Price)
	}
	if err := o.carts.Clear(ctx, sess); err != nil {
		// Entitlements are already granted; a stale cart is recoverable.
		log.Printf("WARNING: cart clear after checkout failed for user %s: %v", userID, err)
	}
	return nil
}

func (o *Orchestrator) markGranted(userID string) {
	o.mu.Lock()
	if c, ok := o.active[userID]; ok {
		c.granted = true
		c.Error = ""
	}
	o.mu.Unlock()
}

func (o *Orchestrator) settleError(userID string, code int, message string) error {
	cancelled := code == payment.CodeCancelled

	o.mu.Lock()
	c, ok := o.active[userID]
	if !ok {
		o.mu.Unlock()
		return ErrNoActiveCheckout
	}
	if c.Status.Terminal() {
		o.mu.Unlock()
		return nil
	}
	next, err := Transition(c.Status, EventFail{Code: code, Message: message, Cancelled: cancelled})
	if err != nil {
		o.mu.Unlock()
		return err
	}
	c.Status = next
	c.Error = message
	o.mu.Unlock()

	if cancelled {
		o.hooks.fire(o.hooks.Cancelled)
	} else {
		o.hooks.fire(o.hooks.Failed)
	}
	return nil
}

func (o *Orchestrator) noteSideEffectError(userID string, err error) {
	o.mu.Lock()
	if c, ok := o.active[userID]; ok {
		c.Error = err.Error()
	}
	o.mu.Unlock()
	log.Printf("WARNING: checkout side effects failed for user %s: %v", userID, err)
}

func (o *Orchestrator) recordOrder(ctx context.Context, userID, bookID string, price float64) {
	if o.recorder == nil {
		return
	}
	order := entities.Order{
		UserID:        userID,
		BookID:        bookID,
		BookPrice:     price,
		OrderDate:     time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		Status:        entities.OrderStatusCompleted,
		PaymentMethod: "provider",
	}
	if o.books != nil {
		if book, ok := o.books.Get(bookID); ok {
			order.BookTitle = book.Title
			order.BookAuthor = book.Author
		}
	}
	if _, err := o.recorder.Record(ctx, order); err != nil {
		log.Printf("WARNING: failed to record order for book %s: %v", bookID, err)
	}
}
