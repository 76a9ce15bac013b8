// Package checkout drives a payment attempt from intent to a terminal
// result, and bridges the provider's success callback into the durable
// entitlement change. The state machine itself is a pure transition
// function over a tagged status, so it is testable without any network or
// store.
package checkout

import "errors"

var (
	// ErrEmptyCart aborts a cart checkout whose resolved total is zero.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidAmount aborts a single-book checkout with a non-positive amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrConcurrentCheckout rejects a new intent while one is in flight for
	// the same user.
	ErrConcurrentCheckout = errors.New("checkout already in progress")
	// ErrNoActiveCheckout means a provider result arrived for a user with
	// nothing in flight.
	ErrNoActiveCheckout = errors.New("no active checkout")
	// ErrInvalidTransition means an event arrived in a state that does not
	// accept it.
	ErrInvalidTransition = errors.New("invalid checkout transition")
)

// Kind distinguishes what is being paid for.
type Kind string

const (
	KindCart   Kind = "cart"
	KindSingle Kind = "single"
)

// Intent describes a payment before it begins. Created when a
// checkout opens, consumed once, discarded after terminal resolution.
type Intent struct {
	Kind   Kind
	UserID string
	BookID string  // single only
	Amount float64 // single only; cart amounts resolve from the cart
}

// Status is the checkout state.
type Status string

const (
	StatusIdle           Status = "idle"
	StatusAmountResolved Status = "amount_resolved"
	StatusPaymentOpened  Status = "payment_opened"
	StatusSucceeded      Status = "succeeded"
	StatusFailed         Status = "failed"
	StatusCancelled      Status = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Event is a checkout state machine input.
type Event interface {
	isEvent()
}

// EventResolve carries the amount resolved from the intent or the cart.
type EventResolve struct {
	Amount float64
}

// EventOpen marks the fire-and-forget handoff to the provider.
type EventOpen struct{}

// EventSucceed is the provider's success callback.
type EventSucceed struct {
	PaymentID string
}

// EventFail is the provider's error callback. Cancelled reports whether the
// user backed out rather than the payment failing.
type EventFail struct {
	Code      int
	Message   string
	Cancelled bool
}

func (EventResolve) isEvent() {}
func (EventOpen) isEvent()    {}
func (EventSucceed) isEvent() {}
func (EventFail) isEvent()    {}

// Transition computes the next status for an event. The caller owns side
// effects; this function only validates the machine's shape.
func Transition(s Status, ev Event) (Status, error) {
	switch ev := ev.(type) {
	case EventResolve:
		if s != StatusIdle {
			return s, ErrInvalidTransition
		}
		if ev.Amount <= 0 {
			return s, ErrInvalidAmount
		}
		return StatusAmountResolved, nil
	case EventOpen:
		if s != StatusAmountResolved {
			return s, ErrInvalidTransition
		}
		return StatusPaymentOpened, nil
	case EventSucceed:
		if s != StatusPaymentOpened {
			return s, ErrInvalidTransition
		}
		return StatusSucceeded, nil
	case EventFail:
		if s != StatusPaymentOpened {
			return s, ErrInvalidTransition
		}
		if ev.Cancelled {
			return StatusCancelled, nil
		}
		return StatusFailed, nil
	}
	return s, ErrInvalidTransition
}
