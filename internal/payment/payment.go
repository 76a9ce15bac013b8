// Package payment wraps the external payment capability behind a small
// interface: open a checkout for an amount, receive exactly one terminal
// callback later. Everything about the provider's own UI and processing is
// opaque to the engine.
package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Provider error codes, mirroring the SDK the storefront integrates.
const (
	CodeNetworkError   = 0
	CodeInvalidOptions = 1
	CodeCancelled      = 2
)

// Request describes what the provider should collect.
type Request struct {
	Amount      float64
	Currency    string
	Merchant    string
	Description string
	Reference   string // engine-side correlation id
}

// Callbacks receive the terminal result. Exactly one of the two fires per
// opened checkout; duplicate deliveries are possible and must be tolerated
// by the receiver.
type Callbacks struct {
	OnSuccess func(paymentID string)
	OnError   func(code int, message string)
}

// Provider opens a checkout with the external capability. Open is
// fire-and-forget: it returns once the handoff is made, and the result
// arrives asynchronously via the callbacks.
type Provider interface {
	Open(ctx context.Context, req Request, cb Callbacks) error
}

// StubProvider simulates the external capability for local development and
// tests. Outcome decides which callback fires; Delay defers it to a
// separate goroutine interval so callers exercise the asynchronous path.
type StubProvider struct {
	Outcome string // "success" (default), "failure" or "cancel"
	Delay   time.Duration
}

func (p *StubProvider) Open(_ context.Context, _ Request, cb Callbacks) error {
	deliver := func() {
		switch p.Outcome {
		case "failure":
			if cb.OnError != nil {
				cb.OnError(CodeNetworkError, "payment declined")
			}
		case "cancel":
			if cb.OnError != nil {
				cb.OnError(CodeCancelled, "payment cancelled by user")
			}
		default:
			if cb.OnSuccess != nil {
				cb.OnSuccess("pay_" + uuid.NewString())
			}
		}
	}
	if p.Delay > 0 {
		time.AfterFunc(p.Delay, deliver)
		return nil
	}
	deliver()
	return nil
}

// ManualProvider is the production wiring: the client completes the provider
// flow out of band and reports the result to the callback endpoint, so Open
// has nothing to do beyond acknowledging the handoff.
type ManualProvider struct{}

func (ManualProvider) Open(context.Context, Request, Callbacks) error {
	// The terminal result is injected through the orchestrator's callback
	// entry points, not through these callbacks.
	return nil
}
