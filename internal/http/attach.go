package http

import (
	"log"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/svvaap/bookhive/internal/auth"
	"github.com/svvaap/bookhive/internal/cart"
	"github.com/svvaap/bookhive/internal/entitlements"
	"github.com/svvaap/bookhive/internal/lifecycle"
)

// userAttacher lazily subscribes a user's cart and entitlement subtrees the
// first time an authenticated request for that user arrives. Subscriptions
// live until the process scope closes; there is no per-user detach.
type userAttacher struct {
	scope *lifecycle.Scope
	carts *cart.Store
	ents  *entitlements.Store

	mu       sync.Mutex
	attached map[string]*attachState
}

// attachState tracks each subtree separately so a retry after a partial
// failure only subscribes what is still missing.
type attachState struct {
	cart bool
	ents bool
}

func newUserAttacher(scope *lifecycle.Scope, carts *cart.Store, ents *entitlements.Store) *userAttacher {
	return &userAttacher{
		scope:    scope,
		carts:    carts,
		ents:     ents,
		attached: make(map[string]*attachState),
	}
}

// ensure attaches the user's subtrees exactly once per process lifetime.
func (a *userAttacher) ensure(uid string) {
	if uid == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	state, ok := a.attached[uid]
	if !ok {
		state = &attachState{}
		a.attached[uid] = state
	}
	if !state.cart {
		if err := a.carts.Attach(a.scope, uid); err != nil {
			log.Printf("WARNING: could not attach cart for user %s: %v", uid, err)
		} else {
			state.cart = true
		}
	}
	if !state.ents {
		if err := a.ents.Attach(a.scope, uid); err != nil {
			log.Printf("WARNING: could not attach entitlements for user %s: %v", uid, err)
		} else {
			state.ents = true
		}
	}
}

// Middleware hooks the attacher into the request pipeline, after auth.
func (a *userAttacher) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.ensure(auth.GetUID(c))
		c.Next()
	}
}
