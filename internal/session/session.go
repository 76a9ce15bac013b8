// Package session carries the resolved identity for a request.
//
// Stores never read ambient "current user" state: every user-scoped operation
// takes an explicit Session so a store is a pure function of (state, session,
// input). Callers with no identity get ErrUnauthenticated back and are
// expected to redirect to login instead of retrying.
package session

import "errors"

// ErrUnauthenticated means the caller had no resolved identity. No store
// mutation is attempted when this is returned.
var ErrUnauthenticated = errors.New("authentication required")

// Session is the identity under which user-scoped operations run.
// A zero Session is anonymous.
type Session struct {
	UserID string
}

// Anonymous is the session used for unauthenticated browsing.
var Anonymous = Session{}

// Authenticated reports whether the session carries a resolved identity.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// Require returns the user ID, or ErrUnauthenticated for anonymous sessions.
func (s Session) Require() (string, error) {
	if s.UserID == "" {
		return "", ErrUnauthenticated
	}
	return s.UserID, nil
}
