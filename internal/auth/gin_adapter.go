package auth

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// scs only ships a net/http LoadAndSave middleware. gin controllers write
// response bodies through gin.ResponseWriter, which flushes headers on the
// first byte, so the session cookie has to be committed from inside the
// writer before that happens.

// scs session states relevant to cookie emission.
const (
	sessionModified  = 1
	sessionDestroyed = 2
)

type sessionWriter struct {
	gin.ResponseWriter
	manager     *SessionManager
	request     *http.Request
	headersSent bool
	cookieSent  bool
}

// beforeHeaders commits the session once, just ahead of the first header
// flush. Later calls are no-ops.
func (w *sessionWriter) beforeHeaders() {
	if w.headersSent {
		return
	}
	w.headersSent = true
	w.commitCookie()
}

func (w *sessionWriter) commitCookie() {
	if w.cookieSent {
		return
	}
	w.cookieSent = true

	ctx := w.request.Context()
	switch w.manager.Status(ctx) {
	case sessionModified:
		token, expiry, err := w.manager.Commit(ctx)
		if err != nil {
			return
		}
		w.manager.WriteSessionCookie(ctx, w.ResponseWriter, token, expiry)
	case sessionDestroyed:
		w.manager.WriteSessionCookie(ctx, w.ResponseWriter, "", time.Time{})
	}
}

func (w *sessionWriter) WriteHeader(code int) {
	w.beforeHeaders()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) WriteHeaderNow() {
	w.beforeHeaders()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.beforeHeaders()
	return w.ResponseWriter.Write(b)
}

// Hijack keeps the writer usable for connection upgrades.
func (w *sessionWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.Hijack()
}

// SessionLoadSave loads the caller's session into the request context and
// arranges for the cookie commit on the way out. It must run before any
// middleware or handler that touches session state.
func (sm *SessionManager) SessionLoadSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(sm.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := sm.Load(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Request = c.Request.WithContext(ctx)

		writer := &sessionWriter{
			ResponseWriter: c.Writer,
			manager:        sm,
			request:        c.Request,
		}
		c.Writer = writer

		c.Next()

		// 204-style responses never write a body or explicit header; the
		// cookie still has to go out.
		if !writer.headersSent {
			writer.commitCookie()
		}
	}
}
