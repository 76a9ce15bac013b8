package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/svvaap/bookhive/internal/auth"
	"github.com/svvaap/bookhive/internal/session"
)

// CurrentSession builds the purchase-layer session from the request's
// resolved user. Anonymous requests yield session.Anonymous.
func CurrentSession(c *gin.Context) session.Session {
	return session.Session{UserID: auth.GetUID(c)}
}

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message, code string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: code})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: "not_found"})
}

// respondUnauthenticated sends the standard 401 login-required response.
func respondUnauthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required", Code: "login_required"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal"})
}

// respondError sends an error response with the given status code.
func respondError(c *gin.Context, status int, message, code string) {
	c.JSON(status, ErrorResponse{Error: message, Code: code})
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// requireSession aborts with 401 when the request is anonymous and returns
// the session otherwise.
func requireSession(c *gin.Context) (session.Session, bool) {
	sess := CurrentSession(c)
	if !sess.Authenticated() {
		respondUnauthenticated(c)
		return session.Anonymous, false
	}
	return sess, true
}

// isUnauthenticated reports whether err is the session-layer auth error.
func isUnauthenticated(err error) bool {
	return errors.Is(err, session.ErrUnauthenticated)
}
