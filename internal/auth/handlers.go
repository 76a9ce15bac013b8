package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/svvaap/bookhive/internal/config"
	"github.com/svvaap/bookhive/internal/entities"
)

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
	rateLimiter    *RateLimiter
}

// NewAuthController creates a new authentication controller.
func NewAuthController(service *Service, sessionManager *SessionManager, cfg config.Auth) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
		rateLimiter:    NewRateLimiter(DefaultRateLimitConfig()),
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router *gin.Engine) {
	router.POST("/auth/register", ac.Register)
	router.POST("/auth/login", ac.Login)
	router.POST("/auth/logout", ac.Logout)
	router.GET("/auth/me", ac.Me)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// userResponse is the public shape of an account.
type userResponse struct {
	UID      string            `json:"uid"`
	Username string            `json:"username"`
	Email    string            `json:"email"`
	Role     entities.UserRole `json:"role"`
}

func newUserResponse(u *entities.User) userResponse {
	return userResponse{
		UID:      u.UID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

// Register creates a new customer account and opens a session for it.
// The very first account on a fresh install becomes the admin.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required", "code": "invalid_request"})
		return
	}

	role := entities.UserRoleCustomer
	hasUsers, err := ac.service.HasUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "code": "internal"})
		return
	}
	if !hasUsers {
		role = entities.UserRoleAdmin
	}

	user, err := ac.service.CreateUser(req.Username, req.Email, req.Password, role)
	if err != nil {
		status := http.StatusBadRequest
		code := "invalid_request"
		switch {
		case errors.Is(err, ErrUserExists):
			status = http.StatusConflict
			code = "user_exists"
		case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
			code = "invalid_password"
		case errors.Is(err, ErrUsernameInvalid), errors.Is(err, ErrUsernameRequired):
			code = "invalid_username"
		case errors.Is(err, ErrEmailInvalid), errors.Is(err, ErrEmailRequired):
			code = "invalid_email"
		}
		c.JSON(status, gin.H{"error": err.Error(), "code": code})
		return
	}

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session", "code": "internal"})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"user": newUserResponse(user)})
}

// Login authenticates credentials and opens a session.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required", "code": "invalid_request"})
		return
	}
	clientIP := c.ClientIP()

	// Check rate limiting before attempting authentication
	if ac.rateLimiter != nil {
		allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.Username)
		if !allowed {
			c.Header("Retry-After", retryAfter.String())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many login attempts",
				"code":        "rate_limited",
				"retry_after": retryAfter.String(),
			})
			return
		}
	}

	user, err := ac.service.Authenticate(req.Username, req.Password)
	if err != nil {
		if ac.rateLimiter != nil {
			ac.rateLimiter.RecordFailure(clientIP, req.Username)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password", "code": "invalid_credentials"})
		return
	}

	// Record successful login (clears rate limit tracking)
	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, req.Username)
	}

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session", "code": "internal"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// Logout destroys the session.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		_ = ac.sessionManager.DestroySession(c.Request)
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the current account, or 401 when anonymous.
func (ac *AuthController) Me(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "login_required"})
		return
	}
	user, err := ac.service.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "login_required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// APITokenController handles API token management endpoints.
type APITokenController struct {
	service *Service
}

// NewAPITokenController creates a new API token controller.
func NewAPITokenController(service *Service) *APITokenController {
	return &APITokenController{service: service}
}

// GenerateToken creates a new API token for the authenticated user.
func (tc *APITokenController) GenerateToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "login_required"})
		return
	}

	token, err := tc.service.GenerateToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token", "code": "internal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "Store this token securely - it will not be shown again",
	})
}

// RevokeToken revokes the API token for the authenticated user.
func (tc *APITokenController) RevokeToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "login_required"})
		return
	}

	if err := tc.service.RevokeToken(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token", "code": "internal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}
