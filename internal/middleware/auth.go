package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookie = "auth_token"
	SignupCookie  = "signup_token"

	// ContextUserID is the gin context key holding the authenticated user id.
	ContextUserID = "user_id"
)

// TokenVerifier resolves a token to the user id it was issued for.
type TokenVerifier interface {
	VerifySessionToken(token string) (string, error)
}

// SignupVerifier resolves a signup token to the pending user id.
type SignupVerifier interface {
	VerifySignupToken(token string) (string, error)
}

// BearerToken returns the token from an "Authorization: Bearer" header, or "".
func BearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// TokenFrom prefers the named cookie and falls back to the bearer header.
func TokenFrom(c *gin.Context, cookie string) string {
	if v, err := c.Cookie(cookie); err == nil && v != "" {
		return v
	}
	return BearerToken(c)
}

// AuthMiddleware requires a valid session token in the auth_token cookie or
// a bearer header and stores the user id under ContextUserID.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		tokenStr := TokenFrom(c, SessionCookie)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}
		userID, err := verifier.VerifySessionToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}
		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// UserID returns the id set by AuthMiddleware.
func UserID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserID)
	return id, id != ""
}
