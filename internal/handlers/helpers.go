package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"authflow/internal/validation"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

// MessageResponse is the body of simple 2xx responses.
type MessageResponse struct {
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorResponse{Message: msg})
}

func respondValidation(c *gin.Context, err error) {
	respondFieldErrors(c, validation.Describe(err))
}

func respondFieldErrors(c *gin.Context, fields []validation.FieldError) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Validation error", Errors: fields})
}

func passwordErrors(pw string) []validation.FieldError {
	var out []validation.FieldError
	for _, p := range validation.PasswordProblems(pw) {
		out = append(out, validation.FieldError{Field: "password", Message: p})
	}
	return out
}

// CookieOptions controls the auth cookies. Secure is on in production.
type CookieOptions struct {
	Secure     bool
	SessionTTL time.Duration
	SignupTTL  time.Duration
}

func (o CookieOptions) set(c *gin.Context, name, value string, ttl time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (o CookieOptions) clear(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
