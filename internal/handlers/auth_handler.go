package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"authflow/internal/logging"
	"authflow/internal/metrics"
	"authflow/internal/middleware"
	"authflow/internal/models"
	"authflow/internal/services"
)

type AuthHandler struct {
	userService services.UserService
	authService services.AuthService
	cookies     CookieOptions
	log         logging.Logger
	metrics     *metrics.Metrics
}

func NewAuthHandler(userService services.UserService, authService services.AuthService, cookies CookieOptions, log logging.Logger, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		cookies:     cookies,
		log:         log.With("component", "auth"),
		metrics:     m,
	}
}

// @Summary      Log in
// @Description  Checks the credentials of a verified account, sets the auth_token cookie and redirects to /
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      302
// @Failure      400    {object}  ErrorResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      403    {object}  ErrorResponse
// @Failure      429    {object}  ErrorResponse
// @Failure      500    {object}  ErrorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	log := h.log.With("op", "login")

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := h.userService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			h.metrics.AuthEvent("login", "invalid_credentials")
			respondError(c, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, services.ErrNotVerified):
			h.metrics.AuthEvent("login", "not_verified")
			respondError(c, http.StatusForbidden, "Please verify your email before logging in")
		default:
			log.Error(ctx, "authenticate failed", "error", err)
			respondError(c, http.StatusInternalServerError, "An error occurred during login")
		}
		return
	}

	token, _, err := h.authService.IssueSessionToken(user.ID)
	if err != nil {
		log.Error(ctx, "issue session token failed", "user_id", user.ID, "error", err)
		respondError(c, http.StatusInternalServerError, "An error occurred during login")
		return
	}

	h.cookies.set(c, middleware.SessionCookie, token, h.cookies.SessionTTL)
	h.metrics.AuthEvent("login", "success")
	log.Info(ctx, "login succeeded", "user_id", user.ID)
	c.Redirect(http.StatusFound, "/")
}

// @Summary      Log out
// @Description  Clears the auth_token cookie
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  MessageResponse
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.clear(c, middleware.SessionCookie)
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// @Summary      Current user
// @Description  Returns the profile of the logged-in user
// @Tags         Auth
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	user, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error(ctx, "load current user failed", "op", "me", "user_id", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "An error occurred while loading your profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
