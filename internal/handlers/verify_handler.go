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

type VerifyHandler struct {
	service     services.VerificationService
	authService services.AuthService
	cookies     CookieOptions
	log         logging.Logger
	metrics     *metrics.Metrics
}

func NewVerifyHandler(service services.VerificationService, authService services.AuthService, cookies CookieOptions, log logging.Logger, m *metrics.Metrics) *VerifyHandler {
	return &VerifyHandler{
		service:     service,
		authService: authService,
		cookies:     cookies,
		log:         log.With("component", "verify"),
		metrics:     m,
	}
}

// signupUserID resolves the pending signup from the signup_token cookie or a
// bearer header. Session tokens are not accepted.
func (h *VerifyHandler) signupUserID(c *gin.Context) (string, bool) {
	id, err := h.authService.VerifySignupToken(middleware.TokenFrom(c, middleware.SignupCookie))
	if err != nil {
		return "", false
	}
	return id, true
}

// @Summary      Verify email
// @Description  Confirms the account with the emailed 6-digit code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        verify  body      models.VerifyRequest  true  "Verification code"
// @Success      200     {object}  MessageResponse
// @Failure      400     {object}  ErrorResponse
// @Failure      401     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Failure      429     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /verify [post]
func (h *VerifyHandler) Verify(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}
	userID, ok := h.signupUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Session expired. Please sign up again.")
		return
	}

	if err := h.service.Verify(ctx, userID, req.OTP); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "User not found")
		case errors.Is(err, services.ErrInvalidOTP):
			h.metrics.AuthEvent("verify", "invalid_code")
			respondError(c, http.StatusBadRequest, "Invalid or expired verification code")
		default:
			h.log.Error(ctx, "verify failed", "op", "verify", "user_id", userID, "error", err)
			respondError(c, http.StatusInternalServerError, "An error occurred during verification")
		}
		return
	}

	h.cookies.clear(c, middleware.SignupCookie)
	h.metrics.AuthEvent("verify", "success")
	c.JSON(http.StatusOK, MessageResponse{Message: "Email verified successfully"})
}

// @Summary      Resend verification code
// @Description  Replaces the outstanding code with a new one and emails it
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /resend-otp [post]
func (h *VerifyHandler) ResendOTP(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := h.signupUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Session expired. Please sign up again.")
		return
	}

	if err := h.service.Resend(ctx, userID); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "User not found")
		case errors.Is(err, services.ErrAlreadyVerified):
			respondError(c, http.StatusBadRequest, "User is already verified")
		default:
			h.log.Error(ctx, "resend failed", "op", "resend_otp", "user_id", userID, "error", err)
			respondError(c, http.StatusInternalServerError, "An error occurred while resending verification code")
		}
		return
	}

	if token, _, err := h.authService.IssueSignupToken(userID); err == nil {
		h.cookies.set(c, middleware.SignupCookie, token, h.cookies.SignupTTL)
	} else {
		h.log.Warn(ctx, "refresh signup token failed", "op", "resend_otp", "user_id", userID, "error", err)
	}
	h.metrics.AuthEvent("resend_otp", "success")
	c.JSON(http.StatusOK, MessageResponse{Message: "Verification code resent successfully"})
}
