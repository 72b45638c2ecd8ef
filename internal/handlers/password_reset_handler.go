package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"authflow/internal/logging"
	"authflow/internal/metrics"
	"authflow/internal/models"
	"authflow/internal/services"
)

type PasswordResetHandler struct {
	service services.PasswordResetService
	log     logging.Logger
	metrics *metrics.Metrics
}

func NewPasswordResetHandler(service services.PasswordResetService, log logging.Logger, m *metrics.Metrics) *PasswordResetHandler {
	return &PasswordResetHandler{service: service, log: log.With("component", "password_reset"), metrics: m}
}

// @Summary      Request a password reset
// @Description  Emails a reset link when the address belongs to an account. The response is the same either way.
// @Tags         Password
// @Accept       json
// @Produce      json
// @Param        request  body      models.PasswordResetRequest  true  "Account email"
// @Success      200      {object}  MessageResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      429      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /resend-password [post]
func (h *PasswordResetHandler) RequestReset(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}
	if err := h.service.RequestReset(ctx, req.Email); err != nil {
		h.log.Error(ctx, "request reset failed", "op", "request_reset", "error", err)
		respondError(c, http.StatusInternalServerError, "An error occurred while processing your request")
		return
	}
	h.metrics.AuthEvent("reset_request", "accepted")
	c.JSON(http.StatusOK, MessageResponse{Message: "If an account with that email exists, we've sent password reset instructions"})
}

// @Summary      Set a new password
// @Description  Consumes a reset token and replaces the password
// @Tags         Password
// @Accept       json
// @Produce      json
// @Param        request  body      models.NewPasswordRequest  true  "Reset token and new password"
// @Success      200      {object}  MessageResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /new-password [post]
func (h *PasswordResetHandler) NewPassword(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.NewPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}
	if err := h.service.ResetPassword(ctx, req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidResetToken):
			h.metrics.AuthEvent("reset_password", "invalid_token")
			respondError(c, http.StatusBadRequest, "Invalid or expired reset token")
		case errors.Is(err, services.ErrWeakPassword):
			respondFieldErrors(c, passwordErrors(req.Password))
		default:
			h.log.Error(ctx, "reset password failed", "op", "new_password", "error", err)
			respondError(c, http.StatusInternalServerError, "An error occurred while updating your password")
		}
		return
	}
	h.metrics.AuthEvent("reset_password", "success")
	c.JSON(http.StatusOK, MessageResponse{Message: "Password updated successfully"})
}
