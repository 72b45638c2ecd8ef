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
	"authflow/internal/validation"
)

type UserHandler struct {
	service     services.UserService
	authService services.AuthService
	cookies     CookieOptions
	log         logging.Logger
	metrics     *metrics.Metrics
}

func NewUserHandler(service services.UserService, authService services.AuthService, cookies CookieOptions, log logging.Logger, m *metrics.Metrics) *UserHandler {
	return &UserHandler{
		service:     service,
		authService: authService,
		cookies:     cookies,
		log:         log.With("component", "signup"),
		metrics:     m,
	}
}

// SignupResponse is returned on 201. SignupToken is also set as the
// signup_token cookie.
type SignupResponse struct {
	Message     string `json:"message"`
	SignupToken string `json:"signupToken"`
}

// @Summary      Sign up
// @Description  Creates an unverified account and emails a 6-digit verification code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        signup  body      models.SignupRequest  true  "Account details"
// @Success      201     {object}  SignupResponse
// @Failure      400     {object}  ErrorResponse
// @Failure      409     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /signup [post]
func (h *UserHandler) Signup(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}
	dob, err := validation.ParseDate(req.DateOfBirth)
	if err != nil {
		respondFieldErrors(c, []validation.FieldError{{Field: "dateOfBirth", Message: "Please enter a valid date of birth"}})
		return
	}

	user, err := h.service.Register(ctx, services.SignupInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		DateOfBirth: dob,
		Phone:       req.Phone,
		Street:      req.Street,
		Town:        req.Town,
		Country:     req.Country,
		State:       req.State,
		ZipCode:     req.ZipCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			h.metrics.AuthEvent("signup", "duplicate")
			respondError(c, http.StatusConflict, "User with this email already exists")
		case errors.Is(err, services.ErrWeakPassword):
			respondFieldErrors(c, passwordErrors(req.Password))
		default:
			h.log.Error(ctx, "register failed", "op", "signup", "error", err)
			respondError(c, http.StatusInternalServerError, "An error occurred during signup")
		}
		return
	}

	token, _, err := h.authService.IssueSignupToken(user.ID)
	if err != nil {
		h.log.Error(ctx, "issue signup token failed", "op", "signup", "user_id", user.ID, "error", err)
		respondError(c, http.StatusInternalServerError, "An error occurred during signup")
		return
	}
	h.cookies.set(c, middleware.SignupCookie, token, h.cookies.SignupTTL)
	h.metrics.AuthEvent("signup", "success")

	c.JSON(http.StatusCreated, SignupResponse{
		Message:     "User created successfully. Please verify your email.",
		SignupToken: token,
	})
}
