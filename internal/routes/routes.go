package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"authflow/internal/handlers"
	"authflow/internal/metrics"
	"authflow/internal/middleware"
	"authflow/internal/ratelimit"
	"authflow/internal/validation"
)

// RateLimit is applied per client IP to the routes that send email or check
// secrets. /verify and /resend-otp are also limited per pending signup.
type RateLimit struct {
	Limiter ratelimit.Limiter
	Limit   int
	Window  time.Duration
}

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	verifyHandler *handlers.VerifyHandler,
	resetHandler *handlers.PasswordResetHandler,
	statesHandler *handlers.StatesHandler,
	healthHandler *handlers.HealthHandler,
	sessions middleware.TokenVerifier,
	signups middleware.SignupVerifier,
	limits RateLimit,
	m *metrics.Metrics,
) *gin.Engine {
	validation.Setup()

	limited := func(route string) gin.HandlerFunc {
		return middleware.RateLimit(limits.Limiter, route, limits.Limit, limits.Window, m)
	}
	perSignup := func(route string) gin.HandlerFunc {
		return middleware.RateLimitBy(limits.Limiter, route, limits.Limit, limits.Window, m, middleware.SignupKey(signups))
	}

	// ---- public
	r.POST("/signup", userHandler.Signup)
	r.POST("/login", limited("/login"), authHandler.Login)
	r.POST("/logout", authHandler.Logout)
	r.POST("/verify", limited("/verify"), perSignup("/verify"), verifyHandler.Verify)
	r.POST("/resend-otp", limited("/resend-otp"), perSignup("/resend-otp"), verifyHandler.ResendOTP)
	r.POST("/resend-password", limited("/resend-password"), resetHandler.RequestReset)
	r.POST("/new-password", resetHandler.NewPassword)
	r.GET("/states", statesHandler.GetStates)

	// ---- ops
	r.GET("/healthz", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	// ---- protected
	r.GET("/me", middleware.AuthMiddleware(sessions), authHandler.Me)

	return r
}
