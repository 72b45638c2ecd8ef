package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "authflow/docs"
	"authflow/internal/config"
	"authflow/internal/handlers"
	"authflow/internal/logging"
	"authflow/internal/metrics"
	"authflow/internal/middleware"
	"authflow/internal/migrations"
	"authflow/internal/ratelimit"
	"authflow/internal/repositories"
	"authflow/internal/routes"
	"authflow/internal/services"
)

// App holds the wired HTTP handler and the resources it owns.
type App struct {
	Router *gin.Engine

	cfg     *config.Config
	log     logging.Logger
	db      *sql.DB
	limiter ratelimit.Limiter
}

// New connects the stores and builds the router. Without a database URL the
// users live in memory, which is refused in production.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	// === Store ===
	var userRepo repositories.UserRepository
	if cfg.Database.DSN != "" {
		db, err := openDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		userRepo = repositories.NewUserRepository(db)
	} else {
		if cfg.IsProduction() {
			return nil, errors.New("database.url is required in production")
		}
		log.Warn(ctx, "no database configured, users are kept in memory")
		userRepo = repositories.NewMemoryUserRepository()
	}

	// === Rate limiter ===
	a.limiter = ratelimit.NewMemory()
	if cfg.Redis.Addr != "" {
		redisLimiter, err := ratelimit.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn(ctx, "redis rate limiter unavailable, using memory", "error", err)
		} else {
			a.limiter.Close()
			a.limiter = redisLimiter
		}
	}

	// === Services ===
	emailCfg := cfg.Email
	if emailCfg.SMTPHost == "" && !cfg.IsProduction() {
		log.Warn(ctx, "no smtp host configured, emails are logged instead of sent")
		emailCfg.DryRun = true
	}
	m := metrics.New()
	authService := services.NewAuthService(cfg.Auth)
	emailService := services.NewEmailService(emailCfg, cfg.Server.AppURL, cfg.Auth, log)
	userService := services.NewUserService(userRepo, emailService, authService, cfg.Auth.OTPTTL, log)
	verificationService := services.NewVerificationService(userRepo, emailService, cfg.Auth.OTPTTL, log)
	resetService := services.NewPasswordResetService(userRepo, emailService, authService, cfg.Auth.ResetTTL, log)

	// === Handlers ===
	cookies := handlers.CookieOptions{
		Secure:     cfg.IsProduction(),
		SessionTTL: cfg.Auth.SessionTTL,
		SignupTTL:  cfg.Auth.SignupTTL,
	}
	authHandler := handlers.NewAuthHandler(userService, authService, cookies, log, m)
	userHandler := handlers.NewUserHandler(userService, authService, cookies, log, m)
	verifyHandler := handlers.NewVerifyHandler(verificationService, authService, cookies, log, m)
	resetHandler := handlers.NewPasswordResetHandler(resetService, log, m)
	statesHandler := handlers.NewStatesHandler()
	var pinger handlers.Pinger
	if a.db != nil {
		pinger = a.db
	}
	healthHandler := handlers.NewHealthHandler(pinger)

	// === Gin ===
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		a.Close()
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log.With("component", "http"), m))
	router.Use(middleware.CORS(cfg.Server.AppURL))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		authHandler,
		userHandler,
		verifyHandler,
		resetHandler,
		statesHandler,
		healthHandler,
		authService,
		authService,
		routes.RateLimit{Limiter: a.limiter, Limit: cfg.RateLimit.Limit, Window: cfg.RateLimit.Window},
		m,
	)
	a.Router = router
	return a, nil
}

func openDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := migrations.Up(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info(ctx, "server starting", "addr", srv.Addr, "environment", a.cfg.Server.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		a.log.Info(context.Background(), "server stopped")
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Close releases the database and the rate limiter.
func (a *App) Close() {
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error(context.Background(), "close database", "error", err)
		}
	}
}
