package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authflow/internal/config"
	"authflow/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func devConfig() *config.Config {
	var cfg config.Config
	cfg.LoadDefaults()
	cfg.Auth.JWTSecret = "test-secret"
	return &cfg
}

func TestNew_InMemory(t *testing.T) {
	a, err := New(context.Background(), devConfig(), logging.Nop())
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/signup")

	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/states?country=US", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_ProductionRequiresDatabase(t *testing.T) {
	cfg := devConfig()
	cfg.Server.Environment = config.EnvProduction

	_, err := New(context.Background(), cfg, logging.Nop())
	assert.Error(t, err)
}

func TestNew_UnreachableRedisFallsBack(t *testing.T) {
	cfg := devConfig()
	cfg.Redis.Addr = "127.0.0.1:1"

	a, err := New(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	defer a.Close()
	assert.NotNil(t, a.limiter)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := devConfig()
	cfg.Server.Port = 0
	a, err := New(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, a.Run(ctx))
}
