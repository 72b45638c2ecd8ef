package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authflow/internal/logging"
	"authflow/internal/metrics"
	"authflow/internal/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier map[string]string

func (s stubVerifier) VerifySessionToken(token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

func (s stubVerifier) VerifySignupToken(token string) (string, error) {
	return s.VerifySessionToken(token)
}

func protected(v TokenVerifier) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(v), func(c *gin.Context) {
		id, _ := UserID(c)
		c.String(http.StatusOK, id)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := protected(stubVerifier{"good": "user-1"})

	tests := []struct {
		name   string
		setup  func(req *http.Request)
		status int
		body   string
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized, "Authentication required"},
		{"cookie", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
		}, http.StatusOK, "user-1"},
		{"bearer", func(req *http.Request) {
			req.Header.Set("Authorization", "bearer good")
		}, http.StatusOK, "user-1"},
		{"bad cookie", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "forged"})
		}, http.StatusUnauthorized, "Invalid or expired token"},
		{"signup cookie is not a session", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: SignupCookie, Value: "good"})
		}, http.StatusUnauthorized, "Authentication required"},
		{"malformed header", func(req *http.Request) {
			req.Header.Set("Authorization", "Token good")
		}, http.StatusUnauthorized, "Authentication required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}

func TestRateLimit(t *testing.T) {
	l := ratelimit.NewMemory()
	defer l.Close()
	m := metrics.New()

	r := gin.New()
	r.POST("/login", RateLimit(l, "/login", 2, time.Minute, m), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	hit := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":12345"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1").Code)
	rec := hit("10.0.0.1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = hit("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"message":"Too many requests, please try again later"}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, hit("10.0.0.2").Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(nil, "/login", 1, time.Minute, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitBy_SignupKey(t *testing.T) {
	l := ratelimit.NewMemory()
	defer l.Close()

	r := gin.New()
	r.POST("/verify", RateLimitBy(l, "/verify", 2, time.Minute, nil, SignupKey(stubVerifier{"pending": "user-1"})), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	hit := func(ip, token string) int {
		req := httptest.NewRequest(http.MethodPost, "/verify", nil)
		req.RemoteAddr = ip + ":12345"
		if token != "" {
			req.AddCookie(&http.Cookie{Name: SignupCookie, Value: token})
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	// the same pending signup is counted across client addresses
	assert.Equal(t, http.StatusOK, hit("10.0.0.1", "pending"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2", "pending"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.3", "pending"))

	// requests without a usable signup token are not counted here
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit("10.0.0.1", ""))
		assert.Equal(t, http.StatusOK, hit("10.0.0.1", "forged"))
	}
}

func TestRequestLogger(t *testing.T) {
	var out bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(logging.New(&out, "development"), metrics.New()))
	r.GET("/states", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/states?token=secret", nil))

	assert.Contains(t, out.String(), "http request")
	assert.Contains(t, out.String(), "status=400")
	assert.NotContains(t, out.String(), "secret")
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS("https://app.example.com"))
	r.GET("/states", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/states", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/states", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
