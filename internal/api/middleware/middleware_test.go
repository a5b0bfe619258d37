package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"learning-circle/backend/config"
	"learning-circle/backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{JWTSecret: "0123456789abcdef-test", Issuer: "mulearn"})
}

// echoUser 返回中间件注入的 user_id
func echoUser(c *gin.Context) {
	c.String(http.StatusOK, c.GetString(ContextKeyUserID))
}

func doRequest(r *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	mgr := newJWT()
	r := gin.New()
	r.GET("/me", JWTAuth(mgr, nil, zap.NewNop()), echoUser)

	token, err := mgr.GenerateAccessToken("u-1", time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	w := doRequest(r, "GET", "/me", map[string]string{"Authorization": "Bearer " + token})
	if w.Code != http.StatusOK || w.Body.String() != "u-1" {
		t.Errorf("expected 200 u-1, got %d %q", w.Code, w.Body.String())
	}

	w = doRequest(r, "GET", "/me", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing header: expected 401, got %d", w.Code)
	}

	w = doRequest(r, "GET", "/me", map[string]string{"Authorization": "Token " + token})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad scheme: expected 401, got %d", w.Code)
	}

	expired, _ := mgr.GenerateAccessToken("u-1", -time.Minute)
	w = doRequest(r, "GET", "/me", map[string]string{"Authorization": "Bearer " + expired})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expired: expected 401, got %d", w.Code)
	}
}

func TestOptionalAuth(t *testing.T) {
	mgr := newJWT()
	r := gin.New()
	r.GET("/browse", OptionalAuth(mgr, nil, zap.NewNop()), echoUser)

	w := doRequest(r, "GET", "/browse", nil)
	if w.Code != http.StatusOK || w.Body.String() != "" {
		t.Errorf("anonymous: expected 200 with empty user, got %d %q", w.Code, w.Body.String())
	}

	token, _ := mgr.GenerateAccessToken("u-2", time.Minute)
	w = doRequest(r, "GET", "/browse", map[string]string{"Authorization": "Bearer " + token})
	if w.Body.String() != "u-2" {
		t.Errorf("expected u-2, got %q", w.Body.String())
	}

	w = doRequest(r, "GET", "/browse", map[string]string{"Authorization": "Bearer garbage"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("invalid token: expected 401, got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	w := doRequest(r, "GET", "/", map[string]string{"X-Request-ID": "abc"})
	if w.Header().Get("X-Request-ID") != "abc" || w.Body.String() != "abc" {
		t.Errorf("expected propagated id abc, got %q", w.Header().Get("X-Request-ID"))
	}

	w = doRequest(r, "GET", "/", map[string]string{"X-Request-ID": strings.Repeat("x", requestIDMaxLen+1)})
	if got := w.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("expected regenerated uuid, got %q", got)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doRequest(r, "OPTIONS", "/", map[string]string{"Origin": "http://localhost:5173"})
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight: expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("expected allowed origin header")
	}

	w = doRequest(r, "GET", "/", map[string]string{"Origin": "http://evil.example"})
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("unexpected allow origin for foreign site")
	}
}

func TestRateLimit_NilRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.POST("/join", RateLimit(nil, 1, time.Minute, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		if w := doRequest(r, "POST", "/join", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"too long"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}
