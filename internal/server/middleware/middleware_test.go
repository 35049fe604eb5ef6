// file: internal/server/middleware/middleware_test.go
// version: 1.0.0
// guid: 2b5c8d1e-4f7a-4b0c-8d3e-6f9a2b5c8d1e

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/tidybooks/tidybooks/internal/config"
)

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/api/v1/candidates", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/api/v1/bundles", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})
	return r
}

func TestBasicAuthDisabledPassesThrough(t *testing.T) {
	config.AppConfig = config.Config{BasicAuthEnabled: false}

	r := newRouter(BasicAuth())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/candidates", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestBasicAuthRejectsMissingCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sekrit"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	config.AppConfig = config.Config{
		BasicAuthEnabled:  true,
		BasicAuthUser:     "admin",
		BasicAuthPassHash: string(hash),
	}

	r := newRouter(BasicAuth())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/candidates", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if got := w.Header().Get("WWW-Authenticate"); !strings.Contains(got, "Basic") {
		t.Errorf("missing WWW-Authenticate header, got %q", got)
	}
}

func TestBasicAuthAcceptsValidCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sekrit"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	config.AppConfig = config.Config{
		BasicAuthEnabled:  true,
		BasicAuthUser:     "admin",
		BasicAuthPassHash: string(hash),
	}

	r := newRouter(BasicAuth())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/candidates", nil)
	req.SetBasicAuth("admin", "sekrit")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid credentials rejected: %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/candidates", nil)
	req.SetBasicAuth("admin", "wrong")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password accepted: %d", w.Code)
	}
}

func TestBasicAuthExemptsHealth(t *testing.T) {
	config.AppConfig = config.Config{
		BasicAuthEnabled:  true,
		BasicAuthUser:     "admin",
		BasicAuthPassHash: "$2a$04$invalidhash",
	}

	r := newRouter(BasicAuth())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("health should be exempt, got %d", w.Code)
	}
}

func TestRateLimiterEnforcesLimit(t *testing.T) {
	rl := NewIPRateLimiter(60, 2)
	r := newRouter(rl.Middleware())

	codes := make(map[int]int)
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/candidates", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes[w.Code]++
	}

	if codes[http.StatusOK] != 2 {
		t.Errorf("expected burst of 2 to pass, got %d", codes[http.StatusOK])
	}
	if codes[http.StatusTooManyRequests] != 3 {
		t.Errorf("expected 3 rejections, got %d", codes[http.StatusTooManyRequests])
	}
}

func TestRateLimiterIsPerIP(t *testing.T) {
	rl := NewIPRateLimiter(60, 1)
	r := newRouter(rl.Middleware())

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.3:1"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/candidates", nil)
		req.RemoteAddr = addr
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("first request from %s should pass, got %d", addr, w.Code)
		}
	}
}

func TestMaxRequestBodySize(t *testing.T) {
	r := newRouter(MaxRequestBodySize(16))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bundles", strings.NewReader(`{"name":"ok"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("small body rejected: %d", w.Code)
	}

	w = httptest.NewRecorder()
	big := strings.Repeat("x", 64)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/bundles", strings.NewReader(big))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized body accepted: %d", w.Code)
	}

	// GET requests are never limited.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/candidates", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET should bypass body limit: %d", w.Code)
	}
}
