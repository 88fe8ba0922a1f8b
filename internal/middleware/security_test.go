package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(1), 1, log.New(io.Discard))
	defer limiter.Stop()

	r := gin.New()
	r.Use(RateLimitMiddleware(limiter))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rec1 := performRequest(r, http.MethodGet, "/", map[string]string{"User-Agent": "test"})
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec1.Code)
	}

	rec2 := performRequest(r, http.MethodGet, "/", map[string]string{"User-Agent": "test"})
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on rapid second request, got %d", rec2.Code)
	}
}

func TestPerMinuteAllowsBurst(t *testing.T) {
	limiter := PerMinute(3, log.New(io.Discard))
	defer limiter.Stop()

	l := limiter.GetLimiter("10.0.0.1")
	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("request %d should be inside the burst", i+1)
		}
	}
	if l.Allow() {
		t.Fatalf("fourth request within the minute should be limited")
	}

	if other := limiter.GetLimiter("10.0.0.2"); !other.Allow() {
		t.Fatalf("limits must be tracked per IP")
	}
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(1), 1, log.New(io.Discard))
	defer limiter.Stop()

	limiter.GetLimiter("10.0.0.1")
	limiter.mu.Lock()
	limiter.visitors["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)
	limiter.mu.Unlock()
	limiter.GetLimiter("10.0.0.2")

	limiter.evictIdle(3 * time.Minute)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if _, ok := limiter.visitors["10.0.0.1"]; ok {
		t.Fatalf("idle visitor should be evicted")
	}
	if _, ok := limiter.visitors["10.0.0.2"]; !ok {
		t.Fatalf("active visitor should be kept")
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "headers") })
	r.GET("/api/crawler/status", func(c *gin.Context) { c.String(http.StatusOK, "status") })

	rec := performRequest(r, http.MethodGet, "/", map[string]string{"User-Agent": "test"})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	required := []string{"X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy", "Content-Security-Policy", "Strict-Transport-Security"}
	for _, header := range required {
		if rec.Header().Get(header) == "" {
			t.Fatalf("expected header %s to be set", header)
		}
	}
	if rec.Header().Get("Cache-Control") != "" {
		t.Fatalf("static routes should stay cacheable")
	}

	rec = performRequest(r, http.MethodGet, "/api/crawler/status", nil)
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("crawler routes must not be cached")
	}
}

func TestBuildCSPPolicy(t *testing.T) {
	t.Setenv("GIN_MODE", "release")

	if csp := buildCSPPolicy("/api/health"); strings.Contains(csp, "unsafe-inline") {
		t.Fatalf("release policy must not allow inline scripts: %s", csp)
	}
	if csp := buildCSPPolicy("/swagger/index.html"); !strings.Contains(csp, "unsafe-inline") {
		t.Fatalf("swagger UI needs inline scripts: %s", csp)
	}
}

func TestSecurityScanDetection(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(SecurityScanDetection(log.New(&buf)))
	r.GET("/.env", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/api/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rec := performRequest(r, http.MethodGet, "/.env", map[string]string{"User-Agent": "test"})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status for suspicious path: %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "security scan attempt") {
		t.Fatalf("expected scan to be logged, got %q", buf.String())
	}

	buf.Reset()
	performRequest(r, http.MethodGet, "/api/health", nil)
	if buf.Len() != 0 {
		t.Fatalf("normal requests must not be logged: %q", buf.String())
	}
}

func TestHTTPMethodFilter(t *testing.T) {
	r := gin.New()
	r.Use(HTTPMethodFilter([]string{http.MethodGet}))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rec := performRequest(r, http.MethodPost, "/", map[string]string{"User-Agent": "test"})
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for blocked method, got %d", rec.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(log.New(&buf)))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	performRequest(r, http.MethodGet, "/missing", nil)

	out := buf.String()
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "path=/missing") || !strings.Contains(out, "status=404") {
		t.Fatalf("unexpected log line %q", out)
	}
}
