package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveSecurity(opt SecurityOptions, prep func(*http.Request), pre gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if prep != nil {
		prep(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	w := serveSecurity(SecurityOptions{}, nil, nil)
	h := w.Header()
	for k, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := h.Get(k); got != want {
			t.Fatalf("%s=%q want %q", k, got, want)
		}
	}
	for _, k := range []string{"Permissions-Policy", "Cache-Control", "Strict-Transport-Security", "Access-Control-Expose-Headers"} {
		if h.Get(k) != "" {
			t.Fatalf("%s should be unset", k)
		}
	}
}

func TestSecurityHeaders_ExposeRequestID(t *testing.T) {
	w := serveSecurity(SecurityOptions{}, nil, RequestID())
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != "X-Request-ID" {
		t.Fatalf("expose=%q", got)
	}

	w = serveSecurity(SecurityOptions{}, nil, func(c *gin.Context) {
		c.Header("X-Request-ID", "r")
		c.Header("Access-Control-Expose-Headers", "Content-Length")
		c.Next()
	})
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != "Content-Length, X-Request-ID" {
		t.Fatalf("expose append=%q", got)
	}
}

func TestSecurityHeaders_PolicyNoStoreHSTS(t *testing.T) {
	opt := SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour, NoStore: true, EnablePolicy: true}
	w := serveSecurity(opt, func(r *http.Request) { r.TLS = &tls.ConnectionState{} }, nil)
	h := w.Header()
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("no-store headers missing: %v", h)
	}
	if !strings.HasPrefix(h.Get("Permissions-Policy"), "geolocation=()") {
		t.Fatalf("policy missing: %v", h)
	}
	if got := h.Get("Strict-Transport-Security"); got != "max-age=3600; includeSubDomains; preload" {
		t.Fatalf("hsts=%q", got)
	}

	// HSTS never on plain HTTP; default max-age behind a TLS-terminating proxy.
	if w := serveSecurity(SecurityOptions{EnableHSTS: true}, nil, nil); w.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("hsts set on plain http")
	}
	w = serveSecurity(SecurityOptions{EnableHSTS: true}, func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "HTTPS") }, nil)
	if got := w.Header().Get("Strict-Transport-Security"); !strings.HasPrefix(got, "max-age=15552000;") {
		t.Fatalf("default hsts=%q", got)
	}
}
