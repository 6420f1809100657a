package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runSecured(t *testing.T, req *http.Request, h echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	return rec, SecurityHeaders()(h)(c)
}

func TestSecurityHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/shell", nil)
	rec, err := runSecured(t, req, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err != nil {
		t.Fatal(err)
	}

	for name, want := range map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"X-XSS-Protection":        "0",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":         "no-referrer",
		"Permissions-Policy":      "camera=(), microphone=(), geolocation=()",
		"Cache-Control":           "no-store",
	} {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if got := rec.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("plain http should not get HSTS, got %q", got)
	}
}

func TestSecurityHeaders_HSTSBehindHTTPSProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/shell", nil)
	req.Header.Set(echo.HeaderXForwardedProto, "https")
	rec, err := runSecured(t, req, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubdomains" {
		t.Errorf("unexpected HSTS header %q", got)
	}
}

func TestSecurityHeaders_ErrorResponsesAreCovered(t *testing.T) {
	boom := errors.New("boom")
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/dashboard/appointments/x/status", nil)
	rec, err := runSecured(t, req, func(echo.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("headers must be set before the handler fails")
	}
}
