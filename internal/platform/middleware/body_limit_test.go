package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func postBody(limit, body string, chunked bool, h echo.HandlerFunc) error {
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	if chunked {
		req.ContentLength = -1
	}
	c := echo.New().NewContext(req, httptest.NewRecorder())
	return BodyLimit(limit)(h)(c)
}

func is413(err error) bool {
	var he *echo.HTTPError
	return errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge
}

func TestBodyLimit_WithinLimit(t *testing.T) {
	payload := `{"email":"sarah@example.com","password":"secret123"}`
	var got string
	err := postBody("1K", payload, false, func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		got = string(b)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != payload {
		t.Errorf("body altered: %q", got)
	}
}

func TestBodyLimit_DeclaredLengthTooLarge(t *testing.T) {
	called := false
	err := postBody("1K", strings.Repeat("a", 2048), false, func(echo.Context) error {
		called = true
		return nil
	})
	if !is413(err) {
		t.Fatalf("expected 413, got %v", err)
	}
	if called {
		t.Error("handler must not run")
	}
}

func TestBodyLimit_ChunkedBodyTooLarge(t *testing.T) {
	err := postBody("1K", strings.Repeat("a", 4096), true, func(c echo.Context) error {
		_, err := io.ReadAll(c.Request().Body)
		return err
	})
	if !is413(err) {
		t.Fatalf("expected 413 while reading, got %v", err)
	}
}

func TestNormalizeLimit(t *testing.T) {
	for in, want := range map[string]string{
		"64K":   "64K",
		"2M":    "2M",
		"1024":  "1024",
		"":      defaultBodyLimit,
		"lots":  defaultBodyLimit,
		"0":     defaultBodyLimit,
		"-5K":   defaultBodyLimit,
		"10 MB": "10 MB",
	} {
		if got := normalizeLimit(in); got != want {
			t.Errorf("normalizeLimit(%q) = %q, want %q", in, got, want)
		}
	}
}
