package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// chain mirrors the order main installs the ambient middleware in.
func chain(buf *bytes.Buffer, h echo.HandlerFunc) *echo.Echo {
	logger := zerolog.New(buf)
	e := echo.New()
	e.Use(Recovery(logger), RequestID(), Logger(logger))
	e.GET("/api/v1/dashboard/:module", h)
	return e
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestRequestID(t *testing.T) {
	var seen string
	e := chain(&bytes.Buffer{}, func(c echo.Context) error {
		seen, _ = c.Get("request_id").(string)
		return c.NoContent(http.StatusOK)
	})

	cases := []struct {
		name, sent string
		keep       bool
	}{
		{"minted", "", false},
		{"propagated", "trace-abc", true},
		{"oversized replaced", strings.Repeat("r", maxRequestIDLength+1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/claims", nil)
			if tc.sent != "" {
				req.Header.Set(RequestIDHeader, tc.sent)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if got == "" || got != seen {
				t.Fatalf("header %q, context %q", got, seen)
			}
			if tc.keep != (got == tc.sent) {
				t.Errorf("sent %q, got %q", tc.sent, got)
			}
			if len(got) > maxRequestIDLength {
				t.Errorf("id of length %d escaped", len(got))
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		level  string
	}{
		{"ok", nil, http.StatusOK, "info"},
		{"forbidden", echo.NewHTTPError(http.StatusForbidden, "Access Denied"), http.StatusForbidden, "warn"},
		{"plain error", errors.New("pool closed"), http.StatusInternalServerError, "error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := chain(&buf, func(c echo.Context) error {
				if tc.err != nil {
					return tc.err
				}
				return c.NoContent(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/claims", nil)
			req.Header.Set(RequestIDHeader, "req-123")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("response status %d, want %d", rec.Code, tc.status)
			}
			lines := logLines(t, &buf)
			if len(lines) != 1 {
				t.Fatalf("expected one log line, got %d", len(lines))
			}
			entry := lines[0]
			if entry["level"] != tc.level || entry["status"] != float64(tc.status) {
				t.Errorf("logged %v/%v, want %s/%d", entry["level"], entry["status"], tc.level, tc.status)
			}
			if entry["request_id"] != "req-123" || entry["path"] != "/api/v1/dashboard/claims" {
				t.Errorf("unexpected fields %v", entry)
			}
		})
	}
}

func TestResponseStatus(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Response().WriteHeader(http.StatusCreated)

	if got := responseStatus(c, nil); got != http.StatusCreated {
		t.Errorf("got %d", got)
	}
	wrapped := errors.Join(errors.New("ctx"), echo.NewHTTPError(http.StatusNotFound))
	if got := responseStatus(c, wrapped); got != http.StatusNotFound {
		t.Errorf("got %d", got)
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	e := chain(&buf, func(echo.Context) error {
		var m map[string]int
		m["boom"]++
		return nil
	})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/claims", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal server error") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	var recovered bool
	for _, entry := range logLines(t, &buf) {
		if entry["message"] == "panic recovered" {
			recovered = true
			if entry["stack"] == "" || entry["route"] != "/api/v1/dashboard/:module" {
				t.Errorf("panic entry missing context: %v", entry)
			}
		}
	}
	if !recovered {
		t.Error("panic was not logged")
	}
}
