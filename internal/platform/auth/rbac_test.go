package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func requireRoleWith(t *testing.T, granted []string, required ...string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if granted != nil {
		req = req.WithContext(WithRoles(context.Background(), granted...))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, RequireRole(required...)(okHandler)(c)
}

func TestRequireRole_Allowed(t *testing.T) {
	rec, err := requireRoleWith(t, []string{"doctor"}, "doctor", "patient")
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	_, err := requireRoleWith(t, []string{"patient"}, "doctor")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", httpErr.Code)
	}
}

func TestRequireRole_SuperAdminIsNotWildcard(t *testing.T) {
	_, err := requireRoleWith(t, []string{"super_admin"}, "doctor")
	if err == nil {
		t.Fatal("expected super_admin to be refused a doctor-only route")
	}
}

func TestRequireRole_NoRoles(t *testing.T) {
	_, err := requireRoleWith(t, nil, "patient")
	if err == nil {
		t.Fatal("expected error without roles")
	}
}

func TestHasRole(t *testing.T) {
	tests := []struct {
		granted  []string
		required []string
		want     bool
	}{
		{[]string{"doctor"}, []string{"doctor"}, true},
		{[]string{"doctor"}, []string{"patient", "doctor"}, true},
		{[]string{"patient"}, []string{"doctor"}, false},
		{nil, []string{"doctor"}, false},
		{[]string{"doctor"}, nil, false},
	}
	for _, tt := range tests {
		if got := HasRole(tt.granted, tt.required...); got != tt.want {
			t.Errorf("HasRole(%v, %v) = %v, want %v", tt.granted, tt.required, got, tt.want)
		}
	}
}
