package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinithetics/emr/internal/domain/scheduling"
	"github.com/clinithetics/emr/internal/platform/auth"
	"github.com/clinithetics/emr/internal/platform/validation"
)

// withClaims stands in for the JWT middleware.
func withClaims(claims *auth.Claims) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims != nil {
				c.Set("claims", claims)
				c.SetRequest(c.Request().WithContext(sessionCtx(claims.ID)))
			}
			return next(c)
		}
	}
}

func newTestServer(f *fixture, claims *auth.Claims) *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	h := NewHandler(f.registry(), zerolog.Nop())

	api := e.Group("/api/v1", withClaims(claims), h.Middleware())
	h.RegisterRoutes(api)
	api.GET("/plans", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	api.GET("/doctor-only", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		auth.RequireRole("doctor"))
	return e
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestMiddleware_NoSessionRedirects(t *testing.T) {
	e := newTestServer(newFixture(), nil)

	rec := serve(e, http.MethodGet, "/api/v1/dashboard", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.SignInPath, decode(t, rec)["redirect"])
}

func TestMiddleware_PublicPathSkipsSession(t *testing.T) {
	e := newTestServer(newFixture(), nil)

	rec := serve(e, http.MethodGet, "/api/v1/plans", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_NoRoleIsAccessDenied(t *testing.T) {
	f := newFixture()
	stranger := claimsFor("s1", f.doctor, testNow.Add(time.Hour))
	delete(f.roles.roles, f.doctor)
	e := newTestServer(f, stranger)

	rec := serve(e, http.MethodGet, "/api/v1/dashboard", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, AccessDenied, decode(t, rec)["message"])

	rec = serve(e, http.MethodGet, "/api/v1/dashboard/appointments", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMiddleware_ProvidesRoleToRequireRole(t *testing.T) {
	f := newFixture()

	rec := serve(newTestServer(f, claimsFor("d", f.doctor, testNow.Add(time.Hour))), http.MethodGet, "/api/v1/doctor-only", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(newTestServer(f, claimsFor("p", f.patient, testNow.Add(time.Hour))), http.MethodGet, "/api/v1/doctor-only", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_Shell(t *testing.T) {
	f := newFixture()
	f.addAppointment(f.doctor, f.patient, testNow, "Consultation", scheduling.AppointmentScheduled)
	e := newTestServer(f, claimsFor("s1", f.doctor, testNow.Add(time.Hour)))

	rec := serve(e, http.MethodGet, "/api/v1/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "doctor", body["route"])
	assert.Equal(t, "doctor", body["role"])
	tabs := body["tabs"].([]interface{})
	require.Len(t, tabs, 6)
	assert.Equal(t, "overview", tabs[0].(map[string]interface{})["key"])
	assert.Equal(t, "ready", tabs[1].(map[string]interface{})["state"])
	assert.Len(t, body["stats"], 4)
}

func TestHandler_ModuleFiltersAndPages(t *testing.T) {
	f := newFixture()
	day := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	f.addAppointment(f.doctor, f.patient, day.Add(9*time.Hour), "Consultation", scheduling.AppointmentScheduled)
	f.addAppointment(f.doctor, f.patient, day.Add(11*time.Hour), "Consultation", scheduling.AppointmentScheduled)
	f.addAppointment(f.doctor, f.patient, day.Add(48*time.Hour), "Consultation", scheduling.AppointmentScheduled)
	e := newTestServer(f, claimsFor("s1", f.doctor, testNow.Add(time.Hour)))

	rec := serve(e, http.MethodGet, "/api/v1/dashboard/appointments?q=2024-03-14&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	page := body["page"].(map[string]interface{})
	assert.EqualValues(t, 2, page["total"])
	assert.Len(t, page["data"], 1)
	assert.Equal(t, true, page["has_more"])
	assert.EqualValues(t, 3, body["summary"].(map[string]interface{})["total"])
	assert.Equal(t, "ready", body["state"])
}

func TestHandler_UnknownModule(t *testing.T) {
	f := newFixture()
	e := newTestServer(f, claimsFor("s1", f.patient, testNow.Add(time.Hour)))

	rec := serve(e, http.MethodGet, "/api/v1/dashboard/users", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Refresh(t *testing.T) {
	f := newFixture()
	e := newTestServer(f, claimsFor("s1", f.doctor, testNow.Add(time.Hour)))
	require.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/v1/dashboard/appointments", "").Code)

	f.addAppointment(f.doctor, f.patient, testNow, "Consultation", scheduling.AppointmentScheduled)
	rec := serve(e, http.MethodPost, "/api/v1/dashboard/appointments/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["summary"].(map[string]interface{})["total"])
}

func TestHandler_UpdateStatus(t *testing.T) {
	f := newFixture()
	a := f.addAppointment(f.doctor, f.patient, testNow, "Consultation", scheduling.AppointmentScheduled)
	e := newTestServer(f, claimsFor("s1", f.doctor, testNow.Add(time.Hour)))
	require.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/v1/dashboard/appointments", "").Code)

	rec := serve(e, http.MethodPatch, "/api/v1/dashboard/appointments/items/"+a.ID.String()+"/status", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "completed", body["item"].(map[string]interface{})["status"])
	assert.Equal(t, "Status updated.", body["notification"].(map[string]interface{})["message"])
	assert.Equal(t, scheduling.AppointmentCompleted, a.Status)
}

func TestHandler_UpdateStatusErrors(t *testing.T) {
	f := newFixture()
	a := f.addAppointment(f.doctor, f.patient, testNow, "Consultation", scheduling.AppointmentScheduled)
	other := f.addAppointment(f.otherDoctor, f.patient, testNow, "Consultation", scheduling.AppointmentScheduled)

	doctor := newTestServer(f, claimsFor("d", f.doctor, testNow.Add(time.Hour)))
	patient := newTestServer(f, claimsFor("p", f.patient, testNow.Add(time.Hour)))
	require.Equal(t, http.StatusOK, serve(doctor, http.MethodGet, "/api/v1/dashboard/appointments", "").Code)
	require.Equal(t, http.StatusOK, serve(patient, http.MethodGet, "/api/v1/dashboard/appointments", "").Code)

	path := func(id string) string { return "/api/v1/dashboard/appointments/items/" + id + "/status" }

	rec := serve(doctor, http.MethodPatch, path(a.ID.String()), `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(doctor, http.MethodPatch, path(a.ID.String()), `{"status":"teleported"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "is invalid", decode(t, rec)["fields"].(map[string]interface{})["status"])

	rec = serve(doctor, http.MethodPatch, path(other.ID.String()), `{"status":"completed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, scheduling.AppointmentScheduled, other.Status)

	rec = serve(patient, http.MethodPatch, path(a.ID.String()), `{"status":"completed"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.appts.updateErr = errors.New("connection refused")
	rec = serve(doctor, http.MethodPatch, path(a.ID.String()), `{"status":"completed"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	note := decode(t, rec)["notification"].(map[string]interface{})
	assert.Equal(t, LevelError, note["level"])
	assert.Equal(t, scheduling.AppointmentScheduled, a.Status)
}
