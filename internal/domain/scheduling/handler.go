package scheduling

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/platform/auth"
	"github.com/clinithetics/emr/internal/platform/validation"
)

// Module names refreshed in the caller's workspace after a booking.
const (
	ModuleAppointments = "appointments"
	ModuleTelehealth   = "telehealth"
)

// RefreshFunc reloads the named modules of the caller's session.
type RefreshFunc func(ctx context.Context, modules ...string)

type Handler struct {
	svc     *Service
	refresh RefreshFunc
}

func NewHandler(svc *Service, refresh RefreshFunc) *Handler {
	if refresh == nil {
		refresh = func(context.Context, ...string) {}
	}
	return &Handler{svc: svc, refresh: refresh}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments", h.Book, auth.RequireRole(identity.RolePatient.String()))
}

func (h *Handler) Book(c echo.Context) error {
	patientID, ok := auth.UserUUIDFromContext(c.Request().Context())
	if !ok {
		return auth.Unauthenticated("authentication required")
	}
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validation.HTTPError(err)
	}
	appt, err := h.svc.Book(c.Request().Context(), patientID, req)
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		return validation.HTTPError(fe)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not book appointment")
	}
	modules := []string{ModuleAppointments}
	if appt.IsTelehealth() {
		modules = append(modules, ModuleTelehealth)
	}
	h.refresh(c.Request().Context(), modules...)
	return c.JSON(http.StatusCreated, appt)
}
