package clinical

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/platform/auth"
	"github.com/clinithetics/emr/internal/platform/validation"
)

const (
	ModuleRecords       = "records"
	ModulePrescriptions = "prescriptions"
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
	doctors := api.Group("", auth.RequireRole(identity.RoleDoctor.String()))
	doctors.POST("/records", h.CreateRecord)
	doctors.POST("/prescriptions", h.CreatePrescription)
}

func createError(err error, what string) error {
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		return validation.HTTPError(fe)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "could not create "+what)
}

func (h *Handler) CreateRecord(c echo.Context) error {
	doctorID, ok := auth.UserUUIDFromContext(c.Request().Context())
	if !ok {
		return auth.Unauthenticated("authentication required")
	}
	var req RecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validation.HTTPError(err)
	}
	rec, err := h.svc.CreateRecord(c.Request().Context(), doctorID, req)
	if err != nil {
		return createError(err, "medical record")
	}
	h.refresh(c.Request().Context(), ModuleRecords)
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	doctorID, ok := auth.UserUUIDFromContext(c.Request().Context())
	if !ok {
		return auth.Unauthenticated("authentication required")
	}
	var req PrescriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validation.HTTPError(err)
	}
	p, err := h.svc.Prescribe(c.Request().Context(), doctorID, req)
	if err != nil {
		return createError(err, "prescription")
	}
	h.refresh(c.Request().Context(), ModulePrescriptions)
	return c.JSON(http.StatusCreated, p)
}
