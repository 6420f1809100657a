package identity

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinithetics/emr/internal/platform/auth"
	"github.com/clinithetics/emr/internal/platform/validation"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts sign-up on the auth group and the doctor directory
// on the API group.
func (h *Handler) RegisterRoutes(authGroup *echo.Group, api *echo.Group) {
	authGroup.POST("/signup", h.SignUp)

	api.GET("/doctors", h.ListDoctors, auth.RequireRole(RolePatient.String(), RoleDoctor.String(), RoleSuperAdmin.String()))
}

// AuthHTTPError maps a sign-in or sign-up failure to a response carrying
// the user-facing message.
func AuthHTTPError(err error) *echo.HTTPError {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrAccountSuspended):
		code = http.StatusUnauthorized
	case errors.Is(err, ErrDuplicateEmail):
		code = http.StatusConflict
	case errors.Is(err, ErrWeakPassword):
		code = http.StatusUnprocessableEntity
	}
	return echo.NewHTTPError(code, AuthMessage(err))
}

func (h *Handler) SignUp(c echo.Context) error {
	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validation.HTTPError(err)
	}
	id, err := h.svc.SignUp(c.Request().Context(), req)
	if errors.Is(err, ErrRoleNotSelectable) {
		return validation.HTTPError(validation.FieldErrors{"role": "must be one of: patient, doctor"})
	}
	if err != nil {
		return AuthHTTPError(err)
	}
	return c.JSON(http.StatusCreated, id)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	doctors, err := h.svc.ListDoctors(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load doctors")
	}
	if doctors == nil {
		doctors = []Profile{}
	}
	return c.JSON(http.StatusOK, doctors)
}
