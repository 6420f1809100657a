package dashboard

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinithetics/emr/internal/platform/auth"
	"github.com/clinithetics/emr/internal/platform/validation"
	"github.com/clinithetics/emr/pkg/pagination"
)

const workspaceKey = "workspace"

// AccessDenied is the message of a session whose role could not be resolved.
const AccessDenied = "Access Denied"

type Handler struct {
	registry *Registry
	log      zerolog.Logger
}

func NewHandler(reg *Registry, log zerolog.Logger) *Handler {
	return &Handler{registry: reg, log: log}
}

// RegisterRoutes mounts the dashboard on the API group. The group must
// already run Middleware.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/dashboard")
	g.GET("", h.Shell)
	g.GET("/:module", h.Module)
	g.POST("/:module/refresh", h.Refresh)
	g.PATCH("/:module/items/:id/status", h.UpdateStatus)
}

// Middleware attaches the session's workspace to every protected API
// request and puts its role into the request context, so that
// auth.RequireRole works downstream. Denied sessions stop here with 403.
func (h *Handler) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if auth.IsPublicPath(c.Path()) {
				return next(c)
			}
			claims := auth.ClaimsFromContext(c)
			if claims == nil {
				return auth.Unauthenticated("authentication required")
			}
			ctx := c.Request().Context()
			w, err := h.registry.Ensure(ctx, claims)
			if err != nil {
				return auth.Unauthenticated("invalid session")
			}
			switch route := w.Route(); {
			case route == RouteDenied:
				return echo.NewHTTPError(http.StatusForbidden, AccessDenied)
			case !route.IsView():
				return auth.Unauthenticated("authentication required")
			}
			c.Set(workspaceKey, w)
			c.SetRequest(c.Request().WithContext(auth.WithRoles(ctx, w.Role().String())))
			return next(c)
		}
	}
}

func workspaceFrom(c echo.Context) (*Workspace, error) {
	w, ok := c.Get(workspaceKey).(*Workspace)
	if !ok {
		return nil, auth.Unauthenticated("authentication required")
	}
	return w, nil
}

func panelFrom(c echo.Context) (*Workspace, Panel, error) {
	w, err := workspaceFrom(c)
	if err != nil {
		return nil, nil, err
	}
	p, err := w.Panel(c.Param("module"))
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusNotFound, "module not found")
	}
	return w, p, nil
}

// Shell loads every module not loaded yet and returns tabs and overview.
func (h *Handler) Shell(c echo.Context) error {
	w, err := workspaceFrom(c)
	if err != nil {
		return err
	}
	if err := w.LoadIdle(c.Request().Context()); err != nil {
		h.log.Warn().Err(err).Str("session_id", w.SessionID()).Msg("dashboard load incomplete")
	}
	return c.JSON(http.StatusOK, w.Shell())
}

// Module returns one module's view. q filters locally; limit and offset
// page the filtered rows.
func (h *Handler) Module(c echo.Context) error {
	w, p, err := panelFrom(c)
	if err != nil {
		return err
	}
	if p.State() == StateIdle {
		_ = w.Load(c.Request().Context(), p)
	}
	return c.JSON(http.StatusOK, p.View(c.QueryParam("q"), pagination.FromContext(c)))
}

func (h *Handler) Refresh(c echo.Context) error {
	w, p, err := panelFrom(c)
	if err != nil {
		return err
	}
	_ = w.Load(c.Request().Context(), p)
	return c.JSON(http.StatusOK, p.View(c.QueryParam("q"), pagination.FromContext(c)))
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type StatusResponse struct {
	Item         interface{}  `json:"item"`
	Notification Notification `json:"notification"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	_, p, err := panelFrom(c)
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validation.HTTPError(err)
	}

	item, err := p.Update(c.Request().Context(), c.Param("id"), req.Status)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, StatusResponse{
			Item:         item,
			Notification: Notification{Level: LevelSuccess, Message: "Status updated."},
		})
	case errors.Is(err, ErrNotInScope):
		return echo.NewHTTPError(http.StatusNotFound, "item not found")
	case errors.Is(err, ErrInvalidStatus):
		return validation.HTTPError(validation.FieldErrors{"status": "is invalid"})
	case errors.Is(err, ErrReadOnly), errors.Is(err, ErrStatusNotAllowed):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		h.log.Error().Err(err).Str("module", p.Name()).Str("id", c.Param("id")).Msg("status update failed")
		return echo.NewHTTPError(http.StatusBadGateway, map[string]interface{}{
			"message":      "could not update status",
			"notification": Notification{Level: LevelError, Message: "Could not update status. Please try again."},
		})
	}
}
