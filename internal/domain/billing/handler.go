package billing

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public pricing endpoint.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/plans", h.ListPlans)
}

func (h *Handler) ListPlans(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Plans())
}
