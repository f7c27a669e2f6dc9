package settings

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RolePhysician))
	g.GET("/settings", h.Get)
	g.PUT("/settings", h.Update)
}

func (h *Handler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Get())
}

func (h *Handler) Update(c echo.Context) error {
	var in Clinic
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.svc.Update(c.Request().Context(), in))
}
