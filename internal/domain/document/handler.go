package document

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/domain/visit"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

type Handler struct {
	gen *Generator
}

func NewHandler(gen *Generator) *Handler {
	return &Handler{gen: gen}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RolePhysician))
	g.GET("/session/document", h.Generate)
}

// Generate saves the current visit and returns the printable document.
// ?format=html returns raw HTML for the print frame; the default is the
// JSON envelope with the save outcome.
func (h *Handler) Generate(c echo.Context) error {
	doc, err := h.gen.Generate(c.Request().Context())
	if err != nil {
		if errors.Is(err, visit.ErrNoActivePatient) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if c.QueryParam("format") == "html" {
		return c.HTML(http.StatusOK, doc.HTML)
	}
	return c.JSON(http.StatusOK, doc)
}
