package protocol

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/domain/rx"
	"github.com/clinicdesk/clinicdesk/internal/domain/visit"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

type Handler struct {
	matcher *Matcher
	session *visit.Session
}

func NewHandler(matcher *Matcher, session *visit.Session) *Handler {
	return &Handler{matcher: matcher, session: session}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RolePhysician))
	g.POST("/session/suggest", h.Suggest)
	g.GET("/protocols", h.List)
}

type suggestInput struct {
	// Text overrides the current visit's diagnosis when set.
	Text  string `json:"text"`
	Apply bool   `json:"apply"`
}

type suggestOutput struct {
	Protocol Protocol `json:"protocol"`
	Applied  bool     `json:"applied"`
}

// Suggest matches the diagnosis text against the knowledge base and,
// when requested, merges the result into the current visit.
func (h *Handler) Suggest(c echo.Context) error {
	var in suggestInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		cur := h.session.Current()
		if cur == nil {
			return echo.NewHTTPError(http.StatusConflict, visit.ErrNoActivePatient.Error())
		}
		text = cur.Notes.Diagnosis
	}

	p, err := h.matcher.Suggest(c.Request().Context(), text)
	if err != nil {
		// Client went away mid-delay; nothing was applied.
		return echo.NewHTTPError(http.StatusRequestTimeout, err.Error())
	}

	out := suggestOutput{Protocol: p}
	if in.Apply {
		err := h.session.WithCurrent(func(v *visit.Visit, ed *rx.Editor) error {
			Apply(p, &v.Notes, ed)
			return nil
		})
		if err != nil {
			if errors.Is(err, visit.ErrNoActivePatient) {
				return echo.NewHTTPError(http.StatusConflict, err.Error())
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		out.Applied = true
	}
	return c.JSON(http.StatusOK, out)
}

// List exposes the knowledge base read-only, for the reference panel.
func (h *Handler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.matcher.table)
}
