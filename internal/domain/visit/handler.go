package visit

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/domain/registry"
	"github.com/clinicdesk/clinicdesk/internal/domain/rx"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/bmi"
)

type Handler struct {
	session *Session
}

func NewHandler(session *Session) *Handler {
	return &Handler{session: session}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RolePhysician))

	g.GET("/session", h.Snapshot)
	g.DELETE("/session", h.Clear)
	g.POST("/session/patient/:id", h.LoadPatient)
	g.POST("/session/history/:visitId", h.LoadHistory)
	g.PUT("/session/notes", h.SetNotes)
	g.PUT("/session/vitals", h.SetVitals)
	g.PUT("/session/snapshot", h.SetPatientSnapshot)
	g.POST("/session/save", h.Save)

	g.POST("/session/rx", h.AddRx)
	g.POST("/session/rx/:id/edit", h.BeginEditRx)
	g.DELETE("/session/rx/edit", h.CancelEditRx)
	g.DELETE("/session/rx/:id", h.DeleteRx)

	g.GET("/visits", h.ListVisits)
	g.GET("/visits/:id", h.GetVisit)
}

// SessionSnapshot is the pull-model view of the session: the client renders
// from this after every mutation instead of tracking deltas.
type SessionSnapshot struct {
	State     string            `json:"state"`
	Patient   *registry.Patient `json:"patient,omitempty"`
	Visit     *Visit            `json:"visit,omitempty"`
	EditingID string            `json:"editing_id,omitempty"`
	BMI       *bmi.Result       `json:"bmi,omitempty"`
}

func (h *Handler) snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		State:   h.session.State(),
		Patient: h.session.ActivePatient(),
		Visit:   h.session.Current(),
	}
	if id := h.session.EditingID(); id != uuid.Nil {
		snap.EditingID = id.String()
	}
	if snap.Visit != nil {
		if r, ok := bmi.Calculate(snap.Visit.Vitals.Weight, snap.Visit.Vitals.Height); ok {
			snap.BMI = &r
		}
	}
	return snap
}

func (h *Handler) Snapshot(c echo.Context) error {
	return c.JSON(http.StatusOK, h.snapshot())
}

func (h *Handler) Clear(c echo.Context) error {
	h.session.Clear()
	return c.JSON(http.StatusOK, h.snapshot())
}

func (h *Handler) LoadPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if _, err := h.session.LoadPatient(c.Request().Context(), id); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.snapshot())
}

func (h *Handler) LoadHistory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("visitId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	if _, err := h.session.LoadHistory(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrVisitNotFound) || errors.Is(err, registry.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.snapshot())
}

func (h *Handler) SetNotes(c echo.Context) error {
	var n Notes
	if err := c.Bind(&n); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.session.SetNotes(n); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, h.snapshot())
}

func (h *Handler) SetVitals(c echo.Context) error {
	var v Vitals
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.session.SetVitals(v); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, h.snapshot())
}

type snapshotInput struct {
	Allergies string `json:"allergies"`
	Chronic   string `json:"chronic"`
}

func (h *Handler) SetPatientSnapshot(c echo.Context) error {
	var in snapshotInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.session.SetPatientSnapshot(in.Allergies, in.Chronic); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, h.snapshot())
}

type addRxInput struct {
	rx.Item
	Confirm bool `json:"confirm"`
}

func (h *Handler) AddRx(c echo.Context) error {
	var in addRxInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	_, err := h.session.AddRx(in.Item, in.Confirm)
	if err != nil {
		var conflict *rx.SafetyConflictError
		switch {
		case errors.As(err, &conflict):
			return c.JSON(http.StatusConflict, map[string]string{
				"error":     "allergy conflict",
				"drug":      conflict.Drug,
				"allergies": conflict.Allergies,
			})
		case errors.Is(err, rx.ErrDrugRequired):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNoActivePatient):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, h.snapshot())
}

func (h *Handler) BeginEditRx(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	item, ok := h.session.BeginEditRx(id)
	return c.JSON(http.StatusOK, map[string]any{
		"editing": ok,
		"item":    item,
	})
}

func (h *Handler) CancelEditRx(c echo.Context) error {
	h.session.CancelEditRx()
	return c.JSON(http.StatusOK, h.snapshot())
}

func (h *Handler) DeleteRx(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	h.session.DeleteRx(id)
	return c.JSON(http.StatusOK, h.snapshot())
}

func (h *Handler) Save(c echo.Context) error {
	res, err := h.session.Save(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ListVisits(c echo.Context) error {
	pid, err := uuid.Parse(c.QueryParam("patient"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	visits := h.session.VisitsFor(pid)
	if visits == nil {
		visits = []*Visit{}
	}
	return c.JSON(http.StatusOK, visits)
}

func (h *Handler) GetVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := h.session.GetVisit(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	return c.JSON(http.StatusOK, v)
}
