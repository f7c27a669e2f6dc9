package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler serves the login endpoint that exchanges the clinic PIN for a
// bearer token.
type Handler struct {
	secret string
	pin    string
}

func NewHandler(secret, pin string) *Handler {
	return &Handler{secret: secret, pin: pin}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/login", h.Login)
}

type loginRequest struct {
	PIN string `json:"pin"`
}

type loginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if subtle.ConstantTimeCompare([]byte(req.PIN), []byte(h.pin)) != 1 {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid pin")
	}
	token, err := IssueToken(h.secret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, Role: RolePhysician})
}
