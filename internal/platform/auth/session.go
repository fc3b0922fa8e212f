package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SessionResponse describes the caller. The dashboard reads its role from
// here rather than from anything stored client side.
type SessionResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type SessionHandler struct{}

func NewSessionHandler() *SessionHandler { return &SessionHandler{} }

func (h *SessionHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/session", h.Get)
}

func (h *SessionHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	username := UserIDFromContext(ctx)
	if username == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return c.JSON(http.StatusOK, SessionResponse{Username: username, Role: RoleFromContext(ctx)})
}
