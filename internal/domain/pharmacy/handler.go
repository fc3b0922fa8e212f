package pharmacy

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hospdash/hospdash/internal/platform/auth"
	"github.com/hospdash/hospdash/internal/platform/validation"
	"github.com/hospdash/hospdash/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/pharmacists", auth.RequireRole(auth.RolePharmacist))
	g.GET("/medicines", h.ListMedicines)
	g.POST("/medicines", h.AddMedicine)
	g.POST("/giveMedicine", h.GiveMedicine)
	g.GET("/dispenses", h.ListDispenses)
}

func (h *Handler) ListMedicines(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListMedicines(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) AddMedicine(c echo.Context) error {
	var req AddMedicineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m, err := h.svc.AddMedicine(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GiveMedicine(c echo.Context) error {
	var req GiveMedicineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	d, err := h.svc.Give(ctx, &req, auth.UserIDFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListDispenses(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDispenses(c.Request().Context(), c.QueryParam("patient"), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrMedicineNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Medicine not found")
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	case errors.Is(err, ErrOutOfStock):
		return echo.NewHTTPError(http.StatusConflict, "Out of stock")
	case errors.Is(err, ErrExpired):
		return echo.NewHTTPError(http.StatusConflict, "Medicine has expired")
	case errors.Is(err, ErrDuplicateMedicine):
		return echo.NewHTTPError(http.StatusConflict, "Medicine already exists")
	case validation.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
