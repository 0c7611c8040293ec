package pos

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehutano/pharmacy-api/internal/platform/auth"
	"github.com/ehutano/pharmacy-api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes exposes the read-only record book. Sales are created only by
// the dispensing completion flow, never directly over HTTP.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "pharmacist", "cashier"))
	g.GET("/pharmacy/sales", h.ListSales)
	g.GET("/pharmacy/sales/:id", h.GetSale)
	g.GET("/pharmacy/sales/daily-summary", h.DailySummary)
}

func (h *Handler) ListSales(c echo.Context) error {
	pg := pagination.FromContext(c)
	sales, total, err := h.svc.ListSales(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(sales, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetSale(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// Fall back to receipt reference lookup.
		sale, refErr := h.svc.GetByReference(c.Request().Context(), c.Param("id"))
		if refErr != nil {
			return echo.NewHTTPError(http.StatusNotFound, "sale not found")
		}
		return c.JSON(http.StatusOK, sale)
	}
	sale, err := h.svc.GetSale(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "sale not found")
	}
	return c.JSON(http.StatusOK, sale)
}

func (h *Handler) DailySummary(c echo.Context) error {
	day := time.Now().UTC()
	if d := c.QueryParam("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
		day = parsed
	}
	summary, err := h.svc.DailySummary(c.Request().Context(), day)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, summary)
}
