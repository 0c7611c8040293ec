package customer

import (
	"net/http"

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "pharmacist", "cashier"))
	g.POST("/pharmacy/customers", h.SaveCustomer)
	g.GET("/pharmacy/customers", h.ListCustomers)
	g.GET("/pharmacy/customers/:id", h.GetCustomer)
}

// SaveCustomer registers a walk-in customer. A repeat customer presenting the
// same national ID gets their record updated instead of duplicated.
func (h *Handler) SaveCustomer(c echo.Context) error {
	var cust Customer
	if err := c.Bind(&cust); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.Save(c.Request().Context(), &cust)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if created {
		return c.JSON(http.StatusCreated, cust)
	}
	return c.JSON(http.StatusOK, cust)
}

func (h *Handler) GetCustomer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cust, err := h.svc.GetCustomer(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "customer not found")
	}
	return c.JSON(http.StatusOK, cust)
}

func (h *Handler) ListCustomers(c echo.Context) error {
	pg := pagination.FromContext(c)

	if q := c.QueryParam("q"); q != "" {
		custs, total, err := h.svc.SearchCustomers(c.Request().Context(), q, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(custs, total, pg.Limit, pg.Offset))
	}

	custs, total, err := h.svc.ListCustomers(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(custs, total, pg.Limit, pg.Offset))
}
