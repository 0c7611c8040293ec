package medicine

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
	// Catalog search is open to any authenticated staff role.
	read := api.Group("", auth.RequireRole("admin", "pharmacist", "cashier"))
	read.GET("/medicines/search", h.SearchMedicines)
	read.GET("/medicines/:id", h.GetMedicine)

	// Catalog writes are a pharmacist concern.
	write := api.Group("", auth.RequireRole("admin", "pharmacist"))
	write.POST("/pharmacy/medicines/add", h.AddMedicine)
	write.PUT("/pharmacy/medicines/:id", h.UpdateMedicine)
}

func (h *Handler) SearchMedicines(c echo.Context) error {
	pg := pagination.FromContext(c)
	meds, total, err := h.svc.SearchMedicines(c.Request().Context(), c.QueryParam("q"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(meds, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetMedicine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	med, err := h.svc.GetMedicine(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "medicine not found")
	}
	return c.JSON(http.StatusOK, med)
}

func (h *Handler) AddMedicine(c echo.Context) error {
	var med Medicine
	if err := c.Bind(&med); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddMedicine(c.Request().Context(), &med); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, med)
}

func (h *Handler) UpdateMedicine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var med Medicine
	if err := c.Bind(&med); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	med.ID = id
	if err := h.svc.UpdateMedicine(c.Request().Context(), &med); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, med)
}
