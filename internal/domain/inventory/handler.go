package inventory

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehutano/pharmacy-api/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "pharmacist", "cashier"))
	read.GET("/pharmacy/inventory/batches", h.ListBatches)

	write := api.Group("", auth.RequireRole("admin", "pharmacist"))
	write.POST("/pharmacy/inventory/batches", h.ReceiveBatch)
}

// ListBatches returns batches for a medicine in FEFO order.
func (h *Handler) ListBatches(c echo.Context) error {
	medicineID, err := uuid.Parse(c.QueryParam("medicine_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid medicine_id")
	}
	batches, err := h.svc.BatchesForMedicine(c.Request().Context(), medicineID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, batches)
}

func (h *Handler) ReceiveBatch(c echo.Context) error {
	var batch Batch
	if err := c.Bind(&batch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ReceiveBatch(c.Request().Context(), &batch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, batch)
}
