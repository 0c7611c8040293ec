package prescription

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehutano/pharmacy-api/internal/platform/auth"
	"github.com/ehutano/pharmacy-api/internal/platform/ws"
	"github.com/ehutano/pharmacy-api/pkg/pagination"
)

type Handler struct {
	svc    *Service
	events ws.Publisher
}

func NewHandler(svc *Service, events ws.Publisher) *Handler {
	return &Handler{svc: svc, events: events}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "pharmacist"))
	g.POST("/pharmacy/prescriptions/manual", h.CreateManual)
	g.GET("/pharmacy/prescriptions/pending-dispensing", h.PendingDispensing)
	g.GET("/pharmacy/prescriptions/:id", h.GetPrescription)
	g.POST("/pharmacy/prescriptions/:id/cancel", h.CancelPrescription)
}

func (h *Handler) CreateManual(c echo.Context) error {
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if name := auth.UserNameFromContext(c.Request().Context()); name != "" {
		p.CreatedBy = &name
	}
	if err := h.svc.CreateManual(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if h.events != nil {
		_ = h.events.Publish(c.Request().Context(), ws.Event{
			Type:           ws.EventPrescriptionPending,
			Topic:          ws.TopicQueue,
			PrescriptionID: p.ID.String(),
		})
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPrescription(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) PendingDispensing(c echo.Context) error {
	pg := pagination.FromContext(c)
	rxs, total, err := h.svc.PendingDispensing(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(rxs, total, pg.Limit, pg.Offset))
}

func (h *Handler) CancelPrescription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Cancel(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
