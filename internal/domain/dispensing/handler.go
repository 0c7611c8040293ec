package dispensing

import (
	"errors"
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
	g := api.Group("", auth.RequireRole("admin", "pharmacist"))
	g.POST("/pharmacy/dispensing/:prescriptionId/start", h.Start)
	g.GET("/pharmacy/dispensing/:prescriptionId", h.GetEncounter)
	g.POST("/pharmacy/dispensing/:prescriptionId/advance", h.Advance)
	g.POST("/pharmacy/dispensing/:prescriptionId/back", h.Back)
	g.POST("/pharmacy/dispensing/:prescriptionId/assign-batch", h.AssignBatch)
	g.POST("/pharmacy/dispensing/:prescriptionId/payment", h.SetPayment)
	g.POST("/pharmacy/dispensing/:prescriptionId/cancel", h.CancelEncounter)
	g.POST("/pharmacy/verify-barcode", h.VerifyBarcode)
	g.POST("/pharmacy/print-medication-label", h.PrintLabels)
	g.POST("/pharmacy/prescriptions/:id/complete-dispensing", h.Complete)
}

// httpErr maps workflow errors onto status codes: missing encounters are 404,
// stale versions and gate violations 409, everything else 400.
func httpErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrVersionConflict), errors.Is(err, ErrAlreadyOpen), errors.Is(err, ErrGate):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func prescriptionID(c echo.Context, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	return id, nil
}

func (h *Handler) Start(c echo.Context) error {
	id, err := prescriptionID(c, "prescriptionId")
	if err != nil {
		return err
	}
	enc, err := h.svc.Start(c.Request().Context(), id)
	if err != nil {
		return httpErr(err)
	}
	return c.JSON(http.StatusCreated, enc)
}

func (h *Handler) GetEncounter(c echo.Context) error {
	id, err := prescriptionID(c, "prescriptionId")
	if err != nil {
		return err
	}
	enc, err := h.svc.Get(id)
	if err != nil {
		return httpErr(err)
	}
	return c.JSON(http.StatusOK, enc)
}

type stageRequest struct {
	Stage   Stage `json:"stage"`
	Version int   `json:"version"`
}

func (h *Handler) Advance(c echo.Context) error {
	id, err := prescriptionID(c, "prescriptionId")
	if err != nil {
		return err
	}
	var req stageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	enc, err := h.svc.Advance(id, req.Version, req.Stage)
	if err != nil {
		return httpErr(err)
	}
	return c.JSON(http.StatusOK, enc)
}

func (h *Handler) Back(c echo.Context) error {
	id, err := prescriptionID(c, "prescriptionId")
	if err != nil {
		return err
	}
	var req stageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	enc, err := h.svc.Back(id, req.Version, req.Stage)
	if err != nil {
		return httpErr(err)
	}
	return c.JSON(http.StatusOK, enc)
}

type verifyRequest struct {
	PrescriptionID uuid.UUID `json:"prescriptionId"`
	MedicineID     uuid.UUID `json:"medicineId"`
	Barcode        string    `json:"barcode"`
}

// VerifyBarcode always answers 200 on a completed scan; a wrong barcode is a
// success=false payload, not an HTTP error.
func (h *Handler) VerifyBarcode(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Barcode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "barcode is required")
	}
	res, err := h.svc.VerifyBarcode(c.Request().Context(), req.PrescriptionID, req.MedicineID, req.Barcode)
	if err != nil {
		return httpErr(err)
	}
	return c.JSON(http.StatusOK, res)
}

type assignBatchRequest struct {
	Version     int       `json:"version"`
	MedicineID  uuid.UUID `json:"medicine_id"`
	BatchNumber string    `json:"batch_number"`
}

func (h *Handler) AssignBatch(c echo.Context) error {
	id, err := prescriptionID(c, "prescriptionId")
	if err != nil {
		return err
	}
	var req assignBatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	enc, err := h.svc.AssignBatch(c.Request().Context(), id, req.Version, req.MedicineID, req.BatchNumber)
	if err != nil {
		return httpErr(err)
	}
	return c.JSON(http.StatusOK, enc)
}

type paymentRequest struct {
	Version int     `json:"version"`
	Payment Payment `json:"payment"`
}

func (h *Handler) SetPayment(c echo.Context) error {
	id, err := prescriptionID(c, "prescriptionId")
	if err != nil {
		return err
	}
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	enc, err := h.svc.SetPayment(c.Request().Context(), id, req.Version, req.Payment)
	if err != nil {
		return httpErr(err)
	}
	return c.JSON(http.StatusOK, enc)
}

type printRequest struct {
	PrescriptionID uuid.UUID   `json:"prescriptionId"`
	Items          []uuid.UUID `json:"items,omitempty"`
}

func (h *Handler) PrintLabels(c echo.Context) error {
	var req printRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pharmacist := auth.UserNameFromContext(c.Request().Context())
	labels, err := h.svc.PrintLabels(req.PrescriptionID, req.Items, pharmacist)
	if err != nil {
		return httpErr(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"labels": labels})
}

type completeRequest struct {
	Version int `json:"version"`
	// LabelPrinted is accepted from the terminal for the audit payload but is
	// not a completion gate.
	LabelPrinted bool `json:"labelPrinted"`
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := prescriptionID(c, "id")
	if err != nil {
		return err
	}
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sale, err := h.svc.Complete(c.Request().Context(), id, req.Version, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return httpErr(err)
	}
	return c.JSON(http.StatusOK, sale)
}

func (h *Handler) CancelEncounter(c echo.Context) error {
	id, err := prescriptionID(c, "prescriptionId")
	if err != nil {
		return err
	}
	if err := h.svc.Cancel(id); err != nil {
		return httpErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}
