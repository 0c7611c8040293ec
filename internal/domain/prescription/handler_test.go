package prescription

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *mockRepo, *echo.Echo) {
	repo := newMockRepo()
	h := NewHandler(newTestService(repo), nil)
	return h, repo, echo.New()
}

func TestHandler_CreateManual(t *testing.T) {
	h, _, e := newTestHandler()

	custID := uuid.New()
	body := `{"customer_id":"` + custID.String() + `","items":[{"medicine_name":"Paracetamol 500mg","quantity":20,"unit_price":0.25,"instructions":"t1 tds"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pharmacy/prescriptions/manual", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateManual(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var p Prescription
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.Status != StatusPending {
		t.Errorf("expected pending, got %s", p.Status)
	}
	if len(p.Items) != 1 || p.Items[0].Total != 5.00 {
		t.Errorf("expected one item with total 5.00, got %+v", p.Items)
	}
	if p.Items[0].Interpreted == "" {
		t.Error("expected instructions interpreted on create")
	}
}

func TestHandler_CreateManual_MissingCustomer(t *testing.T) {
	h, _, e := newTestHandler()

	body := `{"items":[{"medicine_name":"Paracetamol 500mg","quantity":1,"unit_price":0.25}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pharmacy/prescriptions/manual", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateManual(c)
	if err == nil {
		t.Fatal("expected error for missing customer_id")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_GetPrescription_NotFound(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetPrescription(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404 HTTPError, got %v", err)
	}
}

func TestHandler_PendingDispensing(t *testing.T) {
	h, repo, e := newTestHandler()

	p := &Prescription{CustomerID: uuid.New(), Status: StatusPending, Items: []*PrescriptionItem{item("Paracetamol 500mg", 1, 0.25)}}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("seed prescription: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pharmacy/prescriptions/pending-dispensing", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.PendingDispensing(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data  []*Prescription `json:"data"`
		Total int             `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Errorf("expected one pending prescription, got %+v", resp)
	}
}

func TestHandler_CancelPrescription_Dispensed(t *testing.T) {
	h, repo, e := newTestHandler()

	p := &Prescription{CustomerID: uuid.New(), Status: StatusDispensed, Items: []*PrescriptionItem{item("Paracetamol 500mg", 1, 0.25)}}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("seed prescription: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	err := h.CancelPrescription(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Errorf("expected 409 HTTPError, got %v", err)
	}
}
