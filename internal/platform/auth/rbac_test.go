package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func requestWithRoles(mw echo.MiddlewareFunc, roles []string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), UserRolesKey, roles)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRequireRole_Allowed(t *testing.T) {
	rec := requestWithRoles(RequireRole("pharmacist"), []string{"pharmacist"})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_AdminAlwaysAllowed(t *testing.T) {
	rec := requestWithRoles(RequireRole("pharmacist", "cashier"), []string{"admin"})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d", rec.Code)
	}
}

func TestRequireRole_Forbidden(t *testing.T) {
	rec := requestWithRoles(RequireRole("pharmacist"), []string{"cashier"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestRequireRole_NoRoles(t *testing.T) {
	rec := requestWithRoles(RequireRole("pharmacist"), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 with no roles, got %d", rec.Code)
	}
}
