package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testKey = []byte("test-signing-key")

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doRequest(mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, context.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured context.Context
	handler := mw(func(c echo.Context) error {
		captured = c.Request().Context()
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, captured
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	rec, _ := doRequest(mw, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddleware_MalformedHeader(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	rec, _ := doRequest(mw, "Token abc")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	tok := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name:  "T. Moyo",
		Roles: []string{"pharmacist"},
	})

	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	rec, ctx := doRequest(mw, "Bearer "+tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if UserIDFromContext(ctx) != "user-1" {
		t.Errorf("expected user-1, got %s", UserIDFromContext(ctx))
	}
	if UserNameFromContext(ctx) != "T. Moyo" {
		t.Errorf("expected T. Moyo, got %s", UserNameFromContext(ctx))
	}
	roles := RolesFromContext(ctx)
	if len(roles) != 1 || roles[0] != "pharmacist" {
		t.Errorf("unexpected roles: %v", roles)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	tok := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	rec, _ := doRequest(mw, "Bearer "+tok)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired token, got %d", rec.Code)
	}
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("other-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	rec, _ := doRequest(mw, "Bearer "+signed)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong key, got %d", rec.Code)
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	rec, ctx := doRequest(DevAuthMiddleware(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if UserIDFromContext(ctx) != "dev-user" {
		t.Errorf("expected dev-user, got %s", UserIDFromContext(ctx))
	}
	roles := RolesFromContext(ctx)
	if len(roles) != 1 || roles[0] != "admin" {
		t.Errorf("expected admin role, got %v", roles)
	}
}
