package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/pkg/config"
	"github.com/adelangokeh992-cell/erp-pro/pkg/jwtutil"

	"github.com/labstack/echo/v4"
)

func newAuthedContext(t *testing.T, token string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "mw-secret", ExpirationTime: time.Hour})

	c, rec := newAuthedContext(t, "")
	if err := AuthMiddleware(okHandler)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareSetsContext(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "mw-secret", ExpirationTime: time.Hour})

	tid := "22222222-2222-2222-2222-222222222222"
	token, err := jwtutil.GenerateToken("u-1", "alice", "cashier", &tid)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	c, rec := newAuthedContext(t, token)
	if err := AuthMiddleware(okHandler)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got, _ := c.Get(ContextUsername).(string); got != "alice" {
		t.Fatalf("username not set, got %q", got)
	}

	scope := TenantScope(c)
	if scope == nil || *scope != tid {
		t.Fatalf("expected tenant scope %q, got %v", tid, scope)
	}
}

func TestTenantScopeNilForSuperAdmin(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "mw-secret", ExpirationTime: time.Hour})

	token, err := jwtutil.GenerateToken("u-2", "root", "super_admin", nil)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	c, _ := newAuthedContext(t, token)
	if err := AuthMiddleware(okHandler)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if scope := TenantScope(c); scope != nil {
		t.Fatalf("super_admin scope must be nil, got %q", *scope)
	}
}

func TestRequireTenantRejectsUnscopedUser(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "mw-secret", ExpirationTime: time.Hour})

	// A non-super-admin token with no tenant claim
	token, err := jwtutil.GenerateToken("u-3", "bob", "worker", nil)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	c, rec := newAuthedContext(t, token)
	if err := AuthMiddleware(RequireTenant(okHandler))(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireSuperAdmin(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "mw-secret", ExpirationTime: time.Hour})

	tid := "33333333-3333-3333-3333-333333333333"
	token, err := jwtutil.GenerateToken("u-4", "carol", "tenant_admin", &tid)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	c, rec := newAuthedContext(t, token)
	if err := AuthMiddleware(RequireSuperAdmin(okHandler))(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("tenant_admin must not pass RequireSuperAdmin, got %d", rec.Code)
	}
}
