package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

// withIdentity stands in for RequireAuth.
func withIdentity(id *service.Identity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id != nil {
			c.Locals(identityLocal, *id)
		}
		return c.Next()
	}
}

func ok(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }

func TestGuards(t *testing.T) {
	admin := &service.Identity{Username: "admin", Role: model.RoleAdmin, Approved: true}
	user := &service.Identity{Username: "alice", Role: model.RoleUser, Approved: true}
	pending := &service.Identity{Username: "eve", Role: model.RoleUser}

	tests := []struct {
		name   string
		id     *service.Identity
		guard  fiber.Handler
		status int
	}{
		{"admin role", admin, RequireRole(model.RoleAdmin), http.StatusNoContent},
		{"user on admin role", user, RequireRole(model.RoleAdmin), http.StatusForbidden},
		{"no identity", nil, RequireRole(model.RoleAdmin), http.StatusForbidden},
		{"user privilege", user, RequirePrivilege("stock:adjust"), http.StatusNoContent},
		{"admin-only privilege", user, RequirePrivilege("user:delete"), http.StatusForbidden},
		{"pending user", pending, RequirePrivilege("item:view"), http.StatusForbidden},
		{"any privilege", user, RequireAnyPrivilege("user:view", "history:view"), http.StatusNoContent},
		{"none of privileges", user, RequireAnyPrivilege("user:view", "user:approve"), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", withIdentity(tt.id), tt.guard, ok)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestRequireAuthRejectsBadHeaders(t *testing.T) {
	app := fiber.New()
	// The header checks run before the service is consulted.
	app.Get("/", RequireAuth(nil), ok)

	for _, header := range []string{"", "Token abc", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, resp.StatusCode)
		}
	}
}
