package middleware

import (
	"errors"
	"slices"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

const identityLocal = "identity"

// RequireAuth validates the bearer token against the user's current session
// and stores the caller identity in fiber locals and the user context.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Missing authorization token")
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return unauthorized(c, "Invalid authorization format. Use: Bearer <token>")
		}

		user, err := auth.ValidateToken(c.UserContext(), parts[1])
		switch {
		case errors.Is(err, service.ErrUserPendingApproval):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "pending_approval", "message": err.Error()})
		case errors.Is(err, service.ErrSessionExpired):
			return unauthorized(c, err.Error())
		case err != nil:
			return unauthorized(c, "Invalid or expired token")
		}

		id := service.IdentityOf(user)
		c.Locals(identityLocal, id)
		c.SetUserContext(service.WithIdentity(c.UserContext(), id))

		return c.Next()
	}
}

// CurrentIdentity returns the identity set by RequireAuth.
func CurrentIdentity(c *fiber.Ctx) (service.Identity, bool) {
	id, ok := c.Locals(identityLocal).(service.Identity)
	return id, ok
}

// RequireRole only lets callers with the given role through.
func RequireRole(role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok || id.Role != role {
			return forbidden(c, "Forbidden: requires role '"+string(role)+"'")
		}
		return c.Next()
	}
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok || !id.Can(requiredPrivilege) {
			return forbidden(c, "Forbidden: requires '"+requiredPrivilege+"' privilege")
		}
		return c.Next()
	}
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if ok && slices.ContainsFunc(requiredPrivileges, id.Can) {
			return c.Next()
		}
		return forbidden(c, "Forbidden: requires one of "+strings.Join(requiredPrivileges, ", ")+" privileges")
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": msg})
}

func forbidden(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "permission_denied", "message": msg})
}
