package handler

import (
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Handlers bundles the route handlers mounted by SetupRoutes.
type Handlers struct {
	Auth      *AuthHandler
	Inventory *InventoryHandler
	Dashboard *DashboardHandler
	Users     *UserHandler
	Roles     *RoleHandler
}

// NewApp creates the fiber app with the shared error handler, panic
// recovery and CORS.
func NewApp(appName string, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      appName,
		ErrorHandler: ErrorHandler(logger),
		BodyLimit:    16 * 1024 * 1024, // spreadsheet uploads
	})

	app.Use(recover.New())
	app.Use(cors.New())
	return app
}

// SetupRoutes mounts the /api/v1 routes.
func SetupRoutes(app *fiber.App, h Handlers, authService service.AuthService) {
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/reset-password", h.Auth.ResetPassword)

	// ============ PROTECTED ROUTES ============
	requireAuth := middleware.RequireAuth(authService)
	auth.Post("/logout", requireAuth, h.Auth.Logout)
	auth.Get("/me", requireAuth, h.Auth.Me)

	protected := api.Group("", requireAuth)

	// Dashboard
	protected.Get("/dashboard/stats", middleware.RequirePrivilege("dashboard:view"), h.Dashboard.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", middleware.RequirePrivilege("dashboard:view"), h.Dashboard.GetStockMovement)

	// Items
	protected.Get("/items", middleware.RequirePrivilege("item:view"), h.Inventory.GetItems)
	protected.Post("/items", middleware.RequirePrivilege("item:create"), h.Inventory.RegisterItem)
	protected.Post("/items/import", middleware.RequirePrivilege("item:import"), h.Inventory.ImportItems)
	protected.Put("/items/:id", middleware.RequirePrivilege("item:update"), h.Inventory.UpdateItem)
	protected.Delete("/items/:id", middleware.RequirePrivilege("item:delete"), h.Inventory.DeleteItem)
	protected.Post("/items/:id/stock", middleware.RequirePrivilege("stock:adjust"), h.Inventory.AdjustStock)
	protected.Post("/items/:id/in", middleware.RequirePrivilege("stock:adjust"), h.Inventory.Increment)
	protected.Post("/items/:id/out", middleware.RequirePrivilege("stock:adjust"), h.Inventory.Decrement)
	protected.Get("/items/:id/history", middleware.RequireAnyPrivilege("history:view", "item:view"), h.Inventory.GetItemHistory)

	// History
	protected.Get("/history", middleware.RequirePrivilege("history:view"), h.Inventory.GetHistory)

	// Roles and privileges
	protected.Get("/roles", h.Roles.GetRoles)
	protected.Get("/privileges", h.Roles.GetPrivileges)

	// User management (admin only)
	admin := protected.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.Get("/users", middleware.RequirePrivilege("user:view"), h.Users.GetUsers)
	admin.Post("/users/:id/approve", middleware.RequirePrivilege("user:approve"), h.Users.ApproveUser)
	admin.Post("/users/:id/disable", middleware.RequirePrivilege("user:disable"), h.Users.DisableUser)
	admin.Delete("/users/:id", middleware.RequirePrivilege("user:delete"), h.Users.DeleteUser)
}
