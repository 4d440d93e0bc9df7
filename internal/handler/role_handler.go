package handler

import (
	"go-inventory-ledger/internal/model"

	"github.com/gofiber/fiber/v2"
)

// RoleHandler serves the static role and privilege catalogue.
type RoleHandler struct{}

func NewRoleHandler() *RoleHandler {
	return &RoleHandler{}
}

type roleResponse struct {
	Code       model.Role `json:"code"`
	Privileges []string   `json:"privileges"`
}

// GetRoles returns all available roles
// GET /api/v1/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	roles := make([]roleResponse, len(model.Roles))
	for i, r := range model.Roles {
		roles[i] = roleResponse{Code: r, Privileges: r.Privileges()}
	}
	return c.JSON(roles)
}

// GetPrivileges lists all privileges
// GET /api/v1/privileges
func (h *RoleHandler) GetPrivileges(c *fiber.Ctx) error {
	return c.JSON(model.DefaultPrivileges)
}
