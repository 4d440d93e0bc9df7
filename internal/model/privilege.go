package model

// Privilege is a permission code carried in the session token.
type Privilege struct {
	Code      string `json:"code"` // e.g., "item:create"
	Name      string `json:"name"`
	AdminOnly bool   `json:"admin_only"`
}

// DefaultPrivileges lists every privilege known to the system.
var DefaultPrivileges = []Privilege{
	// Items
	{Code: "item:view", Name: "View Item"},
	{Code: "item:create", Name: "Create Item"},
	{Code: "item:update", Name: "Update Item"},
	{Code: "item:delete", Name: "Delete Item"},
	{Code: "item:import", Name: "Import Items"},
	// Ledger
	{Code: "stock:adjust", Name: "Adjust Stock"},
	{Code: "history:view", Name: "View History"},
	// Dashboard
	{Code: "dashboard:view", Name: "View Dashboard"},
	// User management
	{Code: "user:view", Name: "View User", AdminOnly: true},
	{Code: "user:approve", Name: "Approve User", AdminOnly: true},
	{Code: "user:disable", Name: "Disable User", AdminOnly: true},
	{Code: "user:delete", Name: "Delete User", AdminOnly: true},
}
