package portal

import "github.com/tractorbazar/marketplace/internal/app/models"

// PortalOption is one entry point the current user can reach or acquire.
type PortalOption struct {
	Role  models.Role `json:"role"`
	Owned bool        `json:"owned"`
	Path  string      `json:"path"`
}

// PortalRoot maps a role to its portal's entry path.
func PortalRoot(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return "/admin"
	case models.RoleSeller:
		return "/seller-portal"
	case models.RoleBuyer:
		return "/buyer-portal"
	}
	return "/dashboard"
}

// ListAvailablePortals reports buyer and seller portals with ownership, and
// the admin portal only when the user actually holds admin. There is no
// self-service admin acquisition here; bootstrap is the single exception.
func ListAvailablePortals(roles models.RoleSet) []PortalOption {
	options := []PortalOption{
		{Role: models.RoleBuyer, Owned: roles.Has(models.RoleBuyer), Path: PortalRoot(models.RoleBuyer)},
		{Role: models.RoleSeller, Owned: roles.Has(models.RoleSeller), Path: PortalRoot(models.RoleSeller)},
	}
	if roles.Has(models.RoleAdmin) {
		options = append(options, PortalOption{
			Role:  models.RoleAdmin,
			Owned: true,
			Path:  PortalRoot(models.RoleAdmin),
		})
	}
	return options
}
