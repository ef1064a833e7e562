package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

func TestPortalRoot(t *testing.T) {
	assert.Equal(t, "/admin", PortalRoot(models.RoleAdmin))
	assert.Equal(t, "/seller-portal", PortalRoot(models.RoleSeller))
	assert.Equal(t, "/buyer-portal", PortalRoot(models.RoleBuyer))
	assert.Equal(t, "/dashboard", PortalRoot(models.Role("unknown")))
}

func TestListAvailablePortalsRoleless(t *testing.T) {
	options := ListAvailablePortals(models.NewRoleSet())

	require.Len(t, options, 2)
	for _, opt := range options {
		assert.False(t, opt.Owned)
	}
}

func TestListAvailablePortalsOwnership(t *testing.T) {
	options := ListAvailablePortals(models.NewRoleSet(models.RoleSeller))

	require.Len(t, options, 2)
	byRole := map[models.Role]PortalOption{}
	for _, opt := range options {
		byRole[opt.Role] = opt
	}
	assert.False(t, byRole[models.RoleBuyer].Owned)
	assert.True(t, byRole[models.RoleSeller].Owned)
}

func TestListAvailablePortalsAdminOnlyWhenHeld(t *testing.T) {
	without := ListAvailablePortals(models.NewRoleSet(models.RoleBuyer))
	for _, opt := range without {
		assert.NotEqual(t, models.RoleAdmin, opt.Role)
	}

	with := ListAvailablePortals(models.NewRoleSet(models.RoleAdmin))
	require.Len(t, with, 3)
	assert.Equal(t, models.RoleAdmin, with[2].Role)
	assert.True(t, with[2].Owned)
	assert.Equal(t, "/admin", with[2].Path)
}
