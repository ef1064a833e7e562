package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleSeller.Valid())
	assert.True(t, RoleBuyer.Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}

func TestRoleSelfService(t *testing.T) {
	assert.True(t, RoleSeller.SelfService())
	assert.True(t, RoleBuyer.SelfService())
	assert.False(t, RoleAdmin.SelfService())
}

func TestRoleSetSatisfies(t *testing.T) {
	t.Run("explicit role satisfies", func(t *testing.T) {
		s := NewRoleSet(RoleBuyer)
		assert.True(t, s.Satisfies(RoleBuyer))
		assert.False(t, s.Satisfies(RoleSeller))
		assert.False(t, s.Satisfies(RoleAdmin))
	})

	t.Run("admin satisfies everything", func(t *testing.T) {
		s := NewRoleSet(RoleAdmin)
		assert.True(t, s.Satisfies(RoleAdmin))
		assert.True(t, s.Satisfies(RoleSeller))
		assert.True(t, s.Satisfies(RoleBuyer))
	})

	t.Run("empty set satisfies nothing", func(t *testing.T) {
		s := NewRoleSet()
		assert.False(t, s.Satisfies(RoleBuyer))
		assert.False(t, s.Satisfies(RoleSeller))
		assert.False(t, s.Satisfies(RoleAdmin))
	})
}

func TestRoleSetHasNoAdminOverride(t *testing.T) {
	s := NewRoleSet(RoleAdmin)
	assert.True(t, s.Has(RoleAdmin))
	assert.False(t, s.Has(RoleSeller), "Has must report explicit membership only")
}

func TestRoleSetSlice(t *testing.T) {
	s := NewRoleSet(RoleBuyer, RoleAdmin)
	assert.Equal(t, []Role{RoleAdmin, RoleBuyer}, s.Slice())
	assert.Empty(t, NewRoleSet().Slice())
}
