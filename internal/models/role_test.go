package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRoleKnownLabels(t *testing.T) {
	cases := map[string]Role{
		"superadmin":       RoleSuperAdmin,
		"Super Admin":      RoleSuperAdmin,
		"SUPER_ADMIN":      RoleSuperAdmin,
		"admin":            RoleAdmin,
		"Branch Admin":     RoleAdmin,
		"administrator":    RoleAdmin,
		"teacher":          RoleTeacher,
		"Teaching Staff":   RoleTeacher,
		"IELTS Teacher":    RoleTeacher,
		"counselor":        RoleCounselor,
		"Counsellor":       RoleCounselor,
		"staff":            RoleCounselor,
		"Front Desk Staff": RoleCounselor,
		"student":          RoleOther,
		"":                 RoleOther,
		"   ":              RoleOther,
		"accountant":       RoleOther,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ClassifyRole(raw), raw)
	}
}

func TestRoleIsPrivileged(t *testing.T) {
	assert.True(t, RoleAdmin.IsPrivileged())
	assert.True(t, RoleSuperAdmin.IsPrivileged())
	assert.False(t, RoleTeacher.IsPrivileged())
	assert.False(t, RoleCounselor.IsPrivileged())
	assert.False(t, RoleOther.IsPrivileged())
}
