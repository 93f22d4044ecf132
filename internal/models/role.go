package models

import "strings"

// Role is the dashboard role a principal acts under.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
	RoleCounselor  Role = "counselor"
	RoleOther      Role = "other"
)

// ClassifyRole maps a free-form role label (as stored in dashboard_users or carried in auth
// metadata) onto a Role. Matching is case-insensitive and by substring; "super" is checked
// before "admin" so "Super Admin" never lands on Admin.
func ClassifyRole(raw string) Role {
	label := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case label == "":
		return RoleOther
	case strings.Contains(label, "super"):
		return RoleSuperAdmin
	case strings.Contains(label, "admin"):
		return RoleAdmin
	case strings.Contains(label, "teach"):
		return RoleTeacher
	case strings.Contains(label, "counsel"), strings.Contains(label, "staff"):
		return RoleCounselor
	default:
		return RoleOther
	}
}

// IsPrivileged reports whether the role may see every report and moderate.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Label is the human readable form stored on submitted reports.
func (r Role) Label() string {
	switch r {
	case RoleSuperAdmin:
		return "Super Admin"
	case RoleAdmin:
		return "Admin"
	case RoleTeacher:
		return "Teacher"
	case RoleCounselor:
		return "Counselor"
	default:
		return "Other"
	}
}
