package models

// Principal is the resolved identity of the caller for one request.
type Principal struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// Anonymous is the principal used when no auth session is present.
func Anonymous() Principal {
	return Principal{Role: RoleOther}
}
