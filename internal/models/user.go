package models

// User is a row of dashboard_users. Role holds the raw label as entered by operators.
type User struct {
	ID           string `db:"id" json:"id"`
	Email        string `db:"email" json:"email"`
	FullName     string `db:"full_name" json:"full_name"`
	Role         string `db:"role" json:"role"`
	PasswordHash string `db:"password_hash" json:"-"`
}
