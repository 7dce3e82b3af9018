package auth

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// ParseRole reports whether s names a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	PasswordSalt string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is the authenticated caller derived from a validated token.
// It is the only source of "current user" for protected operations.
type Identity struct {
	UserID int64
	Role   Role
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
