package model

import "strings"

// Role determines the read scope of a caller.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole accepts USER or ADMIN in any case.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", Errorf(ErrBadRequest, "unknown role %q, expected USER or ADMIN", s)
}

// User is an authenticated caller.
type User struct {
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
}

// IsAdmin reports whether the user has unrestricted read scope.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
