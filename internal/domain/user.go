package domain

import "time"

// Role names membership groups owned by the identity collaborator.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// User is the minimal projection of an identity-provider account that the
// ticket engine needs for attribution and notification. This service never
// mutates identity state beyond registration.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
}

// HasRole reports role membership.
func (u *User) HasRole(role Role) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsStaff reports whether the user may work tickets beyond their own.
func (u *User) IsStaff() bool {
	return u.HasRole(RoleAgent) || u.HasRole(RoleAdmin)
}
