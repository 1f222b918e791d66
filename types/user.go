package types

import "strings"

// User represents a shop-floor account.
// Users are keyed by their matricula (badge number), not by a surrogate id.
type User struct {
	// Matricula is the unique badge number of the user.
	Matricula string `json:"matricula" db:"matricula"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Role is the free-text job function (e.g., "Líder", "Supervisor").
	Role string `json:"role" db:"role"`

	// Shift is the work-shift code the user belongs to.
	// Reports resolve a log's shift through this field.
	Shift string `json:"shift" db:"shift"`

	// Email is the user's email address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password"`

	// IsAdmin grants access to the administration routes.
	IsAdmin bool `json:"isAdmin" db:"is_admin"`
}

// UserPatch carries the profile fields to merge into a user. Nil fields keep
// the stored value.
type UserPatch struct {
	Name         *string
	Role         *string
	Shift        *string
	Email        *string
	PasswordHash *string
	IsAdmin      *bool
}

var leaderRoleMarkers = []string{"lider", "líder", "leader", "supervisor"}

// IsLeader reports whether the user's role marks them as a line leader or
// supervisor. Matching is a case-insensitive substring test.
func (u User) IsLeader() bool {
	role := strings.ToLower(u.Role)
	for _, marker := range leaderRoleMarkers {
		if strings.Contains(role, marker) {
			return true
		}
	}
	return false
}

// UserIndex maps matricula to user for shift resolution.
type UserIndex map[string]User

// IndexUsers builds a UserIndex from a user list.
func IndexUsers(users []User) UserIndex {
	index := make(UserIndex, len(users))
	for _, u := range users {
		index[u.Matricula] = u
	}
	return index
}
