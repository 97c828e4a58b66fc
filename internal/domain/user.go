package domain

import "time"

// Role enumerates the access levels handed to the workflow core by the auth layer.
type Role string

const (
	RoleClient Role = "client"
	RoleAgent  Role = "agent"
	RoleAdmin  Role = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// User is a person who opens, works on or administers tickets.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Actor identifies the logged-in caller of a workflow operation.
type Actor struct {
	ID   string
	Role Role
}

// Actor returns the caller identity for the user.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}
