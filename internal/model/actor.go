package model

import "github.com/google/uuid"

// Role of an authenticated user.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Actor is the authenticated identity behind a request. Every core mutation
// takes the actor explicitly instead of digging it out of ambient state.
type Actor struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IPAddress string    `json:"-"`
	UserAgent string    `json:"-"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) IsDoctor() bool {
	return a.Role == RoleDoctor
}
