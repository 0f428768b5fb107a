package user

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser       = "user"
	RoleTechnician = "technician"
	RoleAdmin      = "admin"
)

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleTechnician, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
