package user

import (
	"context"

	"helpdesk/internal/auth"
)

// authStore adapts the repository to the account view the auth
// handlers work with. New accounts start as plain users; admins promote
// them through the user API.
type authStore struct {
	users Repository
}

func NewAuthStore(users Repository) auth.UserStore {
	return authStore{users: users}
}

func (s authStore) Create(ctx context.Context, a *auth.Account) error {
	role := a.Role
	if role == "" {
		role = RoleUser
	}
	u := &User{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         role,
		CreatedAt:    a.CreatedAt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return err
	}
	a.Role = u.Role
	return nil
}

func (s authStore) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &auth.Account{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
	}, nil
}
