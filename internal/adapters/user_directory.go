// Package adapters contains thin cross-module glue kept out of the
// bounded contexts themselves.
package adapters

import (
	"context"

	"github.com/google/uuid"

	identityrepo "studio_production_backend/internal/identity/repository"
)

// UserDirectory resolves email addresses from identity accounts for
// the notification module.
type UserDirectory struct {
	users identityrepo.Repository
}

func NewUserDirectory(users identityrepo.Repository) *UserDirectory {
	return &UserDirectory{users: users}
}

func (d *UserDirectory) UserEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := d.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}
