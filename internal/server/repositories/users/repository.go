package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository stores accounts and their role assignments.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetEmailConfirmed(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error

	// AddRole assigns an existing role by name. Assigning a role twice is a no-op.
	AddRole(ctx context.Context, userID, role string) error
	GetRoles(ctx context.Context, userID string) ([]string, error)
}
