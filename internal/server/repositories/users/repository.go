// Package users is the credential store: user accounts looked up by email,
// username or id.
package users

import (
	"context"

	"github.com/dmitrijs2005/jobtracker/internal/server/models"
)

// Repository returns common.ErrorNotFound for missing users and
// common.ErrorAlreadyExists when Create hits a unique email or username.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
