// Package users declares the identity repository. Reads never return the
// password hash or the refresh slot; those live behind credentials.
package users

import (
	"context"

	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

type Repository interface {
	// Create inserts user (including PasswordHash) and fills ID and
	// timestamps. Duplicate username or email yields common.ErrorConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByUsernameOrEmail matches either identifier; empty ones are ignored.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateAccount(ctx context.Context, id, fullName, email string) (*models.User, error)
	UpdateAvatar(ctx context.Context, id, avatar string) (*models.User, error)
	UpdateCoverImage(ctx context.Context, id, coverImage string) (*models.User, error)
	// GetOwners returns the owner projection for each existing id.
	GetOwners(ctx context.Context, ids []string) (map[string]models.Owner, error)
}
