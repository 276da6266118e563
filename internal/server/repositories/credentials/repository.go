// Package credentials declares the credential store: the password hash and
// the single refresh token slot of each identity.
package credentials

import (
	"context"

	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

// Repository reads and writes the secret columns of an identity. Every
// method returns common.ErrorNotFound when the identity does not exist.
type Repository interface {
	SetPasswordHash(ctx context.Context, userID string, hash []byte) error
	GetPasswordHash(ctx context.Context, userID string) ([]byte, error)

	GetRefreshSlot(ctx context.Context, userID string) (*models.RefreshSlot, error)

	// SetRefreshToken overwrites the slot with hash (nil unsets it) and
	// returns the new slot version.
	SetRefreshToken(ctx context.Context, userID string, hash *string) (int64, error)

	// RotateRefreshToken stores newHash only if the slot is still at
	// expectedVersion and holds a token. Otherwise it returns
	// common.ErrStaleToken and leaves the slot untouched.
	RotateRefreshToken(ctx context.Context, userID string, expectedVersion int64, newHash string) (int64, error)
}
