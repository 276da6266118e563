package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/cryptox"
	"github.com/dmitrijs2005/vidtube/internal/dbx"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/repomanager"
)

// TokenVerifier checks presented tokens against the issuer and storage.
type TokenVerifier struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	issuer      *auth.Issuer
	logger      logging.Logger
}

func NewTokenVerifier(db dbx.DBTX, m repomanager.RepositoryManager, issuer *auth.Issuer, logger logging.Logger) *TokenVerifier {
	return &TokenVerifier{db: db, repomanager: m, issuer: issuer, logger: logger.With("module", "verifier")}
}

// Verify returns the identity a token is bound to. Failures are the token
// sentinels from common (ErrInvalidToken, ErrWrongTokenClass,
// ErrIdentityMissing, ErrStaleToken) or a storage error.
func (v *TokenVerifier) Verify(ctx context.Context, token string, class auth.TokenClass) (string, error) {
	if class == auth.RefreshToken {
		slot, err := v.verifyRefresh(ctx, token)
		if err != nil {
			return "", err
		}
		return slot.UserID, nil
	}

	user, err := v.verifyAccess(ctx, token)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (v *TokenVerifier) verifyAccess(ctx context.Context, token string) (*models.User, error) {
	claims, err := v.issuer.Parse(token, auth.AccessToken)
	if err != nil {
		return nil, err
	}

	user, err := v.repomanager.Users(v.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrIdentityMissing
		}
		return nil, err
	}
	return user, nil
}

// verifyRefresh also returns the slot it matched, so the caller can rotate
// against the exact version that was checked.
func (v *TokenVerifier) verifyRefresh(ctx context.Context, token string) (*models.RefreshSlot, error) {
	claims, err := v.issuer.Parse(token, auth.RefreshToken)
	if err != nil {
		return nil, err
	}

	slot, err := v.repomanager.Credentials(v.db).GetRefreshSlot(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrIdentityMissing
		}
		return nil, err
	}

	if !slot.Active() || !cryptox.EqualDigest(*slot.TokenHash, cryptox.HashToken(token)) {
		return nil, common.ErrStaleToken
	}
	return slot, nil
}

// IsTokenError reports whether err is a verification failure rather than
// an infrastructure one.
func IsTokenError(err error) bool {
	return errors.Is(err, common.ErrInvalidToken) ||
		errors.Is(err, common.ErrWrongTokenClass) ||
		errors.Is(err, common.ErrIdentityMissing) ||
		errors.Is(err, common.ErrStaleToken)
}

// Authenticate gates authenticated operations: it resolves an access token
// to its identity or returns an Unauthorized *common.Error.
func (v *TokenVerifier) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, common.Unauthorized("Unauthorized request")
	}

	user, err := v.verifyAccess(ctx, accessToken)
	if err != nil {
		if IsTokenError(err) {
			v.logger.Warn(ctx, "access token rejected", "error", err)
			return nil, common.Unauthorized("Invalid access token")
		}
		return nil, internalError(ctx, v.logger, "authenticating", err)
	}
	return user, nil
}
