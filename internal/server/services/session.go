// Package services contains server-side business logic: the session
// lifecycle (SessionService, TokenVerifier), profile mutations
// (ProfileService) and the social graph views (ChannelService).
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/cryptox"
	"github.com/dmitrijs2005/vidtube/internal/dbx"
	"github.com/dmitrijs2005/vidtube/internal/filex"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/dmitrijs2005/vidtube/internal/server/config"
	"github.com/dmitrijs2005/vidtube/internal/server/media"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vidtube/internal/server/session"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RegisterInput struct {
	Username       string
	Email          string
	FullName       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

type LoginResult struct {
	Tokens  TokenPair
	Account models.Account
}

// SessionService drives the credential lifecycle of identities. Every
// session change is decided by session.Decide and then applied here.
type SessionService struct {
	db                     dbx.DBTX
	tx                     dbx.Transactor
	repomanager            repomanager.RepositoryManager
	issuer                 *auth.Issuer
	verifier               *TokenVerifier
	hasher                 cryptox.Hasher
	media                  media.Store
	logger                 logging.Logger
	revokeOnPasswordChange bool
}

func NewSessionService(db dbx.DBTX, tx dbx.Transactor, m repomanager.RepositoryManager, issuer *auth.Issuer,
	hasher cryptox.Hasher, store media.Store, logger logging.Logger, cfg *config.Config) *SessionService {
	return &SessionService{
		db:                     db,
		tx:                     tx,
		repomanager:            m,
		issuer:                 issuer,
		verifier:               NewTokenVerifier(db, m, issuer, logger),
		hasher:                 hasher,
		media:                  store,
		logger:                 logger.With("module", "session"),
		revokeOnPasswordChange: cfg.RevokeSessionsOnPasswordChange,
	}
}

// Verifier exposes the verifier sharing this service's issuer and storage.
func (s *SessionService) Verifier() *TokenVerifier {
	return s.verifier
}

// Register creates an identity. Uploads happen before the insert, so a
// failed avatar upload leaves nothing behind. Staged files are always
// consumed.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	defer filex.RemoveQuietly(in.AvatarPath)
	defer filex.RemoveQuietly(in.CoverImagePath)

	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.TrimSpace(in.Email)
	fullName := strings.TrimSpace(in.FullName)

	if username == "" || email == "" || fullName == "" || strings.TrimSpace(in.Password) == "" {
		return nil, common.Validation("All fields are required")
	}
	if in.AvatarPath == "" {
		return nil, common.Validation("Avatar file is required")
	}

	users := s.repomanager.Users(s.db)

	_, err := users.GetByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil:
		return nil, common.Conflict("User with email or username already exists")
	case !errors.Is(err, common.ErrorNotFound):
		return nil, internalError(ctx, s.logger, "registering the user", err)
	}

	avatar, err := s.media.Store(ctx, in.AvatarPath)
	if err != nil {
		s.logger.Warn(ctx, "avatar upload failed", "error", err)
		return nil, common.Validation("Avatar file is required")
	}

	var coverImage string
	if in.CoverImagePath != "" {
		cover, err := s.media.Store(ctx, in.CoverImagePath)
		if err != nil {
			s.logger.Warn(ctx, "cover image upload failed, continuing without it", "error", err)
		} else {
			coverImage = cover.URL
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internalError(ctx, s.logger, "registering the user", err)
	}

	user, err := users.Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		Avatar:       avatar.URL,
		CoverImage:   coverImage,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.Conflict("User with email or username already exists")
		}
		return nil, internalError(ctx, s.logger, "registering the user", err)
	}

	account := user.Account()
	s.logger.Info(ctx, "user registered", "user_id", account.ID)
	return &account, nil
}

// Login checks the password and anchors a new refresh token, which makes
// any previously issued one stale.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Username, in.Email = strings.TrimSpace(in.Username), strings.TrimSpace(in.Email)
	if in.Username == "" && in.Email == "" {
		return nil, common.Validation("username or email is required")
	}
	if in.Password == "" {
		return nil, common.Validation("password is required")
	}

	user, err := s.repomanager.Users(s.db).GetByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound("User does not exist")
		}
		return nil, internalError(ctx, s.logger, "logging in", err)
	}

	creds := s.repomanager.Credentials(s.db)

	hash, err := creds.GetPasswordHash(ctx, user.ID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "logging in", err)
	}
	if err := s.hasher.Compare(hash, in.Password); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			s.logger.Warn(ctx, "invalid credentials", "user_id", user.ID)
			return nil, common.Unauthorized("Invalid user credentials")
		}
		return nil, internalError(ctx, s.logger, "logging in", err)
	}

	slot, err := creds.GetRefreshSlot(ctx, user.ID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "logging in", err)
	}

	tr, err := session.Decide(session.FromSlot(slot.Active()), session.Login)
	if err != nil {
		return nil, internalError(ctx, s.logger, "logging in", err)
	}

	pair, err := s.apply(ctx, user.ID, slot, tr)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{Tokens: *pair, Account: user.Account()}, nil
}

// Logout unsets the refresh slot. Logging out twice is not an error.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	slot, err := s.repomanager.Credentials(s.db).GetRefreshSlot(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.Unauthorized("Unauthorized request")
		}
		return internalError(ctx, s.logger, "logging out", err)
	}

	tr, err := session.Decide(session.FromSlot(slot.Active()), session.Logout)
	if err != nil {
		return internalError(ctx, s.logger, "logging out", err)
	}

	if _, err := s.apply(ctx, userID, slot, tr); err != nil {
		return err
	}

	s.logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// Refresh exchanges a live refresh token for a new pair. The stored token is
// replaced only if it is still the one that was verified, so a token can be
// redeemed at most once even under concurrent requests.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, common.Unauthorized("Unauthorized request")
	}

	slot, err := s.verifier.verifyRefresh(ctx, refreshToken)
	if err != nil {
		if IsTokenError(err) {
			s.logger.Warn(ctx, "refresh token rejected", "error", err)
			if errors.Is(err, common.ErrStaleToken) {
				return nil, common.Unauthorized("Refresh token is expired or used")
			}
			return nil, common.Unauthorized("Invalid refresh token")
		}
		return nil, internalError(ctx, s.logger, "refreshing the session", err)
	}

	tr, err := session.Decide(session.FromSlot(slot.Active()), session.Refresh)
	if err != nil {
		return nil, common.Unauthorized("Invalid refresh token")
	}

	return s.apply(ctx, slot.UserID, slot, tr)
}

// ChangePassword replaces the password hash after checking the old one.
// With revocation enabled the refresh slot is cleared in the same
// transaction.
func (s *SessionService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return common.Validation("New password is required")
	}

	hash, err := s.repomanager.Credentials(s.db).GetPasswordHash(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NotFound("User does not exist")
		}
		return internalError(ctx, s.logger, "changing the password", err)
	}
	if err := s.hasher.Compare(hash, oldPassword); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			return common.Validation("Invalid old password")
		}
		return internalError(ctx, s.logger, "changing the password", err)
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return internalError(ctx, s.logger, "changing the password", err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		creds := s.repomanager.Credentials(tx)
		if err := creds.SetPasswordHash(ctx, userID, newHash); err != nil {
			return err
		}
		if s.revokeOnPasswordChange {
			if _, err := creds.SetRefreshToken(ctx, userID, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return internalError(ctx, s.logger, "changing the password", err)
	}

	s.logger.Info(ctx, "password changed", "user_id", userID, "sessions_revoked", s.revokeOnPasswordChange)
	return nil
}

// apply performs the effects of a decided transition. It returns the minted
// pair when the transition issues one.
func (s *SessionService) apply(ctx context.Context, userID string, slot *models.RefreshSlot, tr session.Transition) (*TokenPair, error) {
	var pair *TokenPair
	if tr.Has(session.IssuePair) {
		p, err := s.generateTokenPair(userID)
		if err != nil {
			return nil, internalError(ctx, s.logger, "generating tokens", err)
		}
		pair = p
	}

	creds := s.repomanager.Credentials(s.db)

	for _, effect := range tr.Effects {
		var err error
		switch effect {
		case session.StoreRefresh:
			digest := cryptox.HashToken(pair.RefreshToken)
			_, err = creds.SetRefreshToken(ctx, userID, &digest)
		case session.RotateRefresh:
			_, err = creds.RotateRefreshToken(ctx, userID, slot.Version, cryptox.HashToken(pair.RefreshToken))
			if errors.Is(err, common.ErrStaleToken) {
				s.logger.Warn(ctx, "refresh lost rotation race", "user_id", userID)
				return nil, common.Unauthorized("Refresh token is expired or used")
			}
		case session.ClearRefresh:
			_, err = creds.SetRefreshToken(ctx, userID, nil)
		}
		if err != nil {
			return nil, internalError(ctx, s.logger, "updating the session", err)
		}
	}

	return pair, nil
}

func (s *SessionService) generateTokenPair(userID string) (*TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.IssueRefreshToken(userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
