package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/dbx"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/media"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/repomanager"
)

// ProfileService reads and edits the caller's own account.
type ProfileService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	media       media.Store
	logger      logging.Logger
}

func NewProfileService(db dbx.DBTX, m repomanager.RepositoryManager, store media.Store, logger logging.Logger) *ProfileService {
	return &ProfileService{db: db, repomanager: m, media: store, logger: logger.With("module", "profile")}
}

func (s *ProfileService) CurrentUser(ctx context.Context, userID string) (*models.Account, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	return s.account(ctx, "fetching the user", user, err)
}

func (s *ProfileService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*models.Account, error) {
	fullName, email = strings.TrimSpace(fullName), strings.TrimSpace(email)
	if fullName == "" || email == "" {
		return nil, common.Validation("All fields are required")
	}

	user, err := s.repomanager.Users(s.db).UpdateAccount(ctx, userID, fullName, email)
	if errors.Is(err, common.ErrorConflict) {
		return nil, common.Conflict("Email is already in use")
	}
	return s.account(ctx, "updating account details", user, err)
}

func (s *ProfileService) UpdateAvatar(ctx context.Context, userID, localPath string) (*models.Account, error) {
	if localPath == "" {
		return nil, common.Validation("Avatar file is missing")
	}

	asset, err := s.media.Store(ctx, localPath)
	if err != nil {
		s.logger.Warn(ctx, "avatar upload failed", "user_id", userID, "error", err)
		return nil, common.Validation("Error while uploading avatar")
	}

	user, err := s.repomanager.Users(s.db).UpdateAvatar(ctx, userID, asset.URL)
	return s.account(ctx, "updating the avatar", user, err)
}

func (s *ProfileService) UpdateCoverImage(ctx context.Context, userID, localPath string) (*models.Account, error) {
	if localPath == "" {
		return nil, common.Validation("Cover image file is missing")
	}

	asset, err := s.media.Store(ctx, localPath)
	if err != nil {
		s.logger.Warn(ctx, "cover image upload failed", "user_id", userID, "error", err)
		return nil, common.Validation("Error while uploading cover image")
	}

	user, err := s.repomanager.Users(s.db).UpdateCoverImage(ctx, userID, asset.URL)
	return s.account(ctx, "updating the cover image", user, err)
}

func (s *ProfileService) account(ctx context.Context, op string, user *models.User, err error) (*models.Account, error) {
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound("User does not exist")
		}
		return nil, internalError(ctx, s.logger, op, err)
	}
	a := user.Account()
	return &a, nil
}
