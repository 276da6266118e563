package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/dbx"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ChannelService answers the social graph questions: channel profiles as
// seen by a viewer and the viewer's watch history.
type ChannelService struct {
	db          dbx.DBTX
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewChannelService(db dbx.DBTX, tx dbx.Transactor, m repomanager.RepositoryManager, logger logging.Logger) *ChannelService {
	return &ChannelService{db: db, tx: tx, repomanager: m, logger: logger.With("module", "channel")}
}

// ChannelProfile projects the channel named handle together with its
// subscriber counts and whether viewerID subscribes to it.
func (s *ChannelService) ChannelProfile(ctx context.Context, handle, viewerID string) (*models.ChannelProfile, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, common.Validation("username is missing")
	}

	channel, err := s.repomanager.Users(s.db).GetByUsername(ctx, handle)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound("channel does not exist")
		}
		return nil, internalError(ctx, s.logger, "fetching the channel", err)
	}

	subs := s.repomanager.Subscriptions(s.db)

	subscribers, err := subs.CountByChannel(ctx, channel.ID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "fetching the channel", err)
	}
	subscribedTo, err := subs.CountBySubscriber(ctx, channel.ID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "fetching the channel", err)
	}

	var isSubscribed bool
	if viewerID != "" {
		isSubscribed, err = subs.Exists(ctx, viewerID, channel.ID)
		if err != nil {
			return nil, internalError(ctx, s.logger, "fetching the channel", err)
		}
	}

	return &models.ChannelProfile{
		ID:                        channel.ID,
		FullName:                  channel.FullName,
		Username:                  channel.Username,
		Avatar:                    channel.Avatar,
		CoverImage:                channel.CoverImage,
		SubscribersCount:          subscribers,
		ChannelsSubscribedToCount: subscribedTo,
		IsSubscribed:              isSubscribed,
	}, nil
}

// WatchHistory resolves the viewer's history, most recent first, embedding
// each video's owner. Videos that no longer exist are skipped.
func (s *ChannelService) WatchHistory(ctx context.Context, viewerID string) ([]models.HistoryItem, error) {
	ids, err := s.repomanager.History(s.db).List(ctx, viewerID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "fetching watch history", err)
	}
	if len(ids) == 0 {
		return []models.HistoryItem{}, nil
	}

	videos, err := s.repomanager.Videos(s.db).FindByIDs(ctx, ids)
	if err != nil {
		return nil, internalError(ctx, s.logger, "fetching watch history", err)
	}

	byID := make(map[string]models.Video, len(videos))
	ownerIDs := make([]string, 0, len(videos))
	seenOwner := make(map[string]struct{}, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
		if _, ok := seenOwner[v.OwnerID]; !ok {
			seenOwner[v.OwnerID] = struct{}{}
			ownerIDs = append(ownerIDs, v.OwnerID)
		}
	}

	owners, err := s.repomanager.Users(s.db).GetOwners(ctx, ownerIDs)
	if err != nil {
		return nil, internalError(ctx, s.logger, "fetching watch history", err)
	}

	items := make([]models.HistoryItem, 0, len(ids))
	for _, id := range ids {
		v, ok := byID[id]
		if !ok {
			continue
		}
		item := models.HistoryItem{Video: v}
		if o, ok := owners[v.OwnerID]; ok {
			item.Owner = &o
		}
		items = append(items, item)
	}

	return items, nil
}

// ToggleSubscription subscribes subscriberID to channelID, or unsubscribes
// if the edge already exists. It reports the resulting state.
func (s *ChannelService) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return false, common.Validation("channel id is missing")
	}
	if _, err := uuid.Parse(channelID); err != nil {
		return false, common.Validation("Invalid channel id")
	}
	if channelID == subscriberID {
		return false, common.Validation("cannot subscribe to your own channel")
	}

	var subscribed bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		subs := s.repomanager.Subscriptions(tx)

		removed, err := subs.Delete(ctx, subscriberID, channelID)
		if err != nil || removed {
			return err
		}

		if _, err := subs.Create(ctx, subscriberID, channelID); err != nil {
			return err
		}
		subscribed = true
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, common.NotFound("channel does not exist")
		}
		return false, internalError(ctx, s.logger, "toggling the subscription", err)
	}

	return subscribed, nil
}

// RecordView counts a view of videoID and moves it to the front of the
// viewer's history.
func (s *ChannelService) RecordView(ctx context.Context, viewerID, videoID string) error {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return common.Validation("video id is missing")
	}
	if _, err := uuid.Parse(videoID); err != nil {
		return common.Validation("Invalid video id")
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Videos(tx).IncrementViews(ctx, videoID); err != nil {
			return err
		}
		return s.repomanager.History(tx).Append(ctx, viewerID, videoID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NotFound("video does not exist")
		}
		return internalError(ctx, s.logger, "recording the view", err)
	}
	return nil
}
