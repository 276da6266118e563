// Package subscriptions stores the directed subscriber → channel edges.
package subscriptions

import "context"

type Repository interface {
	// Create adds the edge. It reports false when the edge already existed and
	// returns common.ErrorNotFound when either endpoint does not exist.
	Create(ctx context.Context, subscriberID, channelID string) (bool, error)
	// Delete removes the edge and reports whether it existed.
	Delete(ctx context.Context, subscriberID, channelID string) (bool, error)
	CountByChannel(ctx context.Context, channelID string) (int64, error)
	CountBySubscriber(ctx context.Context, subscriberID string) (int64, error)
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
}
