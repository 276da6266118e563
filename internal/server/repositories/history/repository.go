// Package history stores each identity's watch history.
package history

import "context"

type Repository interface {
	// List returns the watched video ids, most recent first.
	List(ctx context.Context, userID string) ([]string, error)
	// Append records a view; watching a video again moves it to the front.
	Append(ctx context.Context, userID, videoID string) error
}
