// Package videos is the read side of the media catalogue used by the graph
// queries.
package videos

import (
	"context"

	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

type Repository interface {
	// FindByIDs returns the existing videos among ids in no particular order.
	FindByIDs(ctx context.Context, ids []string) ([]models.Video, error)
	// IncrementViews bumps the view counter; common.ErrorNotFound when the
	// video does not exist.
	IncrementViews(ctx context.Context, id string) error
}
