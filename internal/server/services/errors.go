package services

import (
	"context"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/logging"
)

// internalError logs the raw cause and returns a caller-safe Internal error.
func internalError(ctx context.Context, log logging.Logger, op string, err error) error {
	log.Error(ctx, op+" failed", "error", err)
	return common.Internal("Something went wrong while " + op)
}
