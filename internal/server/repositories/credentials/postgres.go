package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/dbx"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

// PostgresRepository keeps credentials on the users row over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) SetPasswordHash(ctx context.Context, userID string, hash []byte) error {
	query := `
		UPDATE users SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, userID, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) GetPasswordHash(ctx context.Context, userID string) ([]byte, error) {
	query := `
		SELECT password_hash
		FROM users
		WHERE id = $1
	`
	var hash []byte
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return hash, nil
}

func (r *PostgresRepository) GetRefreshSlot(ctx context.Context, userID string) (*models.RefreshSlot, error) {
	query := `
		SELECT refresh_token_hash, refresh_token_version
		FROM users
		WHERE id = $1
	`
	var hash sql.NullString
	slot := &models.RefreshSlot{UserID: userID}
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&hash, &slot.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if hash.Valid {
		slot.TokenHash = &hash.String
	}
	return slot, nil
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, userID string, hash *string) (int64, error) {
	query := `
		UPDATE users
		SET refresh_token_hash = $2, refresh_token_version = refresh_token_version + 1
		WHERE id = $1
		RETURNING refresh_token_version
	`
	var version int64
	if err := r.db.QueryRowContext(ctx, query, userID, hash).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return version, nil
}

func (r *PostgresRepository) RotateRefreshToken(ctx context.Context, userID string, expectedVersion int64, newHash string) (int64, error) {
	query := `
		UPDATE users
		SET refresh_token_hash = $3, refresh_token_version = refresh_token_version + 1
		WHERE id = $1 AND refresh_token_version = $2 AND refresh_token_hash IS NOT NULL
		RETURNING refresh_token_version
	`
	var version int64
	if err := r.db.QueryRowContext(ctx, query, userID, expectedVersion, newHash).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrStaleToken
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return version, nil
}
