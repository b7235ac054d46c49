package postgres

import (
	"context"
	"fmt"

	"github.com/vikaskumar2611/streamly-sub001/internal/domain"
)

// LikeRepository implements repository.LikeRepository using PostgreSQL.
type LikeRepository struct {
	db DB
}

// NewLikeRepository creates a new PostgreSQL-backed like repository.
func NewLikeRepository(db DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Add inserts the like. The primary key on (user_id, target_type, target_id)
// makes duplicate likes a no-op; Add reports whether a row was created.
func (r *LikeRepository) Add(ctx context.Context, like *domain.Like) (bool, error) {
	query := `
		INSERT INTO likes (user_id, target_type, target_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, target_type, target_id) DO NOTHING`

	ct, err := r.db.Exec(ctx, query, like.UserID, like.TargetType, like.TargetID, like.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// Remove deletes the like and reports whether it existed.
func (r *LikeRepository) Remove(ctx context.Context, userID string, target domain.LikeTarget, targetID string) (bool, error) {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM likes WHERE user_id = $1 AND target_type = $2 AND target_id = $3`,
		userID, target, targetID,
	)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// Count returns the number of likes on a target.
func (r *LikeRepository) Count(ctx context.Context, target domain.LikeTarget, targetID string) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM likes WHERE target_type = $1 AND target_id = $2`,
		target, targetID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}

	return n, nil
}
