package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vikaskumar2611/streamly-sub001/internal/domain"
	"github.com/vikaskumar2611/streamly-sub001/internal/repository"
	apperrors "github.com/vikaskumar2611/streamly-sub001/pkg/errors"
)

// LikeService implements like toggling over videos, comments, and posts.
type LikeService struct {
	likeRepo repository.LikeRepository
	logger   *slog.Logger
}

// NewLikeService creates a new like service.
func NewLikeService(likeRepo repository.LikeRepository, logger *slog.Logger) *LikeService {
	return &LikeService{
		likeRepo: likeRepo,
		logger:   logger,
	}
}

// Toggle flips the user's like on the target and returns whether the target
// is now liked plus the updated count. Liking twice unlikes.
func (s *LikeService) Toggle(ctx context.Context, userID string, target domain.LikeTarget, targetID string) (liked bool, count int64, err error) {
	if !target.Valid() {
		return false, 0, apperrors.InvalidInput("target type must be video, comment, or post")
	}
	if targetID == "" {
		return false, 0, apperrors.InvalidInput("target id is required")
	}

	created, err := s.likeRepo.Add(ctx, &domain.Like{
		UserID:     userID,
		TargetType: target,
		TargetID:   targetID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return false, 0, fmt.Errorf("add like: %w", err)
	}

	liked = true
	if !created {
		// Already liked; the toggle removes it.
		if _, err := s.likeRepo.Remove(ctx, userID, target, targetID); err != nil {
			return false, 0, fmt.Errorf("remove like: %w", err)
		}
		liked = false
	}

	count, err = s.likeRepo.Count(ctx, target, targetID)
	if err != nil {
		return false, 0, fmt.Errorf("count likes: %w", err)
	}

	s.logger.DebugContext(ctx, "like toggled",
		slog.String("user_id", userID),
		slog.String("target_type", string(target)),
		slog.String("target_id", targetID),
		slog.Bool("liked", liked),
	)

	return liked, count, nil
}

// Count returns the number of likes on a target.
func (s *LikeService) Count(ctx context.Context, target domain.LikeTarget, targetID string) (int64, error) {
	if !target.Valid() {
		return 0, apperrors.InvalidInput("target type must be video, comment, or post")
	}

	count, err := s.likeRepo.Count(ctx, target, targetID)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}

	return count, nil
}
