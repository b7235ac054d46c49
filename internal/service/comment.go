package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vikaskumar2611/streamly-sub001/internal/domain"
	"github.com/vikaskumar2611/streamly-sub001/internal/repository"
	apperrors "github.com/vikaskumar2611/streamly-sub001/pkg/errors"
	"github.com/vikaskumar2611/streamly-sub001/pkg/pagination"
)

// maxCommentLength bounds comment content.
const maxCommentLength = 2000

// CommentService implements comment operations on videos.
type CommentService struct {
	commentRepo repository.CommentRepository
	videoRepo   repository.VideoRepository
	logger      *slog.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(
	commentRepo repository.CommentRepository,
	videoRepo repository.VideoRepository,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		videoRepo:   videoRepo,
		logger:      logger,
	}
}

// Create adds a comment to a published video.
func (s *CommentService) Create(ctx context.Context, ownerID, videoID, content string) (*domain.Comment, error) {
	if content == "" {
		return nil, apperrors.InvalidInput("content is required")
	}
	if len(content) > maxCommentLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("content must be at most %d characters", maxCommentLength))
	}

	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("get video for comment: %w", err)
	}
	if !video.Published && video.OwnerID != ownerID {
		return nil, apperrors.NotFound("video", videoID)
	}

	now := time.Now().UTC()
	comment := &domain.Comment{
		ID:        uuid.New().String(),
		VideoID:   videoID,
		OwnerID:   ownerID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.logger.InfoContext(ctx, "comment created",
		slog.String("comment_id", comment.ID),
		slog.String("video_id", videoID),
	)

	return comment, nil
}

// ListByVideo returns a video's comments newest-first.
func (s *CommentService) ListByVideo(ctx context.Context, videoID string, p pagination.Params) (*pagination.Result[domain.Comment], error) {
	comments, total, err := s.commentRepo.ListByVideo(ctx, videoID, p)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	result := pagination.NewResult(comments, total, p)
	return &result, nil
}

// Update edits a comment's content. Only the author may edit.
func (s *CommentService) Update(ctx context.Context, ownerID, id, content string) (*domain.Comment, error) {
	if content == "" {
		return nil, apperrors.InvalidInput("content is required")
	}

	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get comment for update: %w", err)
	}
	if comment.OwnerID != ownerID {
		return nil, apperrors.Forbidden("not the comment author")
	}

	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}

	return comment, nil
}

// Delete removes a comment. The author or the video owner may delete.
func (s *CommentService) Delete(ctx context.Context, requesterID, id string) error {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get comment for delete: %w", err)
	}

	if comment.OwnerID != requesterID {
		video, err := s.videoRepo.GetByID(ctx, comment.VideoID)
		if err != nil {
			return fmt.Errorf("get video for comment delete: %w", err)
		}
		if video.OwnerID != requesterID {
			return apperrors.Forbidden("not the comment author or video owner")
		}
	}

	if err := s.commentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	s.logger.InfoContext(ctx, "comment deleted",
		slog.String("comment_id", id),
	)

	return nil
}
