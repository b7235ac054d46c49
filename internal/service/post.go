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

// maxPostLength bounds community post content.
const maxPostLength = 5000

// PostService implements community post operations.
type PostService struct {
	postRepo repository.PostRepository
	logger   *slog.Logger
}

// NewPostService creates a new post service.
func NewPostService(postRepo repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{
		postRepo: postRepo,
		logger:   logger,
	}
}

// Create publishes a community post on the owner's channel.
func (s *PostService) Create(ctx context.Context, ownerID, content string) (*domain.Post, error) {
	if content == "" {
		return nil, apperrors.InvalidInput("content is required")
	}
	if len(content) > maxPostLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("content must be at most %d characters", maxPostLength))
	}

	now := time.Now().UTC()
	post := &domain.Post{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.logger.InfoContext(ctx, "post created",
		slog.String("post_id", post.ID),
		slog.String("owner_id", ownerID),
	)

	return post, nil
}

// Get retrieves a post by ID.
func (s *PostService) Get(ctx context.Context, id string) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// ListByOwner returns a channel's posts newest-first.
func (s *PostService) ListByOwner(ctx context.Context, ownerID string, p pagination.Params) (*pagination.Result[domain.Post], error) {
	posts, total, err := s.postRepo.ListByOwner(ctx, ownerID, p)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	result := pagination.NewResult(posts, total, p)
	return &result, nil
}

// Update edits a post's content. Only the author may edit.
func (s *PostService) Update(ctx context.Context, ownerID, id, content string) (*domain.Post, error) {
	if content == "" {
		return nil, apperrors.InvalidInput("content is required")
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post for update: %w", err)
	}
	if post.OwnerID != ownerID {
		return nil, apperrors.Forbidden("not the post author")
	}

	post.Content = content
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	return post, nil
}

// Delete removes a post. Only the author may delete.
func (s *PostService) Delete(ctx context.Context, ownerID, id string) error {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get post for delete: %w", err)
	}
	if post.OwnerID != ownerID {
		return apperrors.Forbidden("not the post author")
	}

	if err := s.postRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	s.logger.InfoContext(ctx, "post deleted",
		slog.String("post_id", id),
	)

	return nil
}
