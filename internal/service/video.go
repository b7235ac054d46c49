package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vikaskumar2611/streamly-sub001/internal/domain"
	"github.com/vikaskumar2611/streamly-sub001/internal/event"
	"github.com/vikaskumar2611/streamly-sub001/internal/repository"
	apperrors "github.com/vikaskumar2611/streamly-sub001/pkg/errors"
	"github.com/vikaskumar2611/streamly-sub001/pkg/pagination"
	"github.com/vikaskumar2611/streamly-sub001/pkg/slug"
)

// viewFlushThreshold is the pending-view count at which the Redis delta is
// folded into the durable count.
const viewFlushThreshold = 64

// VideoService implements video metadata operations. View counts accumulate
// in Redis and are flushed to PostgreSQL once they cross the threshold, so
// Views on a returned video is always stored count + pending delta.
type VideoService struct {
	videoRepo repository.VideoRepository
	views     repository.ViewCounter
	producer  *event.Producer
	logger    *slog.Logger
}

// NewVideoService creates a new video service.
func NewVideoService(
	videoRepo repository.VideoRepository,
	views repository.ViewCounter,
	producer *event.Producer,
	logger *slog.Logger,
) *VideoService {
	return &VideoService{
		videoRepo: videoRepo,
		views:     views,
		producer:  producer,
		logger:    logger,
	}
}

// CreateVideoInput holds the parameters for creating a video.
type CreateVideoInput struct {
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	Duration     int
}

// UpdateVideoInput holds the parameters for updating a video.
type UpdateVideoInput struct {
	Title        *string
	Description  *string
	ThumbnailURL *string
}

// Create registers a new unpublished video for the owner. The slug is
// derived from the title with a short id suffix so two videos with the same
// title stay addressable.
func (s *VideoService) Create(ctx context.Context, ownerID string, input CreateVideoInput) (*domain.Video, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	if input.VideoURL == "" {
		return nil, apperrors.InvalidInput("video URL is required")
	}
	if input.Duration <= 0 {
		return nil, apperrors.InvalidInput("duration must be positive")
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	video := &domain.Video{
		ID:           id,
		OwnerID:      ownerID,
		Title:        input.Title,
		Slug:         slug.Generate(input.Title) + "-" + id[:8],
		Description:  input.Description,
		VideoURL:     input.VideoURL,
		ThumbnailURL: input.ThumbnailURL,
		Duration:     input.Duration,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}

	s.logger.InfoContext(ctx, "video created",
		slog.String("video_id", video.ID),
		slog.String("owner_id", ownerID),
	)

	return video, nil
}

// Get retrieves a video with its pending view delta merged in. Unpublished
// videos are visible only to their owner; viewerID may be empty for
// anonymous requests.
func (s *VideoService) Get(ctx context.Context, id, viewerID string) (*domain.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}

	if !video.Published && video.OwnerID != viewerID {
		return nil, apperrors.NotFound("video", id)
	}

	s.mergePendingViews(ctx, video)

	return video, nil
}

// List returns published videos, optionally filtered by owner. Pending view
// deltas are merged into each result.
func (s *VideoService) List(ctx context.Context, ownerID string, p pagination.Params) (*pagination.Result[domain.Video], error) {
	videos, total, err := s.videoRepo.List(ctx, ownerID, true, p)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	ids := make([]string, len(videos))
	for i := range videos {
		ids[i] = videos[i].ID
	}

	deltas, err := s.views.Deltas(ctx, ids)
	if err != nil {
		// A view count is best effort; the listing still stands.
		s.logger.WarnContext(ctx, "failed to read pending view deltas",
			slog.String("error", err.Error()),
		)
	} else {
		for i := range videos {
			videos[i].Views += deltas[videos[i].ID]
		}
	}

	result := pagination.NewResult(videos, total, p)
	return &result, nil
}

// Update modifies a video's metadata. Only the owner may update.
func (s *VideoService) Update(ctx context.Context, ownerID, id string, input UpdateVideoInput) (*domain.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get video for update: %w", err)
	}
	if video.OwnerID != ownerID {
		return nil, apperrors.Forbidden("not the video owner")
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("title must not be empty")
		}
		video.Title = *input.Title
	}
	if input.Description != nil {
		video.Description = *input.Description
	}
	if input.ThumbnailURL != nil {
		video.ThumbnailURL = *input.ThumbnailURL
	}

	if err := s.videoRepo.Update(ctx, video); err != nil {
		return nil, fmt.Errorf("update video: %w", err)
	}

	return video, nil
}

// Publish makes a video publicly visible and announces it.
func (s *VideoService) Publish(ctx context.Context, ownerID, id string) (*domain.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get video for publish: %w", err)
	}
	if video.OwnerID != ownerID {
		return nil, apperrors.Forbidden("not the video owner")
	}

	if video.Published {
		return video, nil
	}

	video.Published = true
	if err := s.videoRepo.Update(ctx, video); err != nil {
		return nil, fmt.Errorf("publish video: %w", err)
	}

	// Publish announcement event (non-blocking on failure).
	if err := s.producer.PublishVideoPublished(ctx, video); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish video.published event",
			slog.String("video_id", video.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "video published",
		slog.String("video_id", video.ID),
		slog.String("owner_id", ownerID),
	)

	return video, nil
}

// Delete removes a video. Only the owner may delete.
func (s *VideoService) Delete(ctx context.Context, ownerID, id string) error {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get video for delete: %w", err)
	}
	if video.OwnerID != ownerID {
		return apperrors.Forbidden("not the video owner")
	}

	if err := s.videoRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	s.logger.InfoContext(ctx, "video deleted",
		slog.String("video_id", id),
		slog.String("owner_id", ownerID),
	)

	return nil
}

// RecordView counts one playback of a published video. Counting goes through
// Redis; once the pending delta crosses the flush threshold it is drained
// into the durable count.
func (s *VideoService) RecordView(ctx context.Context, id string) error {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get video for view: %w", err)
	}
	if !video.Published {
		return apperrors.NotFound("video", id)
	}

	pending, err := s.views.Increment(ctx, id)
	if err != nil {
		return fmt.Errorf("record view: %w", err)
	}

	if pending >= viewFlushThreshold {
		if err := s.flushViews(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "failed to flush view delta",
				slog.String("video_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// flushViews drains the pending Redis delta into the stored count.
func (s *VideoService) flushViews(ctx context.Context, id string) error {
	delta, err := s.views.Drain(ctx, id)
	if err != nil {
		return fmt.Errorf("drain view delta: %w", err)
	}
	if delta == 0 {
		return nil
	}

	if err := s.videoRepo.AddViews(ctx, id, delta); err != nil {
		return fmt.Errorf("add views: %w", err)
	}

	return nil
}

func (s *VideoService) mergePendingViews(ctx context.Context, video *domain.Video) {
	deltas, err := s.views.Deltas(ctx, []string{video.ID})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read pending view delta",
			slog.String("video_id", video.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	video.Views += deltas[video.ID]
}
