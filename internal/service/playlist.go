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
)

// PlaylistService implements playlist operations.
type PlaylistService struct {
	playlistRepo repository.PlaylistRepository
	videoRepo    repository.VideoRepository
	logger       *slog.Logger
}

// NewPlaylistService creates a new playlist service.
func NewPlaylistService(
	playlistRepo repository.PlaylistRepository,
	videoRepo repository.VideoRepository,
	logger *slog.Logger,
) *PlaylistService {
	return &PlaylistService{
		playlistRepo: playlistRepo,
		videoRepo:    videoRepo,
		logger:       logger,
	}
}

// CreatePlaylistInput holds the parameters for creating a playlist.
type CreatePlaylistInput struct {
	Name        string
	Description string
}

// UpdatePlaylistInput holds the parameters for updating a playlist.
type UpdatePlaylistInput struct {
	Name        *string
	Description *string
}

// Create creates an empty playlist for the owner.
func (s *PlaylistService) Create(ctx context.Context, ownerID string, input CreatePlaylistInput) (*domain.Playlist, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}

	now := time.Now().UTC()
	playlist := &domain.Playlist{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Name:        input.Name,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.playlistRepo.Create(ctx, playlist); err != nil {
		return nil, fmt.Errorf("create playlist: %w", err)
	}

	s.logger.InfoContext(ctx, "playlist created",
		slog.String("playlist_id", playlist.ID),
		slog.String("owner_id", ownerID),
	)

	return playlist, nil
}

// Get retrieves a playlist with its ordered video ids.
func (s *PlaylistService) Get(ctx context.Context, id string) (*domain.Playlist, error) {
	playlist, err := s.playlistRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get playlist: %w", err)
	}
	return playlist, nil
}

// ListByOwner returns all playlists owned by the user.
func (s *PlaylistService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Playlist, error) {
	playlists, err := s.playlistRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	return playlists, nil
}

// Update modifies a playlist's name or description. Only the owner may update.
func (s *PlaylistService) Update(ctx context.Context, ownerID, id string, input UpdatePlaylistInput) (*domain.Playlist, error) {
	playlist, err := s.playlistRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get playlist for update: %w", err)
	}
	if playlist.OwnerID != ownerID {
		return nil, apperrors.Forbidden("not the playlist owner")
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		playlist.Name = *input.Name
	}
	if input.Description != nil {
		playlist.Description = *input.Description
	}

	if err := s.playlistRepo.Update(ctx, playlist); err != nil {
		return nil, fmt.Errorf("update playlist: %w", err)
	}

	return playlist, nil
}

// Delete removes a playlist and its memberships. Only the owner may delete.
func (s *PlaylistService) Delete(ctx context.Context, ownerID, id string) error {
	playlist, err := s.playlistRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get playlist for delete: %w", err)
	}
	if playlist.OwnerID != ownerID {
		return apperrors.Forbidden("not the playlist owner")
	}

	if err := s.playlistRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}

	s.logger.InfoContext(ctx, "playlist deleted",
		slog.String("playlist_id", id),
	)

	return nil
}

// AddVideo appends a published video to the playlist. Adding a video that is
// already present is a no-op.
func (s *PlaylistService) AddVideo(ctx context.Context, ownerID, playlistID, videoID string) error {
	playlist, err := s.playlistRepo.GetByID(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("get playlist: %w", err)
	}
	if playlist.OwnerID != ownerID {
		return apperrors.Forbidden("not the playlist owner")
	}

	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return fmt.Errorf("get video for playlist: %w", err)
	}
	if !video.Published && video.OwnerID != ownerID {
		return apperrors.NotFound("video", videoID)
	}

	if err := s.playlistRepo.AddVideo(ctx, playlistID, videoID); err != nil {
		return fmt.Errorf("add video to playlist: %w", err)
	}

	return nil
}

// RemoveVideo removes a video from the playlist.
func (s *PlaylistService) RemoveVideo(ctx context.Context, ownerID, playlistID, videoID string) error {
	playlist, err := s.playlistRepo.GetByID(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("get playlist: %w", err)
	}
	if playlist.OwnerID != ownerID {
		return apperrors.Forbidden("not the playlist owner")
	}

	if err := s.playlistRepo.RemoveVideo(ctx, playlistID, videoID); err != nil {
		return fmt.Errorf("remove video from playlist: %w", err)
	}

	return nil
}
