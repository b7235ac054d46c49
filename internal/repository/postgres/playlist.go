package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vikaskumar2611/streamly-sub001/internal/domain"
	apperrors "github.com/vikaskumar2611/streamly-sub001/pkg/errors"
)

// PlaylistRepository implements repository.PlaylistRepository using PostgreSQL.
// Video membership lives in a playlist_videos join table ordered by position.
type PlaylistRepository struct {
	db DB
}

// NewPlaylistRepository creates a new PostgreSQL-backed playlist repository.
func NewPlaylistRepository(db DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist.
func (r *PlaylistRepository) Create(ctx context.Context, p *domain.Playlist) error {
	query := `
		INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query, p.ID, p.OwnerID, p.Name, p.Description, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert playlist: %w", err)
	}

	return nil
}

// GetByID retrieves a playlist with its ordered video ids.
func (r *PlaylistRepository) GetByID(ctx context.Context, id string) (*domain.Playlist, error) {
	query := `
		SELECT id, owner_id, name, description, created_at, updated_at
		FROM playlists
		WHERE id = $1`

	var p domain.Playlist
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("playlist", id)
		}
		return nil, fmt.Errorf("scan playlist: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT video_id FROM playlist_videos WHERE playlist_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("list playlist videos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var videoID string
		if err := rows.Scan(&videoID); err != nil {
			return nil, fmt.Errorf("scan playlist video: %w", err)
		}
		p.VideoIDs = append(p.VideoIDs, videoID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist videos: %w", err)
	}

	return &p, nil
}

// ListByOwner returns all playlists owned by the given user, newest-first,
// without their video membership.
func (r *PlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Playlist, error) {
	query := `
		SELECT id, owner_id, name, description, created_at, updated_at
		FROM playlists
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	var playlists []domain.Playlist
	for rows.Next() {
		var p domain.Playlist
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan playlist row: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}

	return playlists, nil
}

// Update modifies a playlist's name and description.
func (r *PlaylistRepository) Update(ctx context.Context, p *domain.Playlist) error {
	p.UpdatedAt = time.Now().UTC()

	ct, err := r.db.Exec(ctx,
		`UPDATE playlists SET name = $1, description = $2, updated_at = $3 WHERE id = $4`,
		p.Name, p.Description, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update playlist: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("playlist", p.ID)
	}

	return nil
}

// Delete removes a playlist and its membership rows.
func (r *PlaylistRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1`, id); err != nil {
		return fmt.Errorf("delete playlist videos: %w", err)
	}

	ct, err := r.db.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("playlist", id)
	}

	return nil
}

// AddVideo appends a video to the playlist. Re-adding a present video is a
// no-op.
func (r *PlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string) error {
	query := `
		INSERT INTO playlist_videos (playlist_id, video_id, position)
		VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM playlist_videos WHERE playlist_id = $1))
		ON CONFLICT (playlist_id, video_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, query, playlistID, videoID); err != nil {
		return fmt.Errorf("add playlist video: %w", err)
	}

	return nil
}

// RemoveVideo removes a video from the playlist.
func (r *PlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2`,
		playlistID, videoID,
	)
	if err != nil {
		return fmt.Errorf("remove playlist video: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("playlist video", videoID)
	}

	return nil
}
