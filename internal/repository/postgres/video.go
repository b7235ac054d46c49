package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vikaskumar2611/streamly-sub001/internal/domain"
	apperrors "github.com/vikaskumar2611/streamly-sub001/pkg/errors"
	"github.com/vikaskumar2611/streamly-sub001/pkg/pagination"
)

// VideoRepository implements repository.VideoRepository using PostgreSQL.
type VideoRepository struct {
	db DB
}

// NewVideoRepository creates a new PostgreSQL-backed video repository.
func NewVideoRepository(db DB) *VideoRepository {
	return &VideoRepository{db: db}
}

const videoColumns = `id, owner_id, title, slug, description, video_url, thumbnail_url, duration_seconds, views, published, created_at, updated_at`

// Create inserts a new video record.
func (r *VideoRepository) Create(ctx context.Context, v *domain.Video) error {
	query := `
		INSERT INTO videos (` + videoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		v.ID,
		v.OwnerID,
		v.Title,
		v.Slug,
		v.Description,
		v.VideoURL,
		v.ThumbnailURL,
		v.Duration,
		v.Views,
		v.Published,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// GetByID retrieves a video by its ID.
func (r *VideoRepository) GetByID(ctx context.Context, id string) (*domain.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	var v domain.Video
	err := r.db.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.OwnerID, &v.Title, &v.Slug, &v.Description,
		&v.VideoURL, &v.ThumbnailURL, &v.Duration, &v.Views, &v.Published,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("video", id)
		}
		return nil, fmt.Errorf("scan video: %w", err)
	}

	return &v, nil
}

// List returns videos newest-first, optionally filtered by owner and
// publication state, plus the total count for pagination.
func (r *VideoRepository) List(ctx context.Context, ownerID string, publishedOnly bool, p pagination.Params) ([]domain.Video, int, error) {
	where := `WHERE ($1 = '' OR owner_id = $1) AND (NOT $2 OR published)`

	var total int
	countQuery := `SELECT COUNT(*) FROM videos ` + where
	if err := r.db.QueryRow(ctx, countQuery, ownerID, publishedOnly).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	query := `SELECT ` + videoColumns + ` FROM videos ` + where + `
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.Query(ctx, query, ownerID, publishedOnly, p.PerPage, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []domain.Video
	for rows.Next() {
		var v domain.Video
		if err := rows.Scan(
			&v.ID, &v.OwnerID, &v.Title, &v.Slug, &v.Description,
			&v.VideoURL, &v.ThumbnailURL, &v.Duration, &v.Views, &v.Published,
			&v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan video row: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, total, nil
}

// Update modifies an existing video's metadata.
func (r *VideoRepository) Update(ctx context.Context, v *domain.Video) error {
	v.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE videos
		SET title = $1, slug = $2, description = $3, thumbnail_url = $4, published = $5, updated_at = $6
		WHERE id = $7`

	ct, err := r.db.Exec(ctx, query,
		v.Title, v.Slug, v.Description, v.ThumbnailURL, v.Published, v.UpdatedAt, v.ID,
	)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("video", v.ID)
	}

	return nil
}

// Delete removes a video record.
func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("video", id)
	}

	return nil
}

// AddViews folds a drained view-counter delta into the stored count.
func (r *VideoRepository) AddViews(ctx context.Context, id string, delta int64) error {
	if delta == 0 {
		return nil
	}

	_, err := r.db.Exec(ctx, `UPDATE videos SET views = views + $1 WHERE id = $2`, delta, id)
	if err != nil {
		return fmt.Errorf("add video views: %w", err)
	}

	return nil
}
