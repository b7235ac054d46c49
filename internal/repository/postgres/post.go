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

// PostRepository implements repository.PostRepository using PostgreSQL.
type PostRepository struct {
	db DB
}

// NewPostRepository creates a new PostgreSQL-backed post repository.
func NewPostRepository(db DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a new community post.
func (r *PostRepository) Create(ctx context.Context, p *domain.Post) error {
	query := `
		INSERT INTO posts (id, owner_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query, p.ID, p.OwnerID, p.Content, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	return nil
}

// GetByID retrieves a post by its ID.
func (r *PostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	query := `SELECT id, owner_id, content, created_at, updated_at FROM posts WHERE id = $1`

	var p domain.Post
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.OwnerID, &p.Content, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("post", id)
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}

	return &p, nil
}

// ListByOwner returns a channel's posts newest-first plus the total count.
func (r *PostRepository) ListByOwner(ctx context.Context, ownerID string, p pagination.Params) ([]domain.Post, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	query := `
		SELECT id, owner_id, content, created_at, updated_at
		FROM posts
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, ownerID, p.PerPage, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var post domain.Post
		if err := rows.Scan(&post.ID, &post.OwnerID, &post.Content, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan post row: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, total, nil
}

// Update modifies a post's content.
func (r *PostRepository) Update(ctx context.Context, p *domain.Post) error {
	p.UpdatedAt = time.Now().UTC()

	ct, err := r.db.Exec(ctx,
		`UPDATE posts SET content = $1, updated_at = $2 WHERE id = $3`,
		p.Content, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("post", p.ID)
	}

	return nil
}

// Delete removes a post.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("post", id)
	}

	return nil
}
