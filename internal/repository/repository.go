// Package repository defines the persistence interfaces consumed by the
// service layer. PostgreSQL implementations live in the postgres subpackage;
// the video view counter has a Redis implementation in the redis subpackage.
package repository

import (
	"context"
	"time"

	"github.com/vikaskumar2611/streamly-sub001/internal/domain"
	"github.com/vikaskumar2611/streamly-sub001/pkg/pagination"
)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// SessionRepository is the durable refresh-credential store. It keeps at most
// one issuance id per user and must survive server restarts.
type SessionRepository interface {
	// Upsert stores the issuance id for the user, replacing any prior one.
	Upsert(ctx context.Context, userID, tokenID string, expiresAt time.Time) error

	// Current returns the stored issuance id for the user.
	Current(ctx context.Context, userID string) (string, error)

	// Rotate atomically replaces oldTokenID with newTokenID. It fails with
	// ErrUnauthorized when the stored id is not oldTokenID, which is how a
	// superseded (replayed) refresh credential is detected; two racing
	// rotations for the same user cannot both succeed.
	Rotate(ctx context.Context, userID, oldTokenID, newTokenID string, expiresAt time.Time) error

	// Clear removes the stored issuance id. Clearing an absent row succeeds.
	Clear(ctx context.Context, userID string) error
}

// VideoRepository persists video metadata.
type VideoRepository interface {
	Create(ctx context.Context, video *domain.Video) error
	GetByID(ctx context.Context, id string) (*domain.Video, error)
	List(ctx context.Context, ownerID string, publishedOnly bool, p pagination.Params) ([]domain.Video, int, error)
	Update(ctx context.Context, video *domain.Video) error
	Delete(ctx context.Context, id string) error
	// AddViews folds a drained view-counter delta into the stored count.
	AddViews(ctx context.Context, id string, delta int64) error
}

// CommentRepository persists video comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByVideo(ctx context.Context, videoID string, p pagination.Params) ([]domain.Comment, int, error)
	Update(ctx context.Context, comment *domain.Comment) error
	Delete(ctx context.Context, id string) error
}

// PlaylistRepository persists playlists and their video membership.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *domain.Playlist) error
	GetByID(ctx context.Context, id string) (*domain.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Playlist, error)
	Update(ctx context.Context, playlist *domain.Playlist) error
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// PostRepository persists community posts.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	ListByOwner(ctx context.Context, ownerID string, p pagination.Params) ([]domain.Post, int, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id string) error
}

// LikeRepository persists likes.
type LikeRepository interface {
	// Add inserts the like and reports whether it was newly created.
	Add(ctx context.Context, like *domain.Like) (bool, error)
	// Remove deletes the like and reports whether it existed.
	Remove(ctx context.Context, userID string, target domain.LikeTarget, targetID string) (bool, error)
	Count(ctx context.Context, target domain.LikeTarget, targetID string) (int64, error)
}

// ViewCounter accumulates video view deltas ahead of the durable count.
type ViewCounter interface {
	Increment(ctx context.Context, videoID string) (int64, error)
	Deltas(ctx context.Context, videoIDs []string) (map[string]int64, error)
	// Drain returns the accumulated delta and resets it to zero.
	Drain(ctx context.Context, videoID string) (int64, error)
}
