package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/vikaskumar2611/streamly-sub001/pkg/errors"
)

// SessionRepository implements repository.SessionRepository using PostgreSQL.
// The sessions table is keyed by user_id, so at most one refresh issuance id
// exists per identity.
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new PostgreSQL-backed session repository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert stores the issuance id for the user, replacing any prior one. Used
// on login, where the previous session (if any) is unconditionally replaced.
func (r *SessionRepository) Upsert(ctx context.Context, userID, tokenID string, expiresAt time.Time) error {
	query := `
		INSERT INTO sessions (user_id, refresh_token_id, expires_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET refresh_token_id = EXCLUDED.refresh_token_id,
		              expires_at = EXCLUDED.expires_at,
		              updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query, userID, tokenID, expiresAt, time.Now().UTC())
	if err != nil {
		return apperrors.StoreUnavailable(fmt.Errorf("upsert session: %w", err))
	}

	return nil
}

// Current returns the stored issuance id for the user.
func (r *SessionRepository) Current(ctx context.Context, userID string) (string, error) {
	query := `SELECT refresh_token_id FROM sessions WHERE user_id = $1`

	var tokenID string
	err := r.db.QueryRow(ctx, query, userID).Scan(&tokenID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", apperrors.StoreUnavailable(fmt.Errorf("select session: %w", err))
	}

	return tokenID, nil
}

// Rotate replaces oldTokenID with newTokenID in a single conditional UPDATE.
// The WHERE clause is the compare half of a compare-and-set: when the stored
// id is not oldTokenID the update matches no row and the presented credential
// has been superseded, so the caller gets ErrUnauthorized. Concurrent
// rotations for one user are linearized by the row lock; only one can win.
func (r *SessionRepository) Rotate(ctx context.Context, userID, oldTokenID, newTokenID string, expiresAt time.Time) error {
	query := `
		UPDATE sessions
		SET refresh_token_id = $1, expires_at = $2, updated_at = $3
		WHERE user_id = $4 AND refresh_token_id = $5`

	ct, err := r.db.Exec(ctx, query, newTokenID, expiresAt, time.Now().UTC(), userID, oldTokenID)
	if err != nil {
		return apperrors.StoreUnavailable(fmt.Errorf("rotate session: %w", err))
	}

	if ct.RowsAffected() == 0 {
		return apperrors.Unauthorized("refresh credential superseded")
	}

	return nil
}

// Clear removes the stored issuance id. Clearing an absent row is a no-op,
// which keeps logout idempotent.
func (r *SessionRepository) Clear(ctx context.Context, userID string) error {
	query := `DELETE FROM sessions WHERE user_id = $1`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return apperrors.StoreUnavailable(fmt.Errorf("delete session: %w", err))
	}

	return nil
}
