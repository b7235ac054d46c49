package domain

import "time"

// Session is the stored refresh credential state for one identity. Exactly
// one row exists per user; the refresh token id is replaced on every rotation
// and a presented token whose id no longer matches has been superseded.
type Session struct {
	UserID         string    `json:"user_id"`
	RefreshTokenID string    `json:"-"`
	ExpiresAt      time.Time `json:"expires_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
