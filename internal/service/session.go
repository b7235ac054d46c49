// Package service implements the business logic between the HTTP handlers
// and the repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vikaskumar2611/streamly-sub001/internal/auth"
	"github.com/vikaskumar2611/streamly-sub001/internal/domain"
	"github.com/vikaskumar2611/streamly-sub001/internal/repository"
	apperrors "github.com/vikaskumar2611/streamly-sub001/pkg/errors"
)

// TokenPair is a freshly minted access/refresh credential pair. The refresh
// token travels only in the session cookie; RefreshExpiresAt bounds the
// cookie lifetime.
type TokenPair struct {
	AccessToken      string
	AccessExpiresIn  time.Duration
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// SessionService implements the server half of the session lifecycle:
// login, refresh with mandatory rotation, and logout.
type SessionService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	jwtManager  *auth.JWTManager
	logger      *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	jwtManager *auth.JWTManager,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwtManager:  jwtManager,
		logger:      logger,
	}
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// Login authenticates a user with email and password. On success the stored
// issuance id is replaced unconditionally, so any session on another device
// is superseded. The store write must succeed before the credentials are
// handed out; a failed write surfaces as ErrStoreUnavailable and the caller
// gets nothing.
func (s *SessionService) Login(ctx context.Context, input LoginInput) (*domain.User, *TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	pair, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new credential pair, rotating
// the stored issuance id. The presented token's issuance id must match the
// stored one; a mismatch means the token was already rotated away and the
// exchange fails with ErrUnauthorized. New tokens are minted before the store
// is touched, and the rotation must commit before anything is returned, so a
// crash or store failure leaves the prior credential valid.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*domain.User, *TokenPair, error) {
	claims, err := s.jwtManager.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("unknown identity")
	}

	newRefresh, newID, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("generate refresh token: %w", err)
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, nil, fmt.Errorf("generate access token: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.jwtManager.RefreshExpiry())
	if err := s.sessionRepo.Rotate(ctx, user.ID, claims.ID, newID, expiresAt); err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			s.logger.WarnContext(ctx, "refresh token reuse detected",
				slog.String("user_id", user.ID),
				slog.String("presented_id", claims.ID),
			)
		}
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "session refreshed",
		slog.String("user_id", user.ID),
	)

	return user, &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresIn:  s.jwtManager.AccessExpiry(),
		RefreshToken:     newRefresh,
		RefreshExpiresAt: expiresAt,
	}, nil
}

// Logout clears the stored session for the identity named by the refresh
// token. An invalid or already-cleared token is not an error; logout is
// idempotent.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtManager.VerifyRefreshToken(refreshToken)
	if err != nil {
		// Nothing to clear for a token we cannot attribute.
		return nil
	}

	if err := s.sessionRepo.Clear(ctx, claims.UserID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", claims.UserID),
	)

	return nil
}

// issueSession mints a credential pair and stores its issuance id, replacing
// any prior session for the user.
func (s *SessionService) issueSession(ctx context.Context, user *domain.User) (*TokenPair, error) {
	refreshToken, issuanceID, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.jwtManager.RefreshExpiry())
	if err := s.sessionRepo.Upsert(ctx, user.ID, issuanceID, expiresAt); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresIn:  s.jwtManager.AccessExpiry(),
		RefreshToken:     refreshToken,
		RefreshExpiresAt: expiresAt,
	}, nil
}
