// Package auth mints and verifies the two credential kinds used by the
// session lifecycle: short-lived access tokens and long-lived rotating
// refresh tokens. Verification is pure; it never touches the session store.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/vikaskumar2611/streamly-sub001/pkg/errors"
)

// Token kind values embedded in the "kind" claim. A token presented for the
// wrong purpose fails verification even when its signature is valid.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// RefreshClaims are the claims carried by a refresh token. ID (jti) is the
// issuance id checked against the session store on refresh.
type RefreshClaims struct {
	UserID string `json:"user_id"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies session credentials.
type JWTManager struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewJWTManager creates a manager with the given secret and expiry durations.
func NewJWTManager(secret string, accessExpiry, refreshExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// AccessExpiry returns the configured access token lifetime.
func (m *JWTManager) AccessExpiry() time.Duration { return m.accessExpiry }

// RefreshExpiry returns the configured refresh token lifetime.
func (m *JWTManager) RefreshExpiry() time.Duration { return m.refreshExpiry }

// GenerateAccessToken creates a signed access token for the given identity.
func (m *JWTManager) GenerateAccessToken(userID, username string) (string, error) {
	now := time.Now().UTC()
	claims := &AccessClaims{
		UserID:   userID,
		Username: username,
		Kind:     KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessExpiry)),
			Issuer:    "streamly",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signed, nil
}

// GenerateRefreshToken creates a signed refresh token and returns it together
// with its unique issuance id. The caller persists the issuance id; a refresh
// token whose id no longer matches the stored one has been superseded.
func (m *JWTManager) GenerateRefreshToken(userID string) (token, issuanceID string, err error) {
	now := time.Now().UTC()
	issuanceID = uuid.New().String()
	claims := &RefreshClaims{
		UserID: userID,
		Kind:   KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        issuanceID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshExpiry)),
			Issuer:    "streamly",
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}

	return signed, issuanceID, nil
}

// VerifyAccessToken parses and validates an access token. Bad signature,
// wrong kind, and expiry (a token exactly at its expiry instant is expired)
// all collapse into ErrInvalidCredential.
func (m *JWTManager) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := m.verify(tokenString, &claims); err != nil {
		return nil, err
	}
	if claims.Kind != KindAccess {
		return nil, fmt.Errorf("%w: not an access token", apperrors.ErrInvalidCredential)
	}
	return &claims, nil
}

// VerifyRefreshToken parses and validates a refresh token.
func (m *JWTManager) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := m.verify(tokenString, &claims); err != nil {
		return nil, err
	}
	if claims.Kind != KindRefresh {
		return nil, fmt.Errorf("%w: not a refresh token", apperrors.ErrInvalidCredential)
	}
	return &claims, nil
}

func (m *JWTManager) verify(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: expired", apperrors.ErrInvalidCredential)
		}
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidCredential, err)
	}
	if !token.Valid {
		return apperrors.ErrInvalidCredential
	}
	return nil
}
