// Package http exposes the REST API: session lifecycle endpoints, account
// registration, and the protected video/comment/playlist/post/like surface.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vikaskumar2611/streamly-sub001/internal/service"
	apperrors "github.com/vikaskumar2611/streamly-sub001/pkg/errors"
	"github.com/vikaskumar2611/streamly-sub001/pkg/httputil"
	"github.com/vikaskumar2611/streamly-sub001/pkg/validator"
)

// refreshCookieName is the cookie carrying the refresh token.
const refreshCookieName = "refresh_token"

// refreshCookiePath scopes the cookie to the session endpoints so protected
// API calls never carry the refresh token.
const refreshCookiePath = "/api/v1/session"

// SessionHandler handles the session lifecycle endpoints. The refresh token
// travels exclusively in an HTTP-only cookie; the response body carries only
// the access token and the identity summary.
type SessionHandler struct {
	service      *service.SessionService
	cookieSecure bool
	logger       *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler. cookieSecure should
// be false only in local development over plain HTTP.
func NewSessionHandler(svc *service.SessionService, cookieSecure bool, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{service: svc, cookieSecure: cookieSecure, logger: logger}
}

// LoginRequest is the JSON request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse carries the identity summary and access token returned by
// login, refresh, and register.
type SessionResponse struct {
	User        any    `json:"user"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Login handles POST /api/v1/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, pair, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.setRefreshCookie(w, pair)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: SessionResponse{
			User:        user.Public(),
			AccessToken: pair.AccessToken,
			ExpiresIn:   int64(pair.AccessExpiresIn.Seconds()),
		},
	})
}

// Refresh handles POST /api/v1/session/refresh. The refresh token is read
// from the cookie only; any failure answers 401 and clears the cookie so the
// client converges on logged-out.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		h.clearRefreshCookie(w)
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "unauthorized"},
		})
		return
	}

	user, pair, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			h.clearRefreshCookie(w)
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.setRefreshCookie(w, pair)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: SessionResponse{
			User:        user.Public(),
			AccessToken: pair.AccessToken,
			ExpiresIn:   int64(pair.AccessExpiresIn.Seconds()),
		},
	})
}

// Logout handles POST /api/v1/session/logout. Always 200: logging out of a
// dead session is success.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		if err := h.service.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to clear session on logout",
				slog.String("error", err.Error()),
			)
		}
	}

	h.clearRefreshCookie(w)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"status": "logged_out"},
	})
}

func (h *SessionHandler) setRefreshCookie(w http.ResponseWriter, pair *service.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.RefreshToken,
		Path:     refreshCookiePath,
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *SessionHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
