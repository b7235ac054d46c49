package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vikaskumar2611/streamly-sub001/internal/service"
	"github.com/vikaskumar2611/streamly-sub001/pkg/httputil"
	"github.com/vikaskumar2611/streamly-sub001/pkg/middleware"
	"github.com/vikaskumar2611/streamly-sub001/pkg/validator"
)

// PlaylistHandler handles playlist endpoints.
type PlaylistHandler struct {
	service *service.PlaylistService
	logger  *slog.Logger
}

// NewPlaylistHandler creates a new playlist HTTP handler.
func NewPlaylistHandler(svc *service.PlaylistService, logger *slog.Logger) *PlaylistHandler {
	return &PlaylistHandler{service: svc, logger: logger}
}

// CreatePlaylistRequest is the JSON request body for creating a playlist.
type CreatePlaylistRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description,omitempty" validate:"max=1000"`
}

// UpdatePlaylistRequest is the JSON request body for updating a playlist.
type UpdatePlaylistRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// Create handles POST /api/v1/playlists
func (h *PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreatePlaylistRequest
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

	ownerID := middleware.UserIDFromContext(r.Context())
	playlist, err := h.service.Create(r.Context(), ownerID, service.CreatePlaylistInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: playlist})
}

// Get handles GET /api/v1/playlists/{id}
func (h *PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: playlist})
}

// ListMine handles GET /api/v1/playlists
func (h *PlaylistHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserIDFromContext(r.Context())

	playlists, err := h.service.ListByOwner(r.Context(), ownerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: playlists})
}

// Update handles PATCH /api/v1/playlists/{id}
func (h *PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdatePlaylistRequest
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

	ownerID := middleware.UserIDFromContext(r.Context())
	playlist, err := h.service.Update(r.Context(), ownerID, chi.URLParam(r, "id"), service.UpdatePlaylistInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: playlist})
}

// Delete handles DELETE /api/v1/playlists/{id}
func (h *PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserIDFromContext(r.Context())

	if err := h.service.Delete(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddVideo handles PUT /api/v1/playlists/{id}/videos/{videoId}
func (h *PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserIDFromContext(r.Context())

	err := h.service.AddVideo(r.Context(), ownerID, chi.URLParam(r, "id"), chi.URLParam(r, "videoId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveVideo handles DELETE /api/v1/playlists/{id}/videos/{videoId}
func (h *PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserIDFromContext(r.Context())

	err := h.service.RemoveVideo(r.Context(), ownerID, chi.URLParam(r, "id"), chi.URLParam(r, "videoId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
