package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vikaskumar2611/streamly-sub001/internal/service"
	"github.com/vikaskumar2611/streamly-sub001/pkg/httputil"
	"github.com/vikaskumar2611/streamly-sub001/pkg/middleware"
	"github.com/vikaskumar2611/streamly-sub001/pkg/pagination"
	"github.com/vikaskumar2611/streamly-sub001/pkg/validator"
)

// VideoHandler handles video metadata endpoints.
type VideoHandler struct {
	service *service.VideoService
	logger  *slog.Logger
}

// NewVideoHandler creates a new video HTTP handler.
func NewVideoHandler(svc *service.VideoService, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{service: svc, logger: logger}
}

// CreateVideoRequest is the JSON request body for creating a video.
type CreateVideoRequest struct {
	Title        string `json:"title" validate:"required,min=1,max=200"`
	Description  string `json:"description,omitempty" validate:"max=5000"`
	VideoURL     string `json:"video_url" validate:"required,url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty" validate:"omitempty,url"`
	Duration     int    `json:"duration_seconds" validate:"required,gt=0"`
}

// UpdateVideoRequest is the JSON request body for updating video metadata.
type UpdateVideoRequest struct {
	Title        *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty" validate:"omitempty,url"`
}

// Create handles POST /api/v1/videos
func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateVideoRequest
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
	video, err := h.service.Create(r.Context(), ownerID, service.CreateVideoInput{
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		Duration:     req.Duration,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: video})
}

// Get handles GET /api/v1/videos/{id}
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	viewerID := middleware.UserIDFromContext(r.Context())

	video, err := h.service.Get(r.Context(), id, viewerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: video})
}

// List handles GET /api/v1/videos with optional ?owner_id= filtering.
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	ownerID := r.URL.Query().Get("owner_id")

	result, err := h.service.List(r.Context(), ownerID, p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Update handles PATCH /api/v1/videos/{id}
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateVideoRequest
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
	video, err := h.service.Update(r.Context(), ownerID, chi.URLParam(r, "id"), service.UpdateVideoInput{
		Title:        req.Title,
		Description:  req.Description,
		ThumbnailURL: req.ThumbnailURL,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: video})
}

// Publish handles POST /api/v1/videos/{id}/publish
func (h *VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserIDFromContext(r.Context())

	video, err := h.service.Publish(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: video})
}

// Delete handles DELETE /api/v1/videos/{id}
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserIDFromContext(r.Context())

	if err := h.service.Delete(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecordView handles POST /api/v1/videos/{id}/view. Public: anonymous
// playbacks count too.
func (h *VideoHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RecordView(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
