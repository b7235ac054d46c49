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

// CommentHandler handles comment endpoints.
type CommentHandler struct {
	service *service.CommentService
	logger  *slog.Logger
}

// NewCommentHandler creates a new comment HTTP handler.
func NewCommentHandler(svc *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{service: svc, logger: logger}
}

// CommentRequest is the JSON request body for creating or editing a comment.
type CommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// Create handles POST /api/v1/videos/{id}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CommentRequest
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
	comment, err := h.service.Create(r.Context(), ownerID, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: comment})
}

// ListByVideo handles GET /api/v1/videos/{id}/comments
func (h *CommentHandler) ListByVideo(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)

	result, err := h.service.ListByVideo(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Update handles PUT /api/v1/comments/{id}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CommentRequest
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
	comment, err := h.service.Update(r.Context(), ownerID, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: comment})
}

// Delete handles DELETE /api/v1/comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.UserIDFromContext(r.Context())

	if err := h.service.Delete(r.Context(), requesterID, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
