package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vikaskumar2611/streamly-sub001/internal/domain"
	"github.com/vikaskumar2611/streamly-sub001/internal/service"
	"github.com/vikaskumar2611/streamly-sub001/pkg/httputil"
	"github.com/vikaskumar2611/streamly-sub001/pkg/middleware"
)

// LikeHandler handles like toggling and counting.
type LikeHandler struct {
	service *service.LikeService
	logger  *slog.Logger
}

// NewLikeHandler creates a new like HTTP handler.
func NewLikeHandler(svc *service.LikeService, logger *slog.Logger) *LikeHandler {
	return &LikeHandler{service: svc, logger: logger}
}

// LikeResponse reports the toggle outcome and the updated count.
type LikeResponse struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"count"`
}

// Toggle handles POST /api/v1/likes/{targetType}/{targetId}
func (h *LikeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	target := domain.LikeTarget(chi.URLParam(r, "targetType"))
	targetID := chi.URLParam(r, "targetId")

	liked, count, err := h.service.Toggle(r.Context(), userID, target, targetID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: LikeResponse{Liked: liked, Count: count},
	})
}

// Count handles GET /api/v1/likes/{targetType}/{targetId}
func (h *LikeHandler) Count(w http.ResponseWriter, r *http.Request) {
	target := domain.LikeTarget(chi.URLParam(r, "targetType"))
	targetID := chi.URLParam(r, "targetId")

	count, err := h.service.Count(r.Context(), target, targetID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]int64{"count": count},
	})
}
