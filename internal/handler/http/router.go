package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vikaskumar2611/streamly-sub001/internal/auth"
	"github.com/vikaskumar2611/streamly-sub001/internal/service"
	"github.com/vikaskumar2611/streamly-sub001/pkg/health"
	"github.com/vikaskumar2611/streamly-sub001/pkg/middleware"
)

// Services bundles the service-layer dependencies of the router.
type Services struct {
	Session  *service.SessionService
	User     *service.UserService
	Video    *service.VideoService
	Comment  *service.CommentService
	Playlist *service.PlaylistService
	Post     *service.PostService
	Like     *service.LikeService
}

// RouterConfig holds the transport-level knobs of the router.
type RouterConfig struct {
	CORS         CORSConfig
	CookieSecure bool
}

// NewRouter creates a chi router with all API routes registered.
func NewRouter(
	svcs Services,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("api"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token validator that bridges to the internal JWTManager. Protected
	// handlers only ever see the verified claims; none of them consults the
	// session store.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.VerifyAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID:   claims.UserID,
			Username: claims.Username,
		}, nil
	}

	sessionHandler := NewSessionHandler(svcs.Session, cfg.CookieSecure, logger)
	userHandler := NewUserHandler(svcs.User, sessionHandler, logger)
	videoHandler := NewVideoHandler(svcs.Video, logger)
	commentHandler := NewCommentHandler(svcs.Comment, logger)
	playlistHandler := NewPlaylistHandler(svcs.Playlist, logger)
	postHandler := NewPostHandler(svcs.Post, logger)
	likeHandler := NewLikeHandler(svcs.Like, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Session lifecycle (public; refresh token rides on the cookie)
		r.Route("/session", func(r chi.Router) {
			r.Post("/login", sessionHandler.Login)
			r.Post("/refresh", sessionHandler.Refresh)
			r.Post("/logout", sessionHandler.Logout)
		})

		// Public surface. OptionalAuth lets owners see their own
		// unpublished videos through the same routes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(tokenValidator))

			r.Post("/users/register", userHandler.Register)
			r.Get("/channels/{username}", userHandler.GetChannel)

			r.Get("/videos", videoHandler.List)
			r.Get("/videos/{id}", videoHandler.Get)
			r.Post("/videos/{id}/view", videoHandler.RecordView)
			r.Get("/videos/{id}/comments", commentHandler.ListByVideo)

			r.Get("/playlists/{id}", playlistHandler.Get)
			r.Get("/posts", postHandler.List)
			r.Get("/posts/{id}", postHandler.Get)
			r.Get("/likes/{targetType}/{targetId}", likeHandler.Count)
		})

		// Protected surface (access token required)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Get("/users/me", userHandler.GetProfile)
			r.Put("/users/me", userHandler.UpdateProfile)

			r.Post("/videos", videoHandler.Create)
			r.Patch("/videos/{id}", videoHandler.Update)
			r.Post("/videos/{id}/publish", videoHandler.Publish)
			r.Delete("/videos/{id}", videoHandler.Delete)
			r.Post("/videos/{id}/comments", commentHandler.Create)

			r.Put("/comments/{id}", commentHandler.Update)
			r.Delete("/comments/{id}", commentHandler.Delete)

			r.Get("/playlists", playlistHandler.ListMine)
			r.Post("/playlists", playlistHandler.Create)
			r.Patch("/playlists/{id}", playlistHandler.Update)
			r.Delete("/playlists/{id}", playlistHandler.Delete)
			r.Put("/playlists/{id}/videos/{videoId}", playlistHandler.AddVideo)
			r.Delete("/playlists/{id}/videos/{videoId}", playlistHandler.RemoveVideo)

			r.Post("/posts", postHandler.Create)
			r.Put("/posts/{id}", postHandler.Update)
			r.Delete("/posts/{id}", postHandler.Delete)

			r.Post("/likes/{targetType}/{targetId}", likeHandler.Toggle)
		})
	})

	return r
}
