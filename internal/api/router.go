package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dccc/clubhouse/internal/archive"
	"github.com/dccc/clubhouse/internal/auth"
	"github.com/dccc/clubhouse/internal/cache"
	"github.com/dccc/clubhouse/internal/db"
	"github.com/dccc/clubhouse/internal/leaderboard"
	"github.com/dccc/clubhouse/internal/members"
	"github.com/dccc/clubhouse/internal/notify"
	"github.com/dccc/clubhouse/internal/shows"
	"github.com/dccc/clubhouse/pkg/config"
	"github.com/dccc/clubhouse/pkg/logging"
)

// Services bundles the operations exposed over the API
type Services struct {
	Members     *members.Service
	Shows       *shows.Service
	Archive     *archive.Service
	Inbox       *notify.Inbox
	Leaderboard *leaderboard.View
	Hub         *leaderboard.Hub
}

// Options tunes the router
type Options struct {
	RequireVerifiedEmail bool
	RateLimit            config.RateLimitConfig
}

// Router sets up API routes
type Router struct {
	handler  *JSONRPCHandler
	db       *db.DB
	cache    *cache.Cache
	verifier auth.Verifier
	svc      Services
	opts     Options
	limiter  *memberLimiter
	logger   *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(database *db.DB, redisCache *cache.Cache, verifier auth.Verifier, svc Services, opts Options) *Router {
	router := &Router{
		handler:  NewJSONRPCHandler(),
		db:       database,
		cache:    redisCache,
		verifier: verifier,
		svc:      svc,
		opts:     opts,
		limiter:  newMemberLimiter(opts.RateLimit.PerSecond, opts.RateLimit.Burst),
		logger:   logging.WithComponent("api-router"),
	}

	router.registerMethods()

	return router
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	authed := engine.Group("/", auth.Middleware(r.verifier))
	authed.POST("/rpc", r.handler.Handle)
	authed.GET("/leaderboard/stream", r.streamLeaderboard)
}

// registerMethods registers all API methods
func (r *Router) registerMethods() {
	// Members
	r.handler.RegisterMethod("club.register", r.register)
	r.handler.RegisterMethod("club.get_profile", r.getProfile)
	r.handler.RegisterMethod("club.set_role", r.mutating(r.setRole))
	r.handler.RegisterMethod("club.recalculate", r.mutating(r.recalculate))

	// Shows
	r.handler.RegisterMethod("club.submit_show", r.mutating(r.submitShow))
	r.handler.RegisterMethod("club.get_show", r.getShow)
	r.handler.RegisterMethod("club.get_feed", r.getFeed)
	r.handler.RegisterMethod("club.get_featured", r.getFeatured)
	r.handler.RegisterMethod("club.get_shows_by_author", r.getShowsByAuthor)
	r.handler.RegisterMethod("club.list_pending_shows", r.listPendingShows)
	r.handler.RegisterMethod("club.toggle_like", r.mutating(r.toggleLike))
	r.handler.RegisterMethod("club.add_suggestion", r.mutating(r.addSuggestion))
	r.handler.RegisterMethod("club.set_approval", r.mutating(r.setApproval))
	r.handler.RegisterMethod("club.delete_show", r.mutating(r.deleteShow))

	// Leaderboard and archives
	r.handler.RegisterMethod("club.get_leaderboard", r.getLeaderboard)
	r.handler.RegisterMethod("club.list_archives", r.listArchives)
	r.handler.RegisterMethod("club.reset_leaderboard", r.mutating(r.resetLeaderboard))
	r.handler.RegisterMethod("club.best_show", r.bestShow)

	// Promotions
	r.handler.RegisterMethod("club.request_promotion", r.mutating(r.requestPromotion))
	r.handler.RegisterMethod("club.list_promotions", r.listPromotions)
	r.handler.RegisterMethod("club.approve_promotion", r.mutating(r.approvePromotion))
	r.handler.RegisterMethod("club.reject_promotion", r.mutating(r.rejectPromotion))

	// Notifications
	r.handler.RegisterMethod("club.list_notifications", r.listNotifications)
	r.handler.RegisterMethod("club.mark_notifications_read", r.markNotificationsRead)
	r.handler.RegisterMethod("club.delete_notification", r.deleteNotification)
	r.handler.RegisterMethod("club.clear_notifications", r.clearNotifications)
}

// mutating throttles h per calling member
func (r *Router) mutating(h MethodHandler) MethodHandler {
	return func(c *gin.Context, params json.RawMessage) (interface{}, error) {
		if id, ok := auth.FromContext(c); ok && !r.limiter.Allow(id.UID) {
			return nil, ErrRateLimited
		}
		return h(c, params)
	}
}

// healthHandler reports database and cache health
func (r *Router) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status":  "OK",
		"service": "clubhouse-api",
	}

	if err := r.db.Health(ctx); err != nil {
		r.logger.Warn("Database health check failed", zap.Error(err))
		status = http.StatusServiceUnavailable
		body["status"] = "DEGRADED"
		body["database"] = "unavailable"
	} else {
		body["database"] = "ok"
	}

	switch err := r.cache.Health(ctx); {
	case err == nil:
		body["cache"] = "ok"
	case errors.Is(err, cache.ErrCacheDisabled):
		body["cache"] = "disabled"
	default:
		r.logger.Warn("Cache health check failed", zap.Error(err))
		body["cache"] = "unavailable"
	}

	if r.svc.Hub != nil {
		body["subscribers"] = r.svc.Hub.Subscribers()
		if snap := r.svc.Hub.Latest(); snap != nil {
			body["leaderboard_version"] = snap.Version
		}
	}

	c.JSON(status, body)
}
