// Package app wires the club services from configuration. It is shared by
// the API server and the admin CLI.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dccc/clubhouse/internal/archive"
	"github.com/dccc/clubhouse/internal/cache"
	"github.com/dccc/clubhouse/internal/db"
	"github.com/dccc/clubhouse/internal/leaderboard"
	"github.com/dccc/clubhouse/internal/members"
	"github.com/dccc/clubhouse/internal/models"
	"github.com/dccc/clubhouse/internal/notify"
	"github.com/dccc/clubhouse/internal/scoring"
	"github.com/dccc/clubhouse/internal/shows"
	"github.com/dccc/clubhouse/pkg/config"
	"github.com/dccc/clubhouse/pkg/logging"
)

// App holds the wired services
type App struct {
	DB    *db.DB
	Cache *cache.Cache
	Repo  *db.Repository

	Weights     scoring.Weights
	Leaderboard *leaderboard.View
	Hub         *leaderboard.Hub
	Members     *members.Service
	Shows       *shows.Service
	Archive     *archive.Service
	Inbox       *notify.Inbox
}

// New connects to the database and cache and builds every service
func New(cfg *config.Config) (*App, error) {
	eligible, err := models.ParseRoles(cfg.Leaderboard.EligibleRoles)
	if err != nil {
		return nil, fmt.Errorf("invalid leaderboard roles: %w", err)
	}
	minRole, err := models.ParseRole(cfg.Posting.MinRole)
	if err != nil {
		return nil, fmt.Errorf("invalid posting role: %w", err)
	}
	weights := scoring.WeightsFromConfig(&cfg.Scoring)
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		// The cache only accelerates archive reads and fans out changes
		logging.GetLogger().Warn("Redis unavailable, continuing without cache", zap.Error(err))
		redisCache = nil
	}

	return Wire(database, redisCache, weights, minRole, leaderboard.Options{
		EligibleRoles: eligible,
		Limit:         cfg.Leaderboard.Limit,
		MemoTTL:       cfg.Leaderboard.CacheTTL,
	}), nil
}

// Wire builds the services over an open database
func Wire(database *db.DB, redisCache *cache.Cache, weights scoring.Weights, minRole models.Role, lb leaderboard.Options) *App {
	repo := db.NewRepository(database.DB)
	ledger := scoring.NewLedger(weights)
	eligible := lb.EligibleRoles

	view := leaderboard.NewView(repo, redisCache, lb)
	hub := leaderboard.NewHub(view, redisCache)
	store := notify.NewStore(repo)

	return &App{
		DB:          database,
		Cache:       redisCache,
		Repo:        repo,
		Weights:     weights,
		Leaderboard: view,
		Hub:         hub,
		Members:     members.NewService(repo, ledger, store, hub),
		Shows: shows.NewService(repo, ledger, store, hub, shows.Options{
			MinPostingRole: minRole,
			EligibleRoles:  eligible,
			FeaturedRoles:  view.FeaturedRoles(),
		}),
		Archive: archive.NewService(repo, weights, eligible, hub),
		Inbox:   notify.NewInbox(repo),
	}
}

// Migrate creates or updates the schema
func (a *App) Migrate(ctx context.Context) error {
	return a.DB.Migrate(ctx)
}

// Close releases the database and cache connections
func (a *App) Close() {
	if err := a.Cache.Close(); err != nil {
		logging.GetLogger().Warn("Failed to close cache", zap.Error(err))
	}
	if err := a.DB.Close(); err != nil {
		logging.GetLogger().Warn("Failed to close database", zap.Error(err))
	}
}
