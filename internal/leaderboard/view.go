// Package leaderboard projects member ledgers into ranked standings, one-shot
// or live.
package leaderboard

import (
	"context"
	"errors"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/dccc/clubhouse/internal/cache"
	"github.com/dccc/clubhouse/internal/db"
	"github.com/dccc/clubhouse/internal/errs"
	"github.com/dccc/clubhouse/internal/models"
	"github.com/dccc/clubhouse/pkg/logging"
	"github.com/dccc/clubhouse/pkg/telemetry"
)

const currentKey = "current"

// Entry is one ranked row
type Entry struct {
	Rank             int         `json:"rank"`
	MemberID         string      `json:"uid"`
	Name             string      `json:"name"`
	Batch            string      `json:"batch"`
	Role             models.Role `json:"role"`
	LeaderboardScore int64       `json:"leaderboardScore"`
	TotalLikes       int64       `json:"totalLikes"`
	TotalSuggestions int64       `json:"totalSuggestions"`
	SubmissionsCount int64       `json:"submissionsCount"`
}

// Options configures a View
type Options struct {
	EligibleRoles []models.Role
	Limit         int
	MemoTTL       time.Duration
}

// View reads ranked standings. Current standings are memoized in process;
// archived standings are immutable and cached in Redis when available.
type View struct {
	repo   *db.Repository
	redis  *cache.Cache
	memo   *gocache.Cache
	opts   Options
	roles  map[models.Role]bool
	logger *zap.Logger
}

// NewView creates a leaderboard view. redis may be nil.
func NewView(repo *db.Repository, redis *cache.Cache, opts Options) *View {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.MemoTTL <= 0 {
		opts.MemoTTL = 30 * time.Second
	}
	roles := make(map[models.Role]bool, len(opts.EligibleRoles))
	for _, r := range opts.EligibleRoles {
		roles[r] = true
	}
	return &View{
		repo:   repo,
		redis:  redis,
		memo:   gocache.New(opts.MemoTTL, 2*opts.MemoTTL),
		opts:   opts,
		roles:  roles,
		logger: logging.WithComponent("leaderboard"),
	}
}

// Eligible reports whether a role competes on the leaderboard
func (v *View) Eligible(r models.Role) bool {
	return v.roles[r]
}

// EligibleRoles returns the competing roles
func (v *View) EligibleRoles() []models.Role {
	return v.opts.EligibleRoles
}

// FeaturedRoles returns the roles shown outside the competition
func (v *View) FeaturedRoles() []models.Role {
	var out []models.Role
	for r := models.RoleGeneralStudent; r <= models.RoleAdmin; r++ {
		if !v.roles[r] {
			out = append(out, r)
		}
	}
	return out
}

// Current returns the live top-N standings
func (v *View) Current(ctx context.Context) ([]Entry, error) {
	if cached, ok := v.memo.Get(currentKey); ok {
		return cached.([]Entry), nil
	}
	return v.Refresh(ctx)
}

// Refresh reloads the standings from the store, bypassing the memo
func (v *View) Refresh(ctx context.Context) ([]Entry, error) {
	ctx, span := telemetry.StartSpan(ctx, "leaderboard.refresh")
	defer span.End()

	members, err := v.repo.Members().Ranked(ctx, v.opts.EligibleRoles, v.opts.Limit)
	if err != nil {
		return nil, errs.FromStore(err, "load leaderboard")
	}
	entries := Rank(members)
	v.memo.SetDefault(currentKey, entries)
	return entries, nil
}

// Invalidate drops the memoized current standings
func (v *View) Invalidate() {
	v.memo.Delete(currentKey)
}

func archiveKey(id string) string {
	return "archive:" + id
}

// Archived returns a frozen leaderboard by its YYYY-MM id
func (v *View) Archived(ctx context.Context, id string) (*models.LeaderboardArchive, error) {
	var archive models.LeaderboardArchive
	err := v.redis.GetJSON(ctx, archiveKey(id), &archive)
	switch {
	case err == nil:
		return &archive, nil
	case errors.Is(err, cache.ErrMiss), errors.Is(err, cache.ErrCacheDisabled):
	default:
		v.logger.Warn("Archive cache read failed", zap.String("archive_id", id), zap.Error(err))
	}

	found, err := v.repo.Archives().GetByID(ctx, id)
	if err != nil {
		return nil, errs.FromStore(err, "load archive")
	}
	if found == nil {
		return nil, errs.NotFound("archive %s not found", id)
	}

	// Archives never change, so they are cached without expiry
	if err := v.redis.SetJSON(ctx, archiveKey(id), found, 0); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		v.logger.Warn("Archive cache write failed", zap.String("archive_id", id), zap.Error(err))
	}
	return found, nil
}

// ListArchives returns archive ids newest first
func (v *View) ListArchives(ctx context.Context) ([]string, error) {
	ids, err := v.repo.Archives().ListIDs(ctx)
	if err != nil {
		return nil, errs.FromStore(err, "list archives")
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Less orders two members: score descending, then name, then id
func Less(a, b *models.Member) bool {
	if a.LeaderboardScore != b.LeaderboardScore {
		return a.LeaderboardScore > b.LeaderboardScore
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}

// Rank sorts members into leaderboard order and numbers them from 1
func Rank(members []*models.Member) []Entry {
	sorted := make([]*models.Member, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool { return Less(sorted[i], sorted[j]) })

	entries := make([]Entry, len(sorted))
	for i, m := range sorted {
		entries[i] = Entry{
			Rank:             i + 1,
			MemberID:         m.ID,
			Name:             m.Name,
			Batch:            m.Batch,
			Role:             m.Role,
			LeaderboardScore: m.LeaderboardScore,
			TotalLikes:       m.TotalLikes,
			TotalSuggestions: m.TotalSuggestions,
			SubmissionsCount: m.SubmissionsCount,
		}
	}
	return entries
}
