// Package archive closes a scoring period: it freezes the standings into an
// archive record and zeroes the live ledgers, atomically.
package archive

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dccc/clubhouse/internal/db"
	"github.com/dccc/clubhouse/internal/errs"
	"github.com/dccc/clubhouse/internal/models"
	"github.com/dccc/clubhouse/internal/scoring"
	"github.com/dccc/clubhouse/pkg/logging"
	"github.com/dccc/clubhouse/pkg/telemetry"
)

// PeriodLayout is the archive id format
const PeriodLayout = "2006-01"

// ChangeNotifier is told when the standings are reset
type ChangeNotifier interface {
	Notify(ctx context.Context)
}

// Service runs resets and period queries
type Service struct {
	repo          *db.Repository
	weights       scoring.Weights
	eligibleRoles []models.Role
	changes       ChangeNotifier
	logger        *zap.Logger
	now           func() time.Time
}

// NewService creates an archive service. changes may be nil.
func NewService(repo *db.Repository, weights scoring.Weights, eligibleRoles []models.Role, changes ChangeNotifier) *Service {
	return &Service{
		repo:          repo,
		weights:       weights,
		eligibleRoles: eligibleRoles,
		changes:       changes,
		logger:        logging.WithComponent("archive"),
		now:           time.Now,
	}
}

// PeriodID returns the id of the period closed by a reset at t: the
// calendar month before t, in UTC
func PeriodID(t time.Time) string {
	t = t.UTC()
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, -1, 0).Format(PeriodLayout)
}

// Reset archives the standings of every eligible member with a positive
// score and zeroes their likes, suggestions and score. Submission counts are
// kept. It fails with a conflict if the period, or a later one, is already
// archived, and leaves no partial state on any failure.
func (s *Service) Reset(ctx context.Context, actorID string) (*models.LeaderboardArchive, error) {
	return s.ResetAt(ctx, actorID, s.now())
}

// ResetAt is Reset as if executed at t
func (s *Service) ResetAt(ctx context.Context, actorID string, at time.Time) (archive *models.LeaderboardArchive, err error) {
	ctx, span := telemetry.StartSpan(ctx, "archive.reset")
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordFailure(ctx, telemetry.EventReset, errs.KindOf(err).String())
			return
		}
		telemetry.RecordEvent(ctx, telemetry.EventReset)
	}()

	id := PeriodID(at)

	err = s.repo.Transaction(ctx, func(tx *db.Repository) error {
		actor, err := tx.Members().GetByID(ctx, actorID)
		if err != nil {
			return errs.FromStore(err, "load member")
		}
		if actor == nil || actor.Role != models.RoleAdmin {
			return errs.Permission("only admins can reset the leaderboard")
		}

		latest, err := tx.Archives().Latest(ctx)
		if err != nil {
			return errs.FromStore(err, "load latest archive")
		}
		if latest != nil && latest.ID >= id {
			if latest.ID == id {
				return errs.Conflict("archive %s already exists", id)
			}
			return errs.Conflict("archive %s is newer than %s", latest.ID, id)
		}

		members, err := tx.Members().Scored(ctx, s.eligibleRoles)
		if err != nil {
			return errs.FromStore(err, "load standings")
		}

		entries := make([]models.ArchivedMember, 0, len(members))
		ids := make([]string, 0, len(members))
		for _, m := range members {
			entries = append(entries, models.ArchivedMember{
				MemberID:         m.ID,
				Name:             m.Name,
				Batch:            m.Batch,
				Role:             m.Role,
				LeaderboardScore: m.LeaderboardScore,
			})
			ids = append(ids, m.ID)
		}

		archive = &models.LeaderboardArchive{ID: id, Entries: entries}
		if err := tx.Archives().Create(ctx, archive); err != nil {
			return errs.FromStore(err, "create archive "+id)
		}
		if _, err := tx.Members().ResetScores(ctx, ids); err != nil {
			return errs.FromStore(err, "reset scores")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Leaderboard reset",
		zap.String("archive_id", id),
		zap.Int("members", len(archive.Entries)),
		zap.String("actor_id", actorID))
	if s.changes != nil {
		s.changes.Notify(ctx)
	}
	return archive, nil
}

// BestShow is a member's highest scoring show of a period
type BestShow struct {
	Show  *models.Show `json:"post"`
	Score int64        `json:"score"`
}

// BestShowInMonth returns the member's approved show from the YYYY-MM month
// with the highest weighted score, or nil if they posted none. Ties go to
// the earliest show.
func (s *Service) BestShowInMonth(ctx context.Context, memberID, yearMonth string) (*BestShow, error) {
	start, err := time.ParseInLocation(PeriodLayout, yearMonth, time.UTC)
	if err != nil {
		return nil, errs.Validation("month must be formatted YYYY-MM, got %q", yearMonth)
	}

	shows, err := s.repo.Shows().ApprovedByAuthorBetween(ctx, memberID, start, start.AddDate(0, 1, 0))
	if err != nil {
		return nil, errs.FromStore(err, "load shows")
	}
	if len(shows) == 0 {
		return nil, nil
	}

	ids := make([]string, len(shows))
	for i, sh := range shows {
		ids[i] = sh.ID
	}
	likes, err := s.repo.Likes().CountByShows(ctx, ids)
	if err != nil {
		return nil, errs.FromStore(err, "count likes")
	}
	suggestions, err := s.repo.Suggestions().CountByShows(ctx, ids)
	if err != nil {
		return nil, errs.FromStore(err, "count suggestions")
	}

	var best *BestShow
	for _, sh := range shows {
		sh.LikeCount = likes[sh.ID]
		sh.SuggestionCount = suggestions[sh.ID]
		score := s.weights.Score(sh.LikeCount, sh.SuggestionCount)
		if best == nil || score > best.Score {
			best = &BestShow{Show: sh, Score: score}
		}
	}
	return best, nil
}
