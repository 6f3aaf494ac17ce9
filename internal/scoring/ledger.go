package scoring

import (
	"context"

	"go.uber.org/zap"

	"github.com/dccc/clubhouse/internal/db"
	"github.com/dccc/clubhouse/internal/errs"
	"github.com/dccc/clubhouse/internal/models"
	"github.com/dccc/clubhouse/pkg/logging"
	"github.com/dccc/clubhouse/pkg/telemetry"
)

// Ledger applies score changes to member profiles. Every method takes the
// repository to write through so callers can pass a transaction and keep
// the ledger change atomic with the content change that caused it.
type Ledger struct {
	weights Weights
	logger  *zap.Logger
}

// NewLedger creates a ledger with the given weights
func NewLedger(w Weights) *Ledger {
	return &Ledger{
		weights: w,
		logger:  logging.WithComponent("ledger"),
	}
}

// Weights returns the ledger's weights
func (l *Ledger) Weights() Weights {
	return l.weights
}

func checkUnit(delta int64) error {
	if delta != 1 && delta != -1 {
		return errs.Validation("ledger delta must be +1 or -1, got %d", delta)
	}
	return nil
}

// ApplyLikeDelta moves totalLikes by delta and the score by delta likes
func (l *Ledger) ApplyLikeDelta(ctx context.Context, repo *db.Repository, memberID string, delta int64) error {
	if err := checkUnit(delta); err != nil {
		return err
	}
	return l.Apply(ctx, repo, memberID, l.weights.LikeDelta(delta))
}

// ApplySuggestionDelta moves totalSuggestions by delta and the score by delta suggestions
func (l *Ledger) ApplySuggestionDelta(ctx context.Context, repo *db.Repository, memberID string, delta int64) error {
	if err := checkUnit(delta); err != nil {
		return err
	}
	return l.Apply(ctx, repo, memberID, l.weights.SuggestionDelta(delta))
}

// ApplySubmissionDelta moves submissionsCount by delta. The score is unaffected.
func (l *Ledger) ApplySubmissionDelta(ctx context.Context, repo *db.Repository, memberID string, delta int64) error {
	if err := checkUnit(delta); err != nil {
		return err
	}
	return l.Apply(ctx, repo, memberID, SubmissionDelta(delta))
}

// Apply increments the member's counters by d in a single statement
func (l *Ledger) Apply(ctx context.Context, repo *db.Repository, memberID string, d models.Ledger) error {
	if err := repo.Members().ApplyLedgerDelta(ctx, memberID, d); err != nil {
		return errs.FromStore(err, "update ledger for "+memberID)
	}
	return nil
}

// Recalculate rebuilds the member's ledger from their shows and overwrites
// all four counters. Self-likes and self-suggestions are not credited, and
// only engagement since the last leaderboard reset counts toward the score.
// Submissions are counted over all time.
func (l *Ledger) Recalculate(ctx context.Context, repo *db.Repository, memberID string) (models.Ledger, error) {
	ctx, span := telemetry.StartSpan(ctx, "ledger.recalculate")
	defer span.End()

	var out models.Ledger
	err := repo.Transaction(ctx, func(tx *db.Repository) error {
		member, err := tx.Members().GetByID(ctx, memberID)
		if err != nil {
			return errs.FromStore(err, "load member")
		}
		if member == nil {
			return errs.NotFound("member %s not found", memberID)
		}

		submissions, err := tx.Shows().CountByAuthor(ctx, memberID)
		if err != nil {
			return errs.FromStore(err, "count shows")
		}
		since, err := tx.Archives().PeriodStart(ctx)
		if err != nil {
			return errs.FromStore(err, "load period start")
		}
		likes, err := tx.Likes().CountCreditedForAuthor(ctx, memberID, since)
		if err != nil {
			return errs.FromStore(err, "count likes")
		}
		suggestions, err := tx.Suggestions().CountCreditedForAuthor(ctx, memberID, since)
		if err != nil {
			return errs.FromStore(err, "count suggestions")
		}

		out = models.Ledger{
			SubmissionsCount: submissions,
			TotalLikes:       likes,
			TotalSuggestions: suggestions,
			LeaderboardScore: l.weights.Score(likes, suggestions),
		}
		if out != member.Ledger() {
			logging.WithMember(l.logger, memberID).Info("Ledger drift corrected",
				zap.Any("before", member.Ledger()),
				zap.Any("after", out))
		}
		if err := tx.Members().SetLedger(ctx, memberID, out); err != nil {
			return errs.FromStore(err, "write ledger")
		}
		return nil
	})
	if err != nil {
		telemetry.RecordFailure(ctx, telemetry.EventRecompute, errs.KindOf(err).String())
		return models.Ledger{}, err
	}
	telemetry.RecordEvent(ctx, telemetry.EventRecompute)
	return out, nil
}
