// Package shows applies member events to shows: submission, likes,
// suggestions, moderation and deletion. Each event commits the content change
// and the author's ledger change in one transaction.
package shows

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dccc/clubhouse/internal/db"
	"github.com/dccc/clubhouse/internal/errs"
	"github.com/dccc/clubhouse/internal/models"
	"github.com/dccc/clubhouse/internal/notify"
	"github.com/dccc/clubhouse/internal/scoring"
	"github.com/dccc/clubhouse/pkg/logging"
	"github.com/dccc/clubhouse/pkg/telemetry"
)

const (
	// FeedPageSize is the number of shows per feed page
	FeedPageSize = 9
	// FeaturedLimit is the number of featured shows returned
	FeaturedLimit = 5

	maxSuggestionLength = 2000
)

// ChangeNotifier is told whenever a ledger changes
type ChangeNotifier interface {
	Notify(ctx context.Context)
}

// Options configures a Service
type Options struct {
	MinPostingRole models.Role
	EligibleRoles  []models.Role
	FeaturedRoles  []models.Role
}

// Service applies show events
type Service struct {
	repo     *db.Repository
	ledger   *scoring.Ledger
	notifier notify.Notifier
	changes  ChangeNotifier
	validate *validator.Validate
	opts     Options
	logger   *zap.Logger
	newID    func() string
}

// NewService creates a show service. notifier and changes may be nil.
func NewService(repo *db.Repository, ledger *scoring.Ledger, notifier notify.Notifier, changes ChangeNotifier, opts Options) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledger,
		notifier: notifier,
		changes:  changes,
		validate: newValidator(),
		opts:     opts,
		logger:   logging.WithComponent("shows"),
		newID:    uuid.NewString,
	}
}

// SubmitRequest is a new show
type SubmitRequest struct {
	Title    string          `json:"title" validate:"required,max=200,no_script"`
	Body     string          `json:"description" validate:"required_if=Kind Text,max=10000"`
	MediaURL string          `json:"mediaURL" validate:"required_unless=Kind Text,omitempty,url,max=1024"`
	Kind     models.ShowKind `json:"type" validate:"required,oneof=Text Image Video"`
	Category models.Category `json:"province" validate:"required,oneof=Cultural Technical"`
}

// LikeResult is the like state after a toggle
type LikeResult struct {
	ShowID    string `json:"showId"`
	Liked     bool   `json:"liked"`
	LikeCount int64  `json:"likeCount"`
}

func (s *Service) changed(ctx context.Context) {
	if s.changes != nil {
		s.changes.Notify(ctx)
	}
}

func (s *Service) record(ctx context.Context, event string, err error) {
	if err != nil {
		telemetry.RecordFailure(ctx, event, errs.KindOf(err).String())
		return
	}
	telemetry.RecordEvent(ctx, event)
}

// loadActor returns the acting member, failing with a permission error if
// they have no profile
func loadActor(ctx context.Context, tx *db.Repository, actorID string) (*models.Member, error) {
	if actorID == "" {
		return nil, errs.Permission("sign in required")
	}
	m, err := tx.Members().GetByID(ctx, actorID)
	if err != nil {
		return nil, errs.FromStore(err, "load member")
	}
	if m == nil {
		return nil, errs.Permission("member %s is not registered", actorID)
	}
	return m, nil
}

// loadShow loads and row-locks a show for the rest of the transaction
func loadShow(ctx context.Context, tx *db.Repository, showID string) (*models.Show, error) {
	show, err := tx.Shows().GetByIDForUpdate(ctx, showID)
	if err != nil {
		return nil, errs.FromStore(err, "load show")
	}
	if show == nil {
		return nil, errs.NotFound("show %s not found", showID)
	}
	return show, nil
}

// Submit creates a pending show and counts it toward the author's submissions
func (s *Service) Submit(ctx context.Context, actorID string, req SubmitRequest) (show *models.Show, err error) {
	ctx, span := telemetry.StartSpan(ctx, "shows.submit")
	defer span.End()
	defer func() { s.record(ctx, telemetry.EventSubmit, err) }()

	req.Title = strings.TrimSpace(req.Title)
	req.Body = strings.TrimSpace(req.Body)
	req.MediaURL = strings.TrimSpace(req.MediaURL)
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	err = s.repo.Transaction(ctx, func(tx *db.Repository) error {
		actor, err := loadActor(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if !actor.Role.AtLeast(s.opts.MinPostingRole) {
			return errs.Permission("posting requires the %s role", s.opts.MinPostingRole)
		}

		show = &models.Show{
			ID:          s.newID(),
			Title:       req.Title,
			Body:        req.Body,
			MediaURL:    req.MediaURL,
			Kind:        req.Kind,
			Category:    req.Category,
			AuthorID:    actor.ID,
			AuthorName:  actor.Name,
			AuthorBatch: actor.Batch,
			AuthorRole:  actor.Role,
		}
		if err := tx.Shows().Create(ctx, show); err != nil {
			return errs.FromStore(err, "create show")
		}
		return s.ledger.ApplySubmissionDelta(ctx, tx, actor.ID, 1)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Show submitted", zap.String("show_id", show.ID), zap.String("author_id", actorID))
	s.changed(ctx)
	return show, nil
}

// ToggleLike adds the actor's like, or removes it if present. The author is
// credited unless the actor is the author.
func (s *Service) ToggleLike(ctx context.Context, actorID, showID string) (result *LikeResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "shows.toggle_like")
	defer span.End()

	var credited bool
	err = s.repo.Transaction(ctx, func(tx *db.Repository) error {
		if _, err := loadActor(ctx, tx, actorID); err != nil {
			return err
		}
		show, err := loadShow(ctx, tx, showID)
		if err != nil {
			return err
		}

		existing, err := tx.Likes().Get(ctx, showID, actorID)
		if err != nil {
			return errs.FromStore(err, "load like")
		}

		var delta int64
		liked := false
		if existing != nil {
			removed, err := tx.Likes().Remove(ctx, showID, actorID)
			if err != nil {
				return errs.FromStore(err, "remove like")
			}
			// A like from before the last reset was already zeroed out of the ledger.
			since, err := tx.Archives().PeriodStart(ctx)
			if err != nil {
				return errs.FromStore(err, "load period start")
			}
			if removed && existing.CreatedAt.After(since) {
				delta = -1
			}
		} else {
			added, err := tx.Likes().Add(ctx, showID, actorID)
			if err != nil {
				return errs.FromStore(err, "add like")
			}
			liked = true
			if added {
				delta = 1
			}
		}

		if delta != 0 && show.AuthorID != actorID {
			if err := s.ledger.ApplyLikeDelta(ctx, tx, show.AuthorID, delta); err != nil {
				return err
			}
			credited = true
		}

		counts, err := tx.Likes().CountByShows(ctx, []string{showID})
		if err != nil {
			return errs.FromStore(err, "count likes")
		}
		result = &LikeResult{ShowID: showID, Liked: liked, LikeCount: counts[showID]}
		return nil
	})

	event := telemetry.EventLike
	if result != nil && !result.Liked {
		event = telemetry.EventUnlike
	}
	s.record(ctx, event, err)
	if err != nil {
		return nil, err
	}
	if credited {
		s.changed(ctx)
	}
	return result, nil
}

// AddSuggestion appends a suggestion to a show and credits the author unless
// the actor is the author. The author is notified after commit.
func (s *Service) AddSuggestion(ctx context.Context, actorID, showID, text string) (suggestion *models.Suggestion, err error) {
	ctx, span := telemetry.StartSpan(ctx, "shows.add_suggestion")
	defer span.End()
	defer func() { s.record(ctx, telemetry.EventSuggestion, err) }()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.Validation("suggestion text is required")
	}
	if len(text) > maxSuggestionLength {
		return nil, errs.Validation("suggestion text must be at most %d characters", maxSuggestionLength)
	}

	var show *models.Show
	err = s.repo.Transaction(ctx, func(tx *db.Repository) error {
		actor, err := loadActor(ctx, tx, actorID)
		if err != nil {
			return err
		}
		show, err = loadShow(ctx, tx, showID)
		if err != nil {
			return err
		}

		suggestion = &models.Suggestion{
			ShowID:         showID,
			CommenterID:    actor.ID,
			CommenterName:  actor.Name,
			CommenterBatch: actor.Batch,
			Body:           text,
		}
		if err := tx.Suggestions().Create(ctx, suggestion); err != nil {
			return errs.FromStore(err, "create suggestion")
		}

		if show.AuthorID == actor.ID {
			return nil
		}
		return s.ledger.ApplySuggestionDelta(ctx, tx, show.AuthorID, 1)
	})
	if err != nil {
		return nil, err
	}

	if show.AuthorID != actorID {
		notify.Send(ctx, s.notifier, show.AuthorID,
			"New suggestion on your show!",
			fmt.Sprintf("%s left a suggestion on %q.", suggestion.CommenterName, show.Title),
			notify.ShowLink(show.ID))
		s.changed(ctx)
	}
	return suggestion, nil
}

// SetApproval approves or rejects a show. Rejecting returns it to pending.
// The author is notified when a show becomes approved.
func (s *Service) SetApproval(ctx context.Context, actorID, showID string, approved bool) (show *models.Show, err error) {
	ctx, span := telemetry.StartSpan(ctx, "shows.set_approval")
	defer span.End()
	defer func() { s.record(ctx, telemetry.EventApprove, err) }()

	var transitioned bool
	err = s.repo.Transaction(ctx, func(tx *db.Repository) error {
		actor, err := loadActor(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if actor.Role != models.RoleAdmin {
			return errs.Permission("only admins can moderate shows")
		}
		show, err = loadShow(ctx, tx, showID)
		if err != nil {
			return err
		}
		if show.Approved == approved {
			return nil
		}
		if err := tx.Shows().SetApproved(ctx, showID, approved); err != nil {
			return errs.FromStore(err, "update show")
		}
		show.Approved = approved
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transitioned && approved {
		notify.Send(ctx, s.notifier, show.AuthorID,
			"Your show is live!",
			fmt.Sprintf("%q was approved and now appears in the feed.", show.Title),
			notify.ShowLink(show.ID))
	}
	return show, nil
}

// Delete removes a show and reverses everything it contributed to the
// author's ledger. Only the author or an admin may delete.
func (s *Service) Delete(ctx context.Context, actorID, showID string) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "shows.delete")
	defer span.End()
	defer func() { s.record(ctx, telemetry.EventDelete, err) }()

	err = s.repo.Transaction(ctx, func(tx *db.Repository) error {
		actor, err := loadActor(ctx, tx, actorID)
		if err != nil {
			return err
		}
		show, err := loadShow(ctx, tx, showID)
		if err != nil {
			return err
		}
		if show.AuthorID != actor.ID && actor.Role != models.RoleAdmin {
			return errs.Permission("only the author or an admin can delete this show")
		}

		// Engagement from before the last reset is no longer in the ledger.
		since, err := tx.Archives().PeriodStart(ctx)
		if err != nil {
			return errs.FromStore(err, "load period start")
		}
		likes, err := tx.Likes().CountCredited(ctx, showID, show.AuthorID, since)
		if err != nil {
			return errs.FromStore(err, "count likes")
		}
		suggestions, err := tx.Suggestions().CountCredited(ctx, showID, show.AuthorID, since)
		if err != nil {
			return errs.FromStore(err, "count suggestions")
		}

		if err := tx.Shows().Delete(ctx, showID); err != nil {
			return errs.FromStore(err, "delete show")
		}
		if err := s.ledger.Apply(ctx, tx, show.AuthorID, s.ledger.Weights().Reversal(likes, suggestions)); err != nil {
			// The author may have no profile left; nothing to reverse then.
			if errs.KindOf(err) != errs.KindNotFound {
				return err
			}
			s.logger.Warn("Deleted show has no author profile", zap.String("show_id", showID), zap.String("author_id", show.AuthorID))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Show deleted", zap.String("show_id", showID), zap.String("actor_id", actorID))
	s.changed(ctx)
	return nil
}
