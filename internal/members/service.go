// Package members manages member profiles, roles and promotion requests.
package members

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
)

// ChangeNotifier is told whenever standings may have changed
type ChangeNotifier interface {
	Notify(ctx context.Context)
}

// Service manages members
type Service struct {
	repo     *db.Repository
	ledger   *scoring.Ledger
	notifier notify.Notifier
	changes  ChangeNotifier
	validate *validator.Validate
	logger   *zap.Logger
	newID    func() string
}

// NewService creates a member service. notifier and changes may be nil.
func NewService(repo *db.Repository, ledger *scoring.Ledger, notifier notify.Notifier, changes ChangeNotifier) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledger,
		notifier: notifier,
		changes:  changes,
		validate: validator.New(),
		logger:   logging.WithComponent("members"),
		newID:    uuid.NewString,
	}
}

// RegisterRequest completes sign-up for an authenticated identity
type RegisterRequest struct {
	ID    string `json:"-" validate:"required,max=128"`
	Email string `json:"-" validate:"omitempty,email,max=255"`
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone" validate:"max=32"`
	Batch string `json:"batch" validate:"max=32"`
}

// Profile is a member with their earned badges
type Profile struct {
	*models.Member
	Badges           []scoring.Badge          `json:"badges"`
	NextRole         *models.Role             `json:"nextRole,omitempty"`
	PendingPromotion *models.PromotionRequest `json:"pendingPromotion,omitempty"`
}

func (s *Service) changed(ctx context.Context) {
	if s.changes != nil {
		s.changes.Notify(ctx)
	}
}

func (s *Service) load(ctx context.Context, repo *db.Repository, id string) (*models.Member, error) {
	m, err := repo.Members().GetByID(ctx, id)
	if err != nil {
		return nil, errs.FromStore(err, "load member")
	}
	if m == nil {
		return nil, errs.NotFound("member %s not found", id)
	}
	return m, nil
}

func (s *Service) requireAdmin(ctx context.Context, repo *db.Repository, actorID string) (*models.Member, error) {
	if actorID == "" {
		return nil, errs.Permission("sign in required")
	}
	actor, err := repo.Members().GetByID(ctx, actorID)
	if err != nil {
		return nil, errs.FromStore(err, "load member")
	}
	if actor == nil || actor.Role != models.RoleAdmin {
		return nil, errs.Permission("admin role required")
	}
	return actor, nil
}

// Register creates the member's profile on first sign-in. New members start
// as General Student. Registering again returns the existing profile.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.Member, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Batch = strings.TrimSpace(req.Batch)
	if err := s.validate.Struct(req); err != nil {
		return nil, errs.Validation("invalid registration: %v", err)
	}

	member := &models.Member{
		ID:    req.ID,
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Batch: req.Batch,
		Role:  models.RoleGeneralStudent,
	}
	created, err := s.repo.Members().Create(ctx, member)
	if err != nil {
		return nil, errs.FromStore(err, "create member")
	}
	if !created {
		return s.load(ctx, s.repo, req.ID)
	}

	s.logger.Info("Member registered", zap.String("member_id", req.ID))
	s.changed(ctx)
	return s.load(ctx, s.repo, req.ID)
}

// Profile returns a member profile with badges. When members view their own
// profile the ledger is recalculated first.
func (s *Service) Profile(ctx context.Context, viewerID, memberID string) (*Profile, error) {
	member, err := s.load(ctx, s.repo, memberID)
	if err != nil {
		return nil, err
	}

	if viewerID == memberID {
		fresh, err := s.ledger.Recalculate(ctx, s.repo, memberID)
		if err != nil {
			return nil, err
		}
		if fresh != member.Ledger() {
			s.changed(ctx)
		}
		member.SubmissionsCount = fresh.SubmissionsCount
		member.TotalLikes = fresh.TotalLikes
		member.TotalSuggestions = fresh.TotalSuggestions
		member.LeaderboardScore = fresh.LeaderboardScore
	}

	profile := &Profile{Member: member, Badges: scoring.EarnedBadges(member.Ledger())}
	if next, ok := member.Role.Next(); ok {
		profile.NextRole = &next
	}
	if viewerID == memberID {
		pending, err := s.repo.Promotions().PendingForMember(ctx, memberID)
		if err != nil {
			return nil, errs.FromStore(err, "load promotion request")
		}
		profile.PendingPromotion = pending
	}
	return profile, nil
}

// Recalculate rebuilds a member's ledger. Members may recalculate only
// themselves; admins may recalculate anyone.
func (s *Service) Recalculate(ctx context.Context, actorID, memberID string) (models.Ledger, error) {
	if actorID == "" {
		return models.Ledger{}, errs.Permission("sign in required")
	}
	if actorID != memberID {
		if _, err := s.requireAdmin(ctx, s.repo, actorID); err != nil {
			return models.Ledger{}, errs.Permission("members may only recalculate their own ledger")
		}
	}
	out, err := s.ledger.Recalculate(ctx, s.repo, memberID)
	if err != nil {
		return models.Ledger{}, err
	}
	s.changed(ctx)
	return out, nil
}

// SetRole changes a member's role. Admin only; admins cannot change their own role.
func (s *Service) SetRole(ctx context.Context, actorID, memberID string, role models.Role) (*models.Member, error) {
	if !role.Valid() {
		return nil, errs.Validation("unknown role %d", role)
	}
	if _, err := s.requireAdmin(ctx, s.repo, actorID); err != nil {
		return nil, err
	}
	if actorID == memberID {
		return nil, errs.Permission("admins cannot change their own role")
	}
	if err := s.repo.Members().SetRole(ctx, memberID, role); err != nil {
		return nil, errs.FromStore(err, "set role")
	}
	s.logger.Info("Role changed", zap.String("member_id", memberID), zap.String("role", role.String()), zap.String("actor_id", actorID))
	s.changed(ctx)
	return s.load(ctx, s.repo, memberID)
}

// RequestPromotion files a request for the member's next role. A member can
// hold only one pending request.
func (s *Service) RequestPromotion(ctx context.Context, actorID string) (*models.PromotionRequest, error) {
	var req *models.PromotionRequest
	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		member, err := s.load(ctx, tx, actorID)
		if err != nil {
			if errs.KindOf(err) == errs.KindNotFound {
				return errs.Permission("member %s is not registered", actorID)
			}
			return err
		}
		next, ok := member.Role.Next()
		if !ok {
			return errs.Validation("no promotion is available from %s", member.Role)
		}

		pending, err := tx.Promotions().PendingForMember(ctx, actorID)
		if err != nil {
			return errs.FromStore(err, "load promotion request")
		}
		if pending != nil {
			return errs.Conflict("a promotion request is already pending")
		}

		req = &models.PromotionRequest{
			ID:            s.newID(),
			MemberID:      member.ID,
			MemberName:    member.Name,
			MemberBatch:   member.Batch,
			CurrentRole:   member.Role,
			RequestedRole: next,
			Status:        models.PromotionPending,
		}
		if err := tx.Promotions().Create(ctx, req); err != nil {
			if errs.KindOf(errs.FromStore(err, "")) == errs.KindConflict {
				return errs.Conflict("a promotion request is already pending")
			}
			return errs.FromStore(err, "create promotion request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ListPromotions returns pending requests. Admin only.
func (s *Service) ListPromotions(ctx context.Context, actorID string) ([]*models.PromotionRequest, error) {
	if _, err := s.requireAdmin(ctx, s.repo, actorID); err != nil {
		return nil, err
	}
	reqs, err := s.repo.Promotions().ListPending(ctx)
	if err != nil {
		return nil, errs.FromStore(err, "list promotion requests")
	}
	if reqs == nil {
		reqs = []*models.PromotionRequest{}
	}
	return reqs, nil
}

// ApprovePromotion grants the requested role and resolves the request in
// one transaction, then notifies the member
func (s *Service) ApprovePromotion(ctx context.Context, actorID, requestID string) (*models.PromotionRequest, error) {
	req, err := s.resolve(ctx, actorID, requestID, models.PromotionApproved)
	if err != nil {
		return nil, err
	}
	notify.Send(ctx, s.notifier, req.MemberID,
		"Promotion Approved!",
		fmt.Sprintf("Congratulations! You have been promoted to %s.", req.RequestedRole),
		notify.MemberLink(req.MemberID))
	s.changed(ctx)
	return req, nil
}

// RejectPromotion resolves the request without a role change
func (s *Service) RejectPromotion(ctx context.Context, actorID, requestID string) (*models.PromotionRequest, error) {
	req, err := s.resolve(ctx, actorID, requestID, models.PromotionRejected)
	if err != nil {
		return nil, err
	}
	notify.Send(ctx, s.notifier, req.MemberID,
		"Promotion Request Update",
		"Your recent promotion request was not approved at this time. Keep up the great work!",
		"")
	return req, nil
}

func (s *Service) resolve(ctx context.Context, actorID, requestID string, status models.PromotionStatus) (*models.PromotionRequest, error) {
	var req *models.PromotionRequest
	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		if _, err := s.requireAdmin(ctx, tx, actorID); err != nil {
			return err
		}
		var err error
		req, err = tx.Promotions().GetByID(ctx, requestID)
		if err != nil {
			return errs.FromStore(err, "load promotion request")
		}
		if req == nil {
			return errs.NotFound("promotion request %s not found", requestID)
		}
		if req.Status != models.PromotionPending {
			return errs.Conflict("promotion request %s is already %s", requestID, req.Status)
		}
		// The request only holds for the role it was made from.
		if status == models.PromotionApproved {
			member, err := s.load(ctx, tx, req.MemberID)
			if err != nil {
				return err
			}
			if member.Role != req.CurrentRole {
				return errs.Conflict("member %s is now %s but the request was made as %s",
					req.MemberID, member.Role, req.CurrentRole)
			}
		}
		if err := tx.Promotions().Resolve(ctx, requestID, status); err != nil {
			if errs.KindOf(errs.FromStore(err, "")) == errs.KindNotFound {
				return errs.Conflict("promotion request %s was resolved concurrently", requestID)
			}
			return errs.FromStore(err, "resolve promotion request")
		}
		if status == models.PromotionApproved {
			if err := tx.Members().SetRole(ctx, req.MemberID, req.RequestedRole); err != nil {
				return errs.FromStore(err, "set role")
			}
		}
		req.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Promotion request resolved",
		zap.String("request_id", requestID),
		zap.String("status", string(status)),
		zap.String("actor_id", actorID))
	return req, nil
}
