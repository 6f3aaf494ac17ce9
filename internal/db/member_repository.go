package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dccc/clubhouse/internal/models"
)

// MemberRepository provides member and ledger operations
type MemberRepository struct {
	*Repository
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(repo *Repository) *MemberRepository {
	return &MemberRepository{Repository: repo}
}

// GetByID retrieves a member by ID
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*models.Member, error) {
	var member models.Member
	found, err := first(r.db.WithContext(ctx).Where("id = ?", id), &member)
	if err != nil || !found {
		return nil, err
	}
	return &member, nil
}

// Create inserts a member. It reports false if the id is already registered.
func (r *MemberRepository) Create(ctx context.Context, member *models.Member) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(member)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateProfile overwrites the contact fields of a member
func (r *MemberRepository) UpdateProfile(ctx context.Context, id, name, phone, batch string) error {
	return affectedOne(r.db.WithContext(ctx).Model(&models.Member{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "phone": phone, "batch": batch}))
}

// SetRole changes a member's role
func (r *MemberRepository) SetRole(ctx context.Context, id string, role models.Role) error {
	return affectedOne(r.db.WithContext(ctx).Model(&models.Member{}).Where("id = ?", id).
		Update("role", role))
}

// ApplyLedgerDelta increments the member's counters in place. Zero fields
// are left untouched.
func (r *MemberRepository) ApplyLedgerDelta(ctx context.Context, id string, d models.Ledger) error {
	updates := map[string]interface{}{}
	if d.SubmissionsCount != 0 {
		updates["submissions_count"] = gorm.Expr("submissions_count + ?", d.SubmissionsCount)
	}
	if d.TotalLikes != 0 {
		updates["total_likes"] = gorm.Expr("total_likes + ?", d.TotalLikes)
	}
	if d.TotalSuggestions != 0 {
		updates["total_suggestions"] = gorm.Expr("total_suggestions + ?", d.TotalSuggestions)
	}
	if d.LeaderboardScore != 0 {
		updates["leaderboard_score"] = gorm.Expr("leaderboard_score + ?", d.LeaderboardScore)
	}
	if len(updates) == 0 {
		return nil
	}
	return affectedOne(r.db.WithContext(ctx).Model(&models.Member{}).Where("id = ?", id).Updates(updates))
}

// SetLedger overwrites all four counters
func (r *MemberRepository) SetLedger(ctx context.Context, id string, l models.Ledger) error {
	return affectedOne(r.db.WithContext(ctx).Model(&models.Member{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"submissions_count": l.SubmissionsCount,
			"total_likes":       l.TotalLikes,
			"total_suggestions": l.TotalSuggestions,
			"leaderboard_score": l.LeaderboardScore,
		}))
}

// Ranked returns members holding one of roles, ordered by score desc then
// name and id ascending. A limit <= 0 means no limit.
func (r *MemberRepository) Ranked(ctx context.Context, roles []models.Role, limit int) ([]*models.Member, error) {
	var members []*models.Member
	q := r.db.WithContext(ctx).
		Where("role IN ?", roles).
		Order("leaderboard_score DESC").
		Order("name ASC").
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// Scored returns every member holding one of roles with a positive score,
// in leaderboard order
func (r *MemberRepository) Scored(ctx context.Context, roles []models.Role) ([]*models.Member, error) {
	var members []*models.Member
	if err := r.db.WithContext(ctx).
		Where("role IN ? AND leaderboard_score > ?", roles, 0).
		Order("leaderboard_score DESC").
		Order("name ASC").
		Order("id ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ResetScores zeroes likes, suggestions and score for the given members
func (r *MemberRepository) ResetScores(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&models.Member{}).Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"total_likes":       0,
			"total_suggestions": 0,
			"leaderboard_score": 0,
		})
	return res.RowsAffected, res.Error
}

// ListByRoles returns every member holding one of roles, ordered by name
func (r *MemberRepository) ListByRoles(ctx context.Context, roles []models.Role) ([]*models.Member, error) {
	var members []*models.Member
	if err := r.db.WithContext(ctx).Where("role IN ?", roles).Order("name ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
