package db

import (
	"context"

	"github.com/dccc/clubhouse/internal/models"
)

// PromotionRepository stores promotion requests
type PromotionRepository struct {
	*Repository
}

// NewPromotionRepository creates a new promotion repository
func NewPromotionRepository(repo *Repository) *PromotionRepository {
	return &PromotionRepository{Repository: repo}
}

// GetByID retrieves a request by ID
func (r *PromotionRepository) GetByID(ctx context.Context, id string) (*models.PromotionRequest, error) {
	var req models.PromotionRequest
	found, err := first(r.db.WithContext(ctx).Where("id = ?", id), &req)
	if err != nil || !found {
		return nil, err
	}
	return &req, nil
}

// PendingForMember returns the member's pending request, if any
func (r *PromotionRepository) PendingForMember(ctx context.Context, memberID string) (*models.PromotionRequest, error) {
	var req models.PromotionRequest
	found, err := first(r.db.WithContext(ctx).
		Where("member_id = ? AND status = ?", memberID, models.PromotionPending), &req)
	if err != nil || !found {
		return nil, err
	}
	return &req, nil
}

// Create inserts a request
func (r *PromotionRepository) Create(ctx context.Context, req *models.PromotionRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// ListPending returns pending requests oldest first
func (r *PromotionRepository) ListPending(ctx context.Context) ([]*models.PromotionRequest, error) {
	var reqs []*models.PromotionRequest
	err := r.db.WithContext(ctx).Where("status = ?", models.PromotionPending).
		Order("created_at ASC").Order("id ASC").Find(&reqs).Error
	return reqs, err
}

// Resolve moves a pending request to status. It fails with
// gorm.ErrRecordNotFound if the request is missing or no longer pending.
func (r *PromotionRepository) Resolve(ctx context.Context, id string, status models.PromotionStatus) error {
	return affectedOne(r.db.WithContext(ctx).Model(&models.PromotionRequest{}).
		Where("id = ? AND status = ?", id, models.PromotionPending).
		Update("status", status))
}
