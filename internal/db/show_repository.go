package db

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/dccc/clubhouse/internal/models"
)

// ShowRepository provides show operations
type ShowRepository struct {
	*Repository
}

// NewShowRepository creates a new show repository
func NewShowRepository(repo *Repository) *ShowRepository {
	return &ShowRepository{Repository: repo}
}

// FeedQuery filters a page of approved shows
type FeedQuery struct {
	AuthorRoles []models.Role
	Category    models.Category
	Kind        models.ShowKind
	Batch       string
	// After is the last show of the previous page
	After *models.Show
	Limit int
}

// GetByID retrieves a show by ID
func (r *ShowRepository) GetByID(ctx context.Context, id string) (*models.Show, error) {
	var show models.Show
	found, err := first(r.db.WithContext(ctx).Where("id = ?", id), &show)
	if err != nil || !found {
		return nil, err
	}
	return &show, nil
}

// GetByIDForUpdate retrieves a show and locks its row until the surrounding
// transaction ends, so engagement cannot land on a show being deleted.
// SQLite has no row locks and serializes writers instead.
func (r *ShowRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Show, error) {
	var show models.Show
	q := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
	found, err := first(q, &show)
	if err != nil || !found {
		return nil, err
	}
	return &show, nil
}

// Create inserts a show
func (r *ShowRepository) Create(ctx context.Context, show *models.Show) error {
	return r.db.WithContext(ctx).Create(show).Error
}

// SetApproved sets the moderation flag
func (r *ShowRepository) SetApproved(ctx context.Context, id string, approved bool) error {
	return affectedOne(r.db.WithContext(ctx).Model(&models.Show{}).Where("id = ?", id).
		Update("approved", approved))
}

// Delete removes a show together with its likes and suggestions
func (r *ShowRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("show_id = ?", id).Delete(&models.ShowLike{}).Error; err != nil {
		return err
	}
	if err := db.Where("show_id = ?", id).Delete(&models.Suggestion{}).Error; err != nil {
		return err
	}
	return affectedOne(db.Where("id = ?", id).Delete(&models.Show{}))
}

// Feed returns approved shows newest first
func (r *ShowRepository) Feed(ctx context.Context, fq FeedQuery) ([]*models.Show, error) {
	q := r.db.WithContext(ctx).Where("approved = ?", true)
	if len(fq.AuthorRoles) > 0 {
		q = q.Where("author_role IN ?", fq.AuthorRoles)
	}
	if fq.Category != "" {
		q = q.Where("category = ?", fq.Category)
	}
	if fq.Kind != "" {
		q = q.Where("kind = ?", fq.Kind)
	}
	if fq.Batch != "" {
		q = q.Where("author_batch = ?", fq.Batch)
	}
	if fq.After != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)",
			fq.After.CreatedAt, fq.After.CreatedAt, fq.After.ID)
	}
	if fq.Limit > 0 {
		q = q.Limit(fq.Limit)
	}

	var shows []*models.Show
	if err := q.Order("created_at DESC").Order("id DESC").Find(&shows).Error; err != nil {
		return nil, err
	}
	return shows, nil
}

// ByAuthor returns a member's shows newest first
func (r *ShowRepository) ByAuthor(ctx context.Context, authorID string, approvedOnly bool) ([]*models.Show, error) {
	q := r.db.WithContext(ctx).Where("author_id = ?", authorID)
	if approvedOnly {
		q = q.Where("approved = ?", true)
	}
	var shows []*models.Show
	if err := q.Order("created_at DESC").Order("id DESC").Find(&shows).Error; err != nil {
		return nil, err
	}
	return shows, nil
}

// ApprovedByAuthorBetween returns a member's approved shows created in [from, to)
func (r *ShowRepository) ApprovedByAuthorBetween(ctx context.Context, authorID string, from, to time.Time) ([]*models.Show, error) {
	var shows []*models.Show
	if err := r.db.WithContext(ctx).
		Where("author_id = ? AND approved = ?", authorID, true).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").Order("id ASC").
		Find(&shows).Error; err != nil {
		return nil, err
	}
	return shows, nil
}

// Pending returns shows awaiting moderation, oldest first
func (r *ShowRepository) Pending(ctx context.Context, limit int) ([]*models.Show, error) {
	var shows []*models.Show
	q := r.db.WithContext(ctx).Where("approved = ?", false).Order("created_at ASC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&shows).Error; err != nil {
		return nil, err
	}
	return shows, nil
}

// CountByAuthor counts every show a member authored
func (r *ShowRepository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Show{}).Where("author_id = ?", authorID).Count(&n).Error
	return n, err
}
