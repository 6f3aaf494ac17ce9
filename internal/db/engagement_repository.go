package db

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dccc/clubhouse/internal/models"
)

// LikeRepository manages the like-set of each show
type LikeRepository struct {
	*Repository
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(repo *Repository) *LikeRepository {
	return &LikeRepository{Repository: repo}
}

// Add inserts a like. It reports false if the member already liked the show.
func (r *LikeRepository) Add(ctx context.Context, showID, memberID string) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ShowLike{ShowID: showID, MemberID: memberID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Get returns a member's like on a show, or nil
func (r *LikeRepository) Get(ctx context.Context, showID, memberID string) (*models.ShowLike, error) {
	var like models.ShowLike
	found, err := first(r.db.WithContext(ctx).Where("show_id = ? AND member_id = ?", showID, memberID), &like)
	if err != nil || !found {
		return nil, err
	}
	return &like, nil
}

// Remove deletes a like. It reports false if there was nothing to remove.
func (r *LikeRepository) Remove(ctx context.Context, showID, memberID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("show_id = ? AND member_id = ?", showID, memberID).
		Delete(&models.ShowLike{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Likers returns the member ids that liked a show, in like order
func (r *LikeRepository) Likers(ctx context.Context, showID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.ShowLike{}).
		Where("show_id = ?", showID).Order("created_at ASC").Order("member_id ASC").
		Pluck("member_id", &ids).Error
	return ids, err
}

// CountCredited counts likes on a show that are not from excludeMember and
// were made after since. A zero since counts every like.
func (r *LikeRepository) CountCredited(ctx context.Context, showID, excludeMember string, since time.Time) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.ShowLike{}).
		Where("show_id = ? AND member_id <> ?", showID, excludeMember)
	err := after(q, "created_at", since).Count(&n).Error
	return n, err
}

// CountCreditedForAuthor counts likes across all of an author's shows made
// after since, excluding the author's own
func (r *LikeRepository) CountCreditedForAuthor(ctx context.Context, authorID string, since time.Time) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.ShowLike{}).
		Joins("JOIN shows ON shows.id = show_likes.show_id").
		Where("shows.author_id = ? AND show_likes.member_id <> ?", authorID, authorID)
	err := after(q, "show_likes.created_at", since).Count(&n).Error
	return n, err
}

// CountByShows returns the like count per show id
func (r *LikeRepository) CountByShows(ctx context.Context, showIDs []string) (map[string]int64, error) {
	if len(showIDs) == 0 {
		return map[string]int64{}, nil
	}
	var rows []countRow
	err := r.db.WithContext(ctx).Model(&models.ShowLike{}).
		Select("show_id AS id, COUNT(*) AS n").
		Where("show_id IN ?", showIDs).Group("show_id").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return countMap(rows), nil
}

// SuggestionRepository manages suggestions on shows
type SuggestionRepository struct {
	*Repository
}

// NewSuggestionRepository creates a new suggestion repository
func NewSuggestionRepository(repo *Repository) *SuggestionRepository {
	return &SuggestionRepository{Repository: repo}
}

// Create appends a suggestion
func (r *SuggestionRepository) Create(ctx context.Context, s *models.Suggestion) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// ListByShow returns a show's suggestions oldest first
func (r *SuggestionRepository) ListByShow(ctx context.Context, showID string) ([]models.Suggestion, error) {
	var out []models.Suggestion
	err := r.db.WithContext(ctx).Where("show_id = ?", showID).
		Order("created_at ASC").Order("id ASC").Find(&out).Error
	return out, err
}

// CountCredited counts suggestions on a show not written by excludeMember
// and made after since
func (r *SuggestionRepository) CountCredited(ctx context.Context, showID, excludeMember string, since time.Time) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.Suggestion{}).
		Where("show_id = ? AND commenter_id <> ?", showID, excludeMember)
	err := after(q, "created_at", since).Count(&n).Error
	return n, err
}

// CountCreditedForAuthor counts suggestions across all of an author's shows
// made after since, excluding the author's own
func (r *SuggestionRepository) CountCreditedForAuthor(ctx context.Context, authorID string, since time.Time) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.Suggestion{}).
		Joins("JOIN shows ON shows.id = suggestions.show_id").
		Where("shows.author_id = ? AND suggestions.commenter_id <> ?", authorID, authorID)
	err := after(q, "suggestions.created_at", since).Count(&n).Error
	return n, err
}

// CountByShows returns the suggestion count per show id
func (r *SuggestionRepository) CountByShows(ctx context.Context, showIDs []string) (map[string]int64, error) {
	if len(showIDs) == 0 {
		return map[string]int64{}, nil
	}
	var rows []countRow
	err := r.db.WithContext(ctx).Model(&models.Suggestion{}).
		Select("show_id AS id, COUNT(*) AS n").
		Where("show_id IN ?", showIDs).Group("show_id").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return countMap(rows), nil
}

func after(q *gorm.DB, column string, since time.Time) *gorm.DB {
	if since.IsZero() {
		return q
	}
	return q.Where(column+" > ?", since)
}
