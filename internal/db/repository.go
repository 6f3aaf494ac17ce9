package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn inside a database transaction. The repository passed
// to fn is bound to the transaction; fn must not use the outer repository.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Members returns the member repository
func (r *Repository) Members() *MemberRepository { return NewMemberRepository(r) }

// Shows returns the show repository
func (r *Repository) Shows() *ShowRepository { return NewShowRepository(r) }

// Likes returns the like repository
func (r *Repository) Likes() *LikeRepository { return NewLikeRepository(r) }

// Suggestions returns the suggestion repository
func (r *Repository) Suggestions() *SuggestionRepository { return NewSuggestionRepository(r) }

// Archives returns the archive repository
func (r *Repository) Archives() *ArchiveRepository { return NewArchiveRepository(r) }

// Promotions returns the promotion request repository
func (r *Repository) Promotions() *PromotionRepository { return NewPromotionRepository(r) }

// Notifications returns the notification repository
func (r *Repository) Notifications() *NotificationRepository { return NewNotificationRepository(r) }

// first loads a single row into dest, returning found=false when no row matches
func first(q *gorm.DB, dest interface{}) (bool, error) {
	if err := q.First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// affectedOne turns a zero-row update into gorm.ErrRecordNotFound
func affectedOne(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type countRow struct {
	ID string
	N  int64
}

func countMap(rows []countRow) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.N
	}
	return out
}
