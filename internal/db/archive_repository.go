package db

import (
	"context"
	"time"

	"github.com/dccc/clubhouse/internal/models"
)

// ArchiveRepository stores leaderboard archives
type ArchiveRepository struct {
	*Repository
}

// NewArchiveRepository creates a new archive repository
func NewArchiveRepository(repo *Repository) *ArchiveRepository {
	return &ArchiveRepository{Repository: repo}
}

// GetByID retrieves an archive by its YYYY-MM id
func (r *ArchiveRepository) GetByID(ctx context.Context, id string) (*models.LeaderboardArchive, error) {
	var archive models.LeaderboardArchive
	found, err := first(r.db.WithContext(ctx).Where("id = ?", id), &archive)
	if err != nil || !found {
		return nil, err
	}
	return &archive, nil
}

// Latest returns the archive with the greatest id
func (r *ArchiveRepository) Latest(ctx context.Context) (*models.LeaderboardArchive, error) {
	var archive models.LeaderboardArchive
	found, err := first(r.db.WithContext(ctx).Order("id DESC"), &archive)
	if err != nil || !found {
		return nil, err
	}
	return &archive, nil
}

// PeriodStart returns when the current leaderboard period began: the creation
// time of the newest archive, or the zero time if there has been no reset.
func (r *ArchiveRepository) PeriodStart(ctx context.Context) (time.Time, error) {
	latest, err := r.Latest(ctx)
	if err != nil || latest == nil {
		return time.Time{}, err
	}
	return latest.CreatedAt, nil
}

// Create inserts an archive. A duplicate id fails with gorm.ErrDuplicatedKey.
func (r *ArchiveRepository) Create(ctx context.Context, archive *models.LeaderboardArchive) error {
	return r.db.WithContext(ctx).Create(archive).Error
}

// ListIDs returns archive ids newest first
func (r *ArchiveRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.LeaderboardArchive{}).Order("id DESC").Pluck("id", &ids).Error
	return ids, err
}
