package db_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dccc/clubhouse/internal/db"
	"github.com/dccc/clubhouse/internal/db/dbtest"
	"github.com/dccc/clubhouse/internal/models"
)

// lockRecorder collects the row-lock strength of every query it sees
type lockRecorder struct {
	mu    sync.Mutex
	locks []string
}

func (l *lockRecorder) record(tx *gorm.DB) {
	c, ok := tx.Statement.Clauses["FOR"]
	if !ok {
		return
	}
	if locking, ok := c.Expression.(clause.Locking); ok {
		l.mu.Lock()
		l.locks = append(l.locks, locking.Strength)
		l.mu.Unlock()
	}
}

func (l *lockRecorder) taken() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.locks...)
}

func TestGetByIDForUpdate(t *testing.T) {
	database := dbtest.New(t)
	rec := &lockRecorder{}
	require.NoError(t, database.DB.Callback().Query().Before("gorm:query").Register("test:locking", rec.record))

	repo := db.NewRepository(database.DB)
	ctx := context.Background()
	require.NoError(t, repo.Shows().Create(ctx, &models.Show{ID: "s1", Title: "A show", Kind: models.ShowKindText,
		Category: models.CategoryCultural, AuthorID: "m", AuthorName: "M", AuthorRole: models.RoleGeneralMember}))

	plain, err := repo.Shows().GetByID(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, plain)
	require.Empty(t, rec.taken())

	err = repo.Transaction(ctx, func(tx *db.Repository) error {
		show, err := tx.Shows().GetByIDForUpdate(ctx, "s1")
		require.NoError(t, err)
		require.NotNil(t, show)
		require.Equal(t, "A show", show.Title)

		missing, err := tx.Shows().GetByIDForUpdate(ctx, "nope")
		require.NoError(t, err)
		require.Nil(t, missing)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"UPDATE", "UPDATE"}, rec.taken())

	require.NoError(t, repo.Shows().Delete(ctx, "s1"))
	gone, err := repo.Shows().GetByIDForUpdate(ctx, "s1")
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestCountCreditedSince(t *testing.T) {
	repo := dbtest.Repository(t)
	ctx := context.Background()
	require.NoError(t, repo.Shows().Create(ctx, &models.Show{ID: "s1", Title: "A show", Kind: models.ShowKindText,
		Category: models.CategoryCultural, AuthorID: "m", AuthorName: "M", AuthorRole: models.RoleGeneralMember}))

	for _, member := range []string{"m", "a", "b"} {
		_, err := repo.Likes().Add(ctx, "s1", member)
		require.NoError(t, err)
	}
	a, err := repo.Likes().Get(ctx, "s1", "a")
	require.NoError(t, err)
	require.NotNil(t, a)

	start, err := repo.Archives().PeriodStart(ctx)
	require.NoError(t, err)
	require.True(t, start.IsZero())

	all, err := repo.Likes().CountCredited(ctx, "s1", "m", start)
	require.NoError(t, err)
	require.Equal(t, int64(2), all)

	require.NoError(t, repo.Archives().Create(ctx, &models.LeaderboardArchive{ID: "2024-07", Entries: []models.ArchivedMember{}}))
	start, err = repo.Archives().PeriodStart(ctx)
	require.NoError(t, err)
	require.False(t, start.Before(a.CreatedAt))

	fresh, err := repo.Likes().CountCredited(ctx, "s1", "m", start)
	require.NoError(t, err)
	require.Zero(t, fresh)

	_, err = repo.Likes().Add(ctx, "s1", "c")
	require.NoError(t, err)
	fresh, err = repo.Likes().CountCreditedForAuthor(ctx, "m", start)
	require.NoError(t, err)
	require.Equal(t, int64(1), fresh)
	total, err := repo.Likes().CountCreditedForAuthor(ctx, "m", time.Time{})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
}
