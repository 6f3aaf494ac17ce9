package archive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dccc/clubhouse/internal/db"
	"github.com/dccc/clubhouse/internal/db/dbtest"
	"github.com/dccc/clubhouse/internal/errs"
	"github.com/dccc/clubhouse/internal/models"
	"github.com/dccc/clubhouse/internal/scoring"
)

var generalRoles = []models.Role{models.RoleGeneralStudent, models.RoleGeneralMember, models.RoleAssociateMember}

func TestPeriodID(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"mid august", time.Date(2024, 8, 15, 10, 0, 0, 0, time.UTC), "2024-07"},
		{"january wraps year", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "2024-12"},
		{"end of march", time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC), "2024-02"},
		{"converted to utc", time.Date(2024, 9, 1, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600)), "2024-07"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeriodID(tt.at); got != tt.want {
				t.Errorf("PeriodID() = %s, want %s", got, tt.want)
			}
		})
	}
}

type resetFixture struct {
	repo *db.Repository
	svc  *Service
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	repo := dbtest.Repository(t)
	ctx := context.Background()

	add := func(id string, role models.Role, l models.Ledger) {
		_, err := repo.Members().Create(ctx, &models.Member{ID: id, Name: id, Batch: "2022", Role: role})
		require.NoError(t, err)
		require.NoError(t, repo.Members().SetLedger(ctx, id, l))
	}
	add("admin", models.RoleAdmin, models.Ledger{LeaderboardScore: 40})
	add("alice", models.RoleGeneralMember, models.Ledger{SubmissionsCount: 3, TotalLikes: 4, TotalSuggestions: 2, LeaderboardScore: 10})
	add("bob", models.RoleAssociateMember, models.Ledger{SubmissionsCount: 1, TotalLikes: 1, LeaderboardScore: 2})
	add("carol", models.RoleGeneralStudent, models.Ledger{SubmissionsCount: 2})
	add("exec", models.RoleExecutiveMember, models.Ledger{TotalLikes: 50, LeaderboardScore: 100})

	return &resetFixture{repo: repo, svc: NewService(repo, scoring.DefaultWeights(), generalRoles, nil)}
}

func (f *resetFixture) ledger(t *testing.T, id string) models.Ledger {
	t.Helper()
	m, err := f.repo.Members().GetByID(context.Background(), id)
	require.NoError(t, err)
	return m.Ledger()
}

func TestResetArchivesAndZeroes(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	at := time.Date(2024, 8, 3, 9, 0, 0, 0, time.UTC)

	archive, err := f.svc.ResetAt(ctx, "admin", at)
	require.NoError(t, err)
	require.Equal(t, "2024-07", archive.ID)
	require.Len(t, archive.Entries, 2)
	require.Equal(t, "alice", archive.Entries[0].MemberID)
	require.Equal(t, int64(10), archive.Entries[0].LeaderboardScore)
	require.Equal(t, "bob", archive.Entries[1].MemberID)

	require.Equal(t, models.Ledger{SubmissionsCount: 3}, f.ledger(t, "alice"))
	require.Equal(t, models.Ledger{SubmissionsCount: 1}, f.ledger(t, "bob"))
	require.Equal(t, models.Ledger{SubmissionsCount: 2}, f.ledger(t, "carol"))
	// Ineligible members keep their standing
	require.Equal(t, int64(100), f.ledger(t, "exec").LeaderboardScore)

	stored, err := f.repo.Archives().GetByID(ctx, "2024-07")
	require.NoError(t, err)
	require.Equal(t, archive.Entries, stored.Entries)
}

func TestResetIsImmutable(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	at := time.Date(2024, 8, 3, 9, 0, 0, 0, time.UTC)

	first, err := f.svc.ResetAt(ctx, "admin", at)
	require.NoError(t, err)

	// New activity after the first reset
	require.NoError(t, f.repo.Members().SetLedger(ctx, "alice", models.Ledger{SubmissionsCount: 3, TotalLikes: 1, LeaderboardScore: 2}))

	_, err = f.svc.ResetAt(ctx, "admin", at.Add(48*time.Hour))
	require.Equal(t, errs.KindConflict, errs.KindOf(err))

	// An earlier period is rejected as well
	_, err = f.svc.ResetAt(ctx, "admin", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	require.Equal(t, errs.KindConflict, errs.KindOf(err))

	stored, err := f.repo.Archives().GetByID(ctx, "2024-07")
	require.NoError(t, err)
	require.Equal(t, first.Entries, stored.Entries)
	require.Equal(t, int64(2), f.ledger(t, "alice").LeaderboardScore)

	next, err := f.svc.ResetAt(ctx, "admin", time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, "2024-08", next.ID)
	require.Len(t, next.Entries, 1)
}

func TestResetRequiresAdmin(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	_, err := f.svc.ResetAt(ctx, "alice", time.Date(2024, 8, 3, 0, 0, 0, 0, time.UTC))
	require.Equal(t, errs.KindPermission, errs.KindOf(err))
	require.Equal(t, int64(10), f.ledger(t, "alice").LeaderboardScore)

	latest, err := f.repo.Archives().Latest(ctx)
	require.NoError(t, err)
	require.Nil(t, latest)
}

func TestResetWithEmptyStandings(t *testing.T) {
	repo := dbtest.Repository(t)
	ctx := context.Background()
	_, err := repo.Members().Create(ctx, &models.Member{ID: "admin", Name: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)

	svc := NewService(repo, scoring.DefaultWeights(), generalRoles, nil)
	svc.now = func() time.Time { return time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC) }

	archive, err := svc.Reset(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, "2025-01", archive.ID)
	require.Empty(t, archive.Entries)
}

func TestBestShowInMonth(t *testing.T) {
	repo := dbtest.Repository(t)
	ctx := context.Background()
	svc := NewService(repo, scoring.DefaultWeights(), generalRoles, nil)

	create := func(id string, at time.Time, approved bool, likers []string, suggestions int) {
		require.NoError(t, repo.Shows().Create(ctx, &models.Show{
			ID: id, Title: id, Body: "b", Kind: models.ShowKindText, Category: models.CategoryCultural,
			AuthorID: "m", AuthorName: "m", AuthorRole: models.RoleGeneralMember, Approved: approved, CreatedAt: at,
		}))
		for _, l := range likers {
			_, err := repo.Likes().Add(ctx, id, l)
			require.NoError(t, err)
		}
		for i := 0; i < suggestions; i++ {
			require.NoError(t, repo.Suggestions().Create(ctx, &models.Suggestion{ShowID: id, CommenterID: "x", CommenterName: "x", Body: "s"}))
		}
	}

	july := func(day int) time.Time { return time.Date(2024, 7, day, 12, 0, 0, 0, time.UTC) }
	create("early", july(2), true, []string{"a"}, 1)        // 3
	create("tied", july(5), true, nil, 3)                   // 3
	create("hidden", july(6), false, []string{"a", "b"}, 5) // pending
	create("august", time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), true, []string{"a", "b", "c"}, 0)

	best, err := svc.BestShowInMonth(ctx, "m", "2024-07")
	require.NoError(t, err)
	require.Equal(t, "early", best.Show.ID)
	require.Equal(t, int64(3), best.Score)

	best, err = svc.BestShowInMonth(ctx, "m", "2024-08")
	require.NoError(t, err)
	require.Equal(t, "august", best.Show.ID)
	require.Equal(t, int64(6), best.Score)

	none, err := svc.BestShowInMonth(ctx, "m", "2024-01")
	require.NoError(t, err)
	require.Nil(t, none)

	_, err = svc.BestShowInMonth(ctx, "m", "July 2024")
	require.Equal(t, errs.KindValidation, errs.KindOf(err))
}
