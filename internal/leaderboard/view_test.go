package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dccc/clubhouse/internal/db"
	"github.com/dccc/clubhouse/internal/db/dbtest"
	"github.com/dccc/clubhouse/internal/errs"
	"github.com/dccc/clubhouse/internal/models"
)

var generalRoles = []models.Role{models.RoleGeneralStudent, models.RoleGeneralMember, models.RoleAssociateMember}

func newView(t *testing.T) (*View, *db.Repository) {
	t.Helper()
	repo := dbtest.Repository(t)
	return NewView(repo, nil, Options{EligibleRoles: generalRoles, Limit: 50, MemoTTL: time.Minute}), repo
}

func addMember(t *testing.T, repo *db.Repository, id, name string, role models.Role, score int64) {
	t.Helper()
	ctx := context.Background()
	_, err := repo.Members().Create(ctx, &models.Member{ID: id, Name: name, Role: role})
	require.NoError(t, err)
	require.NoError(t, repo.Members().SetLedger(ctx, id, models.Ledger{LeaderboardScore: score}))
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestRank(t *testing.T) {
	tests := []struct {
		name    string
		members []*models.Member
		want    []string
	}{
		{
			name: "score then name",
			members: []*models.Member{
				{ID: "3", Name: "C", LeaderboardScore: 5},
				{ID: "2", Name: "B", LeaderboardScore: 10},
				{ID: "1", Name: "A", LeaderboardScore: 10},
			},
			want: []string{"A", "B", "C"},
		},
		{
			name: "same name falls back to id",
			members: []*models.Member{
				{ID: "z", Name: "Sam", LeaderboardScore: 1},
				{ID: "a", Name: "Sam", LeaderboardScore: 1},
			},
			want: []string{"Sam", "Sam"},
		},
		{
			name:    "empty",
			members: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rank(tt.members)
			if len(got) != len(tt.want) {
				t.Fatalf("Rank() returned %d entries, want %d", len(got), len(tt.want))
			}
			for i, e := range got {
				if e.Name != tt.want[i] {
					t.Errorf("entry %d = %s, want %s", i, e.Name, tt.want[i])
				}
				if e.Rank != i+1 {
					t.Errorf("entry %d rank = %d", i, e.Rank)
				}
			}
		})
	}

	tie := Rank([]*models.Member{{ID: "z", Name: "Sam"}, {ID: "a", Name: "Sam"}})
	if tie[0].MemberID != "a" {
		t.Errorf("expected id tie-break, got %s first", tie[0].MemberID)
	}
}

func TestViewOrderingDeterministic(t *testing.T) {
	for _, order := range [][]string{{"A", "B", "C"}, {"C", "B", "A"}, {"B", "C", "A"}} {
		t.Run(order[0]+order[1]+order[2], func(t *testing.T) {
			view, repo := newView(t)
			scores := map[string]int64{"A": 10, "B": 10, "C": 5}
			for _, n := range order {
				addMember(t, repo, "id-"+n, n, models.RoleGeneralMember, scores[n])
			}

			entries, err := view.Current(context.Background())
			require.NoError(t, err)
			require.Equal(t, []string{"A", "B", "C"}, names(entries))
		})
	}
}

func TestViewEligibility(t *testing.T) {
	view, repo := newView(t)
	addMember(t, repo, "s", "Student", models.RoleGeneralStudent, 1)
	addMember(t, repo, "x", "Exec", models.RoleExecutiveMember, 500)
	addMember(t, repo, "adm", "Admin", models.RoleAdmin, 900)
	addMember(t, repo, "a", "Assoc", models.RoleAssociateMember, 3)

	entries, err := view.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Assoc", "Student"}, names(entries))

	require.True(t, view.Eligible(models.RoleGeneralStudent))
	require.False(t, view.Eligible(models.RoleExecutiveMember))
	require.Equal(t, []models.Role{models.RoleExecutiveMember, models.RoleLifetimeMember, models.RoleAdmin}, view.FeaturedRoles())
}

func TestViewLimitAndMemo(t *testing.T) {
	repo := dbtest.Repository(t)
	view := NewView(repo, nil, Options{EligibleRoles: generalRoles, Limit: 2, MemoTTL: time.Minute})
	ctx := context.Background()

	addMember(t, repo, "1", "One", models.RoleGeneralMember, 1)
	addMember(t, repo, "2", "Two", models.RoleGeneralMember, 2)
	addMember(t, repo, "3", "Three", models.RoleGeneralMember, 3)

	entries, err := view.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Three", "Two"}, names(entries))

	// Memoized until invalidated
	require.NoError(t, repo.Members().SetLedger(ctx, "1", models.Ledger{LeaderboardScore: 9}))
	entries, err = view.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Three", "Two"}, names(entries))

	view.Invalidate()
	entries, err = view.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"One", "Three"}, names(entries))
}

func TestViewArchived(t *testing.T) {
	view, repo := newView(t)
	ctx := context.Background()

	_, err := view.Archived(ctx, "2024-07")
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))

	require.NoError(t, repo.Archives().Create(ctx, &models.LeaderboardArchive{
		ID: "2024-07",
		Entries: []models.ArchivedMember{
			{MemberID: "m", Name: "M", Role: models.RoleGeneralMember, LeaderboardScore: 7},
		},
	}))
	require.NoError(t, repo.Archives().Create(ctx, &models.LeaderboardArchive{ID: "2024-08", Entries: []models.ArchivedMember{}}))

	archive, err := view.Archived(ctx, "2024-07")
	require.NoError(t, err)
	require.Len(t, archive.Entries, 1)
	require.Equal(t, models.RoleGeneralMember, archive.Entries[0].Role)
	require.Equal(t, int64(7), archive.Entries[0].LeaderboardScore)

	ids, err := view.ListArchives(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"2024-08", "2024-07"}, ids)
}
