package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dccc/clubhouse/internal/db/dbtest"
	"github.com/dccc/clubhouse/internal/leaderboard"
	"github.com/dccc/clubhouse/internal/members"
	"github.com/dccc/clubhouse/internal/models"
	"github.com/dccc/clubhouse/internal/scoring"
	"github.com/dccc/clubhouse/internal/shows"
)

func TestWireSharesOneHub(t *testing.T) {
	a := Wire(dbtest.New(t), nil, scoring.DefaultWeights(), models.RoleGeneralMember, leaderboard.Options{
		EligibleRoles: []models.Role{models.RoleGeneralStudent, models.RoleGeneralMember, models.RoleAssociateMember},
	})
	ctx := context.Background()

	_, err := a.Members.Register(ctx, members.RegisterRequest{ID: "m1", Name: "Mira"})
	require.NoError(t, err)
	require.NoError(t, a.Repo.Members().SetRole(ctx, "m1", models.RoleGeneralMember))
	_, err = a.Members.Register(ctx, members.RegisterRequest{ID: "m2", Name: "Noor"})
	require.NoError(t, err)

	// Warm the memo, then change a ledger through the show service
	before, err := a.Leaderboard.Current(ctx)
	require.NoError(t, err)
	require.Len(t, before, 2)

	show, err := a.Shows.Submit(ctx, "m1", shows.SubmitRequest{
		Title: "Sketches", Body: "pencil", Kind: models.ShowKindText, Category: models.CategoryCultural,
	})
	require.NoError(t, err)
	_, err = a.Shows.ToggleLike(ctx, "m2", show.ID)
	require.NoError(t, err)

	after, err := a.Leaderboard.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, "m1", after[0].MemberID)
	require.Equal(t, int64(2), after[0].LeaderboardScore)
}
