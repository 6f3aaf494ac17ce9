package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dccc/clubhouse/internal/models"
)

func receive(t *testing.T, ch <-chan *Snapshot) *Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestHubDeliversFreshSnapshots(t *testing.T) {
	view, repo := newView(t)
	addMember(t, repo, "a", "Ada", models.RoleGeneralMember, 1)

	hub := NewHub(view, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	sub, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	first := receive(t, sub)
	require.Equal(t, []string{"Ada"}, names(first.Entries))

	addMember(t, repo, "b", "Bea", models.RoleGeneralMember, 5)
	hub.Notify(context.Background())

	second := receive(t, sub)
	require.Greater(t, second.Version, first.Version)
	require.Equal(t, []string{"Bea", "Ada"}, names(second.Entries))

	// A late subscriber starts from the latest snapshot
	late, cancelLate := hub.Subscribe()
	require.Equal(t, second.Version, receive(t, late).Version)
	cancelLate()
	require.Equal(t, 1, hub.Subscribers())

	cancel()
	require.NoError(t, <-done)

	_, ok := <-sub
	require.False(t, ok, "subscription should close when the hub stops")
}

func TestHubVersionsNeverRegress(t *testing.T) {
	view, repo := newView(t)
	addMember(t, repo, "a", "Ada", models.RoleGeneralMember, 0)

	hub := NewHub(view, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	sub, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	var last uint64
	for i := 1; i <= 20; i++ {
		require.NoError(t, repo.Members().SetLedger(context.Background(), "a", models.Ledger{LeaderboardScore: int64(i)}))
		hub.Notify(context.Background())
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-sub:
			require.Greater(t, snap.Version, last)
			last = snap.Version
			if snap.Entries[0].LeaderboardScore == 20 {
				return
			}
		case <-deadline:
			t.Fatalf("never observed the final score, last version %d", last)
		}
	}
}
