package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/realtime"
)

type fakeAPI struct {
	meCalls    atomic.Int32
	boardCalls atomic.Int32
	board      func() *types.Leaderboard
}

func (f *fakeAPI) Me(ctx context.Context) (*Me, error) {
	f.meCalls.Add(1)
	return &Me{User: &types.User{Email: "a@example.com", LoginStreak: 1}}, nil
}

func (f *fakeAPI) Leaderboard(ctx context.Context, q LeaderboardQuery) (*types.Leaderboard, error) {
	f.boardCalls.Add(1)
	if f.board != nil {
		return f.board(), nil
	}
	return &types.Leaderboard{Entries: []types.LeaderboardEntry{
		{Rank: 1, Email: "a@example.com", XP: 300, LoginStreak: 1, ActivityStreak: 1},
		{Rank: 2, Email: "b@example.com", XP: 200, LoginStreak: 4, ActivityStreak: 0},
	}}, nil
}

func streakEvent(t *testing.T, up StreakUpdate) Event {
	t.Helper()
	raw, err := json.Marshal(up)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return Event{Name: realtime.SSEEventStreakUpdate, Data: raw}
}

func TestReadThroughServesFreshAndExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	calls := 0
	c := NewReadThrough(func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}, 10*time.Second)
	c.now = func() time.Time { return now }

	if v, _ := c.Get(context.Background()); v != 1 {
		t.Fatalf("first get = %d", v)
	}
	if v, _ := c.Get(context.Background()); v != 1 {
		t.Fatalf("cached get = %d", v)
	}
	_, fetchedAt, ok := c.Peek()
	if !ok || !fetchedAt.Equal(now) {
		t.Fatalf("peek fetchedAt=%v ok=%v", fetchedAt, ok)
	}

	now = now.Add(11 * time.Second)
	if v, _ := c.Get(context.Background()); v != 2 {
		t.Fatalf("expired get = %d", v)
	}
	c.Invalidate()
	if v, _ := c.Get(context.Background()); v != 3 {
		t.Fatalf("get after invalidate = %d", v)
	}
}

func TestReadThroughKeepsNothingOnError(t *testing.T) {
	c := NewReadThrough(func(ctx context.Context) (string, error) {
		return "", errors.New("boom")
	}, time.Minute)
	if _, err := c.Get(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if _, _, ok := c.Peek(); ok {
		t.Fatalf("failed fetch must not populate the cache")
	}
}

func TestReadThroughDropsResultInvalidatedMidFetch(t *testing.T) {
	var c *ReadThrough[int]
	c = NewReadThrough(func(ctx context.Context) (int, error) {
		c.Invalidate()
		return 7, nil
	}, time.Minute)
	if v, err := c.Get(context.Background()); err != nil || v != 7 {
		t.Fatalf("get = %d err=%v", v, err)
	}
	if _, _, ok := c.Peek(); ok {
		t.Fatalf("value fetched before an invalidation must not be cached")
	}
}

func TestApplyStreakUpdateTouchesOnlyMatchingRow(t *testing.T) {
	api := &fakeAPI{}
	state := NewAppState(api, StateOptions{})
	before, err := state.Leaderboard.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if !state.Apply(streakEvent(t, StreakUpdate{Email: "B@example.com", LoginStreak: 5, Streak: 2})) {
		t.Fatalf("expected the event to apply")
	}
	after, _, _ := state.Leaderboard.Peek()
	if after.Entries[1].LoginStreak != 5 || after.Entries[1].ActivityStreak != 2 {
		t.Fatalf("matching row not patched: %+v", after.Entries[1])
	}
	if after.Entries[0] != before.Entries[0] {
		t.Fatalf("other row changed: %+v", after.Entries[0])
	}
	if before.Entries[1].LoginStreak != 4 {
		t.Fatalf("previously returned board was mutated")
	}
	if api.boardCalls.Load() != 1 {
		t.Fatalf("streak update must not refetch, calls=%d", api.boardCalls.Load())
	}

	if state.Apply(streakEvent(t, StreakUpdate{Email: "nobody@example.com", LoginStreak: 9})) {
		t.Fatalf("unknown email should not apply")
	}
	select {
	case <-state.Changes():
	default:
		t.Fatalf("expected a change signal")
	}
}

func TestApplyStreakUpdatePatchesOwnAccount(t *testing.T) {
	state := NewAppState(&fakeAPI{}, StateOptions{})
	if _, err := state.Me.Get(context.Background()); err != nil {
		t.Fatalf("Me: %v", err)
	}
	state.Apply(streakEvent(t, StreakUpdate{Email: "a@example.com", LoginStreak: 2, Streak: 3}))
	me, _, _ := state.Me.Peek()
	if me.User.LoginStreak != 2 || me.User.ActivityStreak != 3 {
		t.Fatalf("me not patched: %+v", me.User)
	}
}

func TestApplyInvalidations(t *testing.T) {
	api := &fakeAPI{}
	state := NewAppState(api, StateOptions{})
	ctx := context.Background()
	if err := state.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	state.Apply(Event{Name: realtime.SSEEventLedgerUpdate, Data: json.RawMessage(`{}`)})
	if _, _, ok := state.Me.Peek(); ok {
		t.Fatalf("ledger:update should invalidate me")
	}
	if _, _, ok := state.Leaderboard.Peek(); !ok {
		t.Fatalf("ledger:update should leave the board alone")
	}

	state.Apply(Event{Name: realtime.SSEEventLeaderboardInvalidate})
	if _, _, ok := state.Leaderboard.Peek(); ok {
		t.Fatalf("leaderboard:invalidate should invalidate the board")
	}

	if err := state.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if api.meCalls.Load() != 2 || api.boardCalls.Load() != 2 {
		t.Fatalf("calls me=%d board=%d", api.meCalls.Load(), api.boardCalls.Load())
	}

	if state.Apply(Event{Name: realtime.SSEEventTeamUpdated}) {
		t.Fatalf("unrelated event should be ignored")
	}
}
