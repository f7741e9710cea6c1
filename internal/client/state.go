package client

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/realtime"
)

const DefaultMaxAge = 30 * time.Second

// API is the subset of Client that client-side state reads through.
type API interface {
	Me(ctx context.Context) (*Me, error)
	Leaderboard(ctx context.Context, q LeaderboardQuery) (*types.Leaderboard, error)
}

type StateOptions struct {
	MaxAge      time.Duration
	Leaderboard LeaderboardQuery
}

// AppState holds everything a view renders. It is created once and passed to
// the views and the Syncer that keeps it current.
type AppState struct {
	Me          *ReadThrough[*Me]
	Leaderboard *LeaderboardView

	changed chan struct{}
}

func NewAppState(api API, opts StateOptions) *AppState {
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	q := opts.Leaderboard
	return &AppState{
		Me: NewReadThrough(func(ctx context.Context) (*Me, error) {
			return api.Me(ctx)
		}, maxAge),
		Leaderboard: &LeaderboardView{
			cache: NewReadThrough(func(ctx context.Context) (*types.Leaderboard, error) {
				return api.Leaderboard(ctx, q)
			}, maxAge),
		},
		changed: make(chan struct{}, 1),
	}
}

// Changes fires after any push or refresh that may alter what a view shows.
// Signals coalesce.
func (s *AppState) Changes() <-chan struct{} { return s.changed }

func (s *AppState) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Apply folds one pushed event into the state and reports whether it was
// relevant.
func (s *AppState) Apply(ev Event) bool {
	switch ev.Name {
	case realtime.SSEEventStreakUpdate:
		var up StreakUpdate
		if err := json.Unmarshal(ev.Data, &up); err != nil {
			return false
		}
		board := s.Leaderboard.ApplyStreakUpdate(up)
		me := s.Me.Mutate(func(m *Me) (*Me, bool) {
			if m == nil || m.User == nil || !strings.EqualFold(m.User.Email, up.Email) {
				return m, false
			}
			u := *m.User
			u.LoginStreak, u.ActivityStreak = up.LoginStreak, up.Streak
			next := *m
			next.User = &u
			return &next, true
		})
		if board || me {
			s.notify()
		}
		return board || me
	case realtime.SSEEventLedgerUpdate, realtime.SSEEventBadgeAwarded:
		s.Me.Invalidate()
	case realtime.SSEEventLeaderboardInvalidate:
		s.Leaderboard.Invalidate()
	default:
		return false
	}
	s.notify()
	return true
}

// InvalidateAll drops every cached value, used after a reconnect and by the
// reconciliation sweep.
func (s *AppState) InvalidateAll() {
	s.Me.Invalidate()
	s.Leaderboard.Invalidate()
	s.notify()
}

// Refresh refetches whatever is not fresh.
func (s *AppState) Refresh(ctx context.Context) error {
	if _, err := s.Me.Get(ctx); err != nil {
		return err
	}
	_, err := s.Leaderboard.Get(ctx)
	return err
}

// LeaderboardView is the read-through leaderboard plus local patches from
// streak pushes.
type LeaderboardView struct {
	cache *ReadThrough[*types.Leaderboard]
}

func (v *LeaderboardView) Get(ctx context.Context) (*types.Leaderboard, error) {
	return v.cache.Get(ctx)
}

func (v *LeaderboardView) Peek() (*types.Leaderboard, time.Time, bool) {
	return v.cache.Peek()
}

func (v *LeaderboardView) Invalidate() { v.cache.Invalidate() }

// ApplyStreakUpdate patches the streak columns of the row whose email
// matches. Other rows, and the order, are left as fetched.
func (v *LeaderboardView) ApplyStreakUpdate(up StreakUpdate) bool {
	email := strings.TrimSpace(up.Email)
	if email == "" {
		return false
	}
	return v.cache.Mutate(func(lb *types.Leaderboard) (*types.Leaderboard, bool) {
		if lb == nil {
			return lb, false
		}
		for i, e := range lb.Entries {
			if !strings.EqualFold(e.Email, email) {
				continue
			}
			if e.LoginStreak == up.LoginStreak && e.ActivityStreak == up.Streak {
				return lb, false
			}
			next := *lb
			next.Entries = append([]types.LeaderboardEntry(nil), lb.Entries...)
			next.Entries[i].LoginStreak = up.LoginStreak
			next.Entries[i].ActivityStreak = up.Streak
			return &next, true
		}
		return lb, false
	})
}
