package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/pkg/httpx"
)

func newSyncServer(t *testing.T, stream http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var boardCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/me", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"user":{"email":"a@example.com"}}`)
	})
	mux.HandleFunc("/api/users/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		boardCalls.Add(1)
		_ = json.NewEncoder(w).Encode(types.Leaderboard{Entries: []types.LeaderboardEntry{{Rank: 1, Email: "a@example.com"}}})
	})
	mux.HandleFunc("/api/sse/stream", stream)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &boardCalls
}

func fastBackoff() httpx.Backoff {
	return httpx.Backoff{Base: 5 * time.Millisecond, Max: 20 * time.Millisecond}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestSyncerReconnectsAfterStreamEnds(t *testing.T) {
	var connects atomic.Int32
	srv, _ := newSyncServer(t, func(w http.ResponseWriter, r *http.Request) {
		connects.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, ": connected\n\nevent: ledger:update\ndata: {\"event\":\"ledger:update\",\"data\":{}}\n\n")
	})

	c := New(srv.URL, WithToken("tok"))
	state := NewAppState(c, StateOptions{})
	syncer := NewSyncer(nil, c, state, SyncerOptions{Sweep: time.Hour, Backoff: fastBackoff()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- syncer.Run(ctx) }()

	waitFor(t, func() bool { return connects.Load() >= 3 })
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run after cancel = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not stop")
	}
}

func TestSyncerStopsOnRejectedCredentials(t *testing.T) {
	srv, _ := newSyncServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"unauthorized","code":"unauthorized"}}`)
	})
	c := New(srv.URL)
	syncer := NewSyncer(nil, c, NewAppState(c, StateOptions{}), SyncerOptions{Backoff: fastBackoff()})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := syncer.Run(ctx)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestSyncerSweepRefetches(t *testing.T) {
	srv, boardCalls := newSyncServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})
	c := New(srv.URL)
	state := NewAppState(c, StateOptions{MaxAge: time.Hour})
	syncer := NewSyncer(nil, c, state, SyncerOptions{Sweep: 20 * time.Millisecond, Backoff: fastBackoff()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = syncer.Run(ctx) }()

	waitFor(t, func() bool { return boardCalls.Load() >= 3 })
}
