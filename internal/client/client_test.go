package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/realtime"
)

func TestClientMeSendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/me" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":   map[string]any{"email": "a@example.com", "xp": 120, "level": 2},
			"badges": []any{map[string]any{"badge_id": "rising-star"}},
		})
	}))
	defer srv.Close()

	me, err := New(srv.URL+"/", WithToken("tok")).Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.User == nil || me.User.Email != "a@example.com" || me.User.XP != 120 {
		t.Fatalf("me = %+v", me.User)
	}
	if len(me.Badges) != 1 || me.Badges[0].BadgeID != "rising-star" {
		t.Fatalf("badges = %+v", me.Badges)
	}
}

func TestClientLeaderboardQuery(t *testing.T) {
	classID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("classId") != classID.String() || r.URL.Query().Get("limit") != "5" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(types.Leaderboard{Entries: []types.LeaderboardEntry{{Rank: 1, Email: "a@example.com"}}})
	}))
	defer srv.Close()

	lb, err := New(srv.URL).Leaderboard(context.Background(), LeaderboardQuery{ClassID: &classID, Limit: 5})
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].Rank != 1 {
		t.Fatalf("entries = %+v", lb.Entries)
	}
}

func TestClientDecodesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"unauthorized","code":"unauthorized"}}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Me(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Code != "unauthorized" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestClientLoginKeepsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "a@example.com" {
			t.Errorf("email = %q", body["email"])
		}
		_, _ = io.WriteString(w, `{"access_token":"fresh","refresh_token":"r","user":{"email":"a@example.com"}}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Login(context.Background(), "a@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if c.Token() != "fresh" {
		t.Fatalf("token = %q", c.Token())
	}
}

func TestStreamParsesFrames(t *testing.T) {
	raw := ": connected\n\n" +
		": ping ###\n\n" +
		"event: streak:update\ndata: {\"channel\":\"broadcast\",\"event\":\"streak:update\",\"data\":{\"email\":\"b@example.com\",\"loginStreak\":3,\"streak\":2}}\n\n" +
		"event: leaderboard:invalidate\r\ndata: {\"channel\":\"broadcast\",\"event\":\"leaderboard:invalidate\"}\r\n\r\n" +
		"event: ledger:update\ndata: {\"chan"
	st := newStream(io.NopCloser(strings.NewReader(raw)))

	ev, err := st.Next()
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if ev.Name != realtime.SSEEventStreakUpdate || ev.Channel != "broadcast" {
		t.Fatalf("first event = %+v", ev)
	}
	var up StreakUpdate
	if err := json.Unmarshal(ev.Data, &up); err != nil || up.LoginStreak != 3 || up.Streak != 2 {
		t.Fatalf("payload = %+v err=%v", up, err)
	}

	ev, err = st.Next()
	if err != nil || ev.Name != realtime.SSEEventLeaderboardInvalidate {
		t.Fatalf("second event = %+v err=%v", ev, err)
	}

	if _, err := st.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("truncated frame should end in EOF, got %v", err)
	}
}

func TestClientStreamRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok" {
			t.Errorf("token query = %q", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"message":"forbidden","code":"forbidden"}}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithToken("tok")).Stream(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		t.Fatalf("expected 403 APIError, got %v", err)
	}
}
