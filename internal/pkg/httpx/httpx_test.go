package httpx

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

type statusErr int

func (s statusErr) Error() string       { return "status" }
func (s statusErr) HTTPStatusCode() int { return int(s) }

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{context.DeadlineExceeded, true},
		{statusErr(http.StatusServiceUnavailable), true},
		{statusErr(http.StatusTooManyRequests), true},
		{statusErr(http.StatusUnauthorized), false},
		{errors.New("connection reset"), true},
	}
	for _, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.want {
			t.Fatalf("IsRetryableError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	b := Backoff{Base: 100 * time.Millisecond, Max: time.Second}
	prevHigh := time.Duration(0)
	for i := 0; i < 8; i++ {
		d := b.Next()
		if d > 1200*time.Millisecond {
			t.Fatalf("attempt %d exceeded cap: %v", i, d)
		}
		if i == 0 && (d < 80*time.Millisecond || d > 120*time.Millisecond) {
			t.Fatalf("first delay out of jitter range: %v", d)
		}
		prevHigh = d
	}
	if prevHigh < 800*time.Millisecond {
		t.Fatalf("delay should reach the cap, got %v", prevHigh)
	}
	b.Reset()
	if d := b.Next(); d > 120*time.Millisecond {
		t.Fatalf("reset did not restart growth: %v", d)
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"7"}}}
	if got := RetryAfterDuration(resp, time.Second, 5*time.Second); got != 5*time.Second {
		t.Fatalf("capped retry-after = %v", got)
	}
	if got := RetryAfterDuration(nil, time.Second, 0); got != time.Second {
		t.Fatalf("fallback = %v", got)
	}
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep err = %v", err)
	}
}
