package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	domainagg "github.com/yungbote/levelup-backend/internal/domain/aggregates"
)

func TestFromAggregateMapsCodes(t *testing.T) {
	cases := []struct {
		code   domainagg.ErrorCode
		status int
	}{
		{domainagg.CodeValidation, http.StatusBadRequest},
		{domainagg.CodeNotFound, http.StatusNotFound},
		{domainagg.CodeConflict, http.StatusConflict},
		{domainagg.CodePreconditionFailed, http.StatusBadRequest},
		{domainagg.CodeRetryable, http.StatusServiceUnavailable},
		{domainagg.CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		err := FromAggregate(domainagg.NewError(tc.code, "ledger.test", "boom", nil))
		ae, ok := As(err)
		if !ok {
			t.Fatalf("%s: expected *Error, got %T", tc.code, err)
		}
		if ae.Status != tc.status {
			t.Fatalf("%s: status want=%d got=%d", tc.code, tc.status, ae.Status)
		}
	}
}

func TestFromAggregateKeepsAPIErrors(t *testing.T) {
	orig := BadRequest("insufficient_coins", "not enough coins")
	wrapped := fmt.Errorf("purchase: %w", orig)
	if got := FromAggregate(wrapped); !errors.Is(got, orig) {
		t.Fatalf("expected passthrough, got=%v", got)
	}
}
