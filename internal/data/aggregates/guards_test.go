package aggregates

import (
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/levelup-backend/internal/domain/hackathon"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
)

func TestStatusIn(t *testing.T) {
	if !statusIn(hackathon.StatusSubmitted, hackathon.StatusSubmitted, hackathon.StatusGraded) {
		t.Fatalf("submitted should be allowed")
	}
	if statusIn(hackathon.StatusInProgress, hackathon.StatusSubmitted, hackathon.StatusGraded) {
		t.Fatalf("in_progress should not be allowed")
	}
}

func TestTeamFromStatusRequiresDB(t *testing.T) {
	err := CASGuard{}.TeamFromStatus(dbctx.Context{}, uuid.New(), hackathon.StatusNotStarted, map[string]any{"name": "x"})
	if err == nil {
		t.Fatalf("expected validation error without a db")
	}
}
