package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/levelup-backend/internal/data/repos/testutil"
	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserTokenRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	u := testutil.SeedUser(t, db, "usertokenrepo@example.com")

	makeToken := func(access, refresh string, exp time.Time) *types.UserToken {
		return &types.UserToken{
			ID:           uuid.New(),
			UserID:       u.ID,
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    exp,
		}
	}

	live := makeToken("access-1", "refresh-1", time.Now().Add(time.Hour))
	stale := makeToken("access-2", "refresh-2", time.Now().Add(-time.Hour))
	if _, err := repo.Create(dbc, []*types.UserToken{live, stale}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if rows, err := repo.GetByAccessTokens(dbc, []string{live.AccessToken}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByAccessTokens: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByRefreshTokens(dbc, []string{live.RefreshToken}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByRefreshTokens: err=%v len=%d", err, len(rows))
	}

	n, err := repo.DeleteExpired(dbc, time.Now())
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired: n=%d err=%v", n, err)
	}

	if err := repo.SoftDeleteByIDs(dbc, []uuid.UUID{live.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{live.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("GetByIDs after delete: err=%v len=%d", err, len(rows))
	}
}
