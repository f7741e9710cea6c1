package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/levelup-backend/internal/data/repos/testutil"
	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/domain/user"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	created, err := repo.Create(dbc, []*types.User{
		{
			Email:     "  UserRepo@Example.com ",
			Password:  "pw",
			FirstName: "A",
			LastName:  "B",
			Role:      types.RoleStudent,
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].ID == uuid.Nil {
		t.Fatalf("Create: unexpected result: %+v", created)
	}
	if created[0].Email != "userrepo@example.com" {
		t.Fatalf("Create: email not normalized: %q", created[0].Email)
	}
	if created[0].Level != 1 {
		t.Fatalf("Create: level want=1 got=%d", created[0].Level)
	}

	gotByIDs, err := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if err != nil || len(gotByIDs) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(gotByIDs))
	}
	gotByEmail, err := repo.GetByEmail(dbc, "USERREPO@example.com")
	if err != nil || gotByEmail == nil || gotByEmail.ID != created[0].ID {
		t.Fatalf("GetByEmail: err=%v got=%+v", err, gotByEmail)
	}
	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID missing: err=%v got=%+v", err, missing)
	}
	exists, err := repo.EmailExists(dbc, "does-not-exist@example.com")
	if err != nil || exists {
		t.Fatalf("EmailExists: err=%v exists=%v", err, exists)
	}
}

func TestUserRepoApplyDeltaRecomputesLevelAndClamps(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	u := testutil.SeedUser(t, db, "delta@example.com", testutil.WithXP(80), testutil.WithCoins(10))

	ok, err := repo.ApplyDelta(dbc, u.ID, 20, 20)
	if err != nil || !ok {
		t.Fatalf("ApplyDelta: ok=%v err=%v", ok, err)
	}
	got, _ := repo.GetByID(dbc, u.ID)
	if got.XP != 100 || got.Level != 2 || got.Coins != 30 {
		t.Fatalf("after +20: want xp=100 level=2 coins=30 got xp=%d level=%d coins=%d", got.XP, got.Level, got.Coins)
	}

	if _, err := repo.ApplyDelta(dbc, u.ID, -500, 0); err != nil {
		t.Fatalf("ApplyDelta negative: %v", err)
	}
	got, _ = repo.GetByID(dbc, u.ID)
	if got.XP != 0 || got.Level != 1 {
		t.Fatalf("after -500: want xp=0 level=1 got xp=%d level=%d", got.XP, got.Level)
	}

	ok, err = repo.ApplyDelta(dbc, uuid.New(), 10, 0)
	if err != nil || ok {
		t.Fatalf("ApplyDelta unknown user: ok=%v err=%v", ok, err)
	}
}

func TestUserRepoDebitCoinsRequiresBalance(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	u := testutil.SeedUser(t, db, "debit@example.com", testutil.WithCoins(40))

	ok, err := repo.DebitCoins(dbc, u.ID, 50)
	if err != nil || ok {
		t.Fatalf("DebitCoins over balance: ok=%v err=%v", ok, err)
	}
	ok, err = repo.DebitCoins(dbc, u.ID, 40)
	if err != nil || !ok {
		t.Fatalf("DebitCoins exact: ok=%v err=%v", ok, err)
	}
	got, _ := repo.GetByID(dbc, u.ID)
	if got.Coins != 0 {
		t.Fatalf("coins: want=0 got=%d", got.Coins)
	}
}

func TestUserRepoLeaderboardOrdering(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	a := testutil.SeedUser(t, db, "a@example.com", testutil.WithXP(300))
	b := testutil.SeedUser(t, db, "b@example.com", testutil.WithXP(500))
	c := testutil.SeedUser(t, db, "c@example.com", testutil.WithXP(300))
	teacher := testutil.SeedUser(t, db, "t@example.com", testutil.WithXP(9000), testutil.AsTeacher())
	class := testutil.SeedClass(t, db, teacher.ID, "ABC123", a.ID, c.ID)

	rows, err := repo.Leaderboard(dbc, LeaderboardQuery{})
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Leaderboard: want 3 students got %d", len(rows))
	}
	if rows[0].ID != b.ID {
		t.Fatalf("rank 1: want=%s got=%s", b.ID, rows[0].ID)
	}
	first, second := a.ID, c.ID
	if second.String() < first.String() {
		first, second = second, first
	}
	if rows[1].ID != first || rows[2].ID != second {
		t.Fatalf("tie order by id: want=%s,%s got=%s,%s", first, second, rows[1].ID, rows[2].ID)
	}

	scoped, err := repo.Leaderboard(dbc, LeaderboardQuery{ClassID: &class.ID})
	if err != nil {
		t.Fatalf("Leaderboard class: %v", err)
	}
	if len(scoped) != 2 {
		t.Fatalf("Leaderboard class: want=2 got=%d", len(scoped))
	}
}

func TestUserRepoStreakColumns(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	u := testutil.SeedUser(t, db, "streak@example.com")

	if err := repo.UpdateLoginStreak(dbc, u.ID, user.Streak{Current: 4, Longest: 7, LastDay: "2026-05-01"}); err != nil {
		t.Fatalf("UpdateLoginStreak: %v", err)
	}
	if err := repo.UpdateActivityStreak(dbc, u.ID, user.Streak{Current: 2, Longest: 2, LastDay: "2026-05-01"}); err != nil {
		t.Fatalf("UpdateActivityStreak: %v", err)
	}
	got, _ := repo.GetByID(dbc, u.ID)
	if got.LoginStreak != 4 || got.LongestLoginStreak != 7 || got.ActivityStreak != 2 || got.LastActiveOn != "2026-05-01" {
		t.Fatalf("streak columns: %+v", got)
	}
}

func TestTopicProgressUpsertLastWriteWins(t *testing.T) {
	db := testutil.DB(t)
	repo := NewTopicProgressRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	u := testutil.SeedUser(t, db, "progress@example.com")

	if _, err := repo.Upsert(dbc, u.ID, "fractions", 40); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := repo.Upsert(dbc, u.ID, "fractions", 130); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	rows, err := repo.ListByUser(dbc, u.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 1 || rows[0].Percent != 100 {
		t.Fatalf("progress: want one row at 100 got %+v", rows)
	}
}
