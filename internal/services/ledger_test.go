package services

import (
	"net/http"
	"testing"

	"github.com/yungbote/levelup-backend/internal/data/repos/testutil"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/realtime"
)

func TestTeacherAwardCreditsCoinsAndXP(t *testing.T) {
	f := newFixture(t)
	teacher := testutil.SeedUser(t, f.db, "t@example.com", testutil.AsTeacher())
	student := testutil.SeedUser(t, f.db, "s@example.com", testutil.WithXP(80), testutil.WithCoins(10))
	testutil.SeedClass(t, f.db, teacher.ID, "ABC123", student.ID)

	svc := NewRewardsService(f.log, f.users, f.classes, f.badges, f.store, f.ledger)
	got, err := svc.TeacherAward(as(teacher), TeacherAwardInput{Student: UserRef{Email: "S@example.com"}, Points: 20, Reason: "great work"})
	if err != nil {
		t.Fatalf("TeacherAward: %v", err)
	}
	if got.XP != 100 || got.Level != 2 || got.Coins != 30 {
		t.Fatalf("after award: xp=%d level=%d coins=%d", got.XP, got.Level, got.Coins)
	}
	if n := len(f.emit.byEvent(realtime.SSEEventLedgerUpdate)); n != 1 {
		t.Fatalf("ledger:update events: want=1 got=%d", n)
	}
	if len(f.emit.byEvent(realtime.SSEEventLeaderboardInvalidate)) == 0 {
		t.Fatalf("expected leaderboard:invalidate")
	}

	held, err := f.badges.ListByUser(dbctx.Context{}, student.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(held) != 1 || held[0].BadgeID != "rising-star" {
		t.Fatalf("auto badge: %+v", held)
	}
	if n := len(f.emit.byEvent(realtime.SSEEventBadgeAwarded)); n != 1 {
		t.Fatalf("badge:awarded events: want=1 got=%d", n)
	}
}

func TestTeacherAwardRequiresRosterAndPositivePoints(t *testing.T) {
	f := newFixture(t)
	teacher := testutil.SeedUser(t, f.db, "t@example.com", testutil.AsTeacher())
	stranger := testutil.SeedUser(t, f.db, "x@example.com")
	svc := NewRewardsService(f.log, f.users, f.classes, f.badges, f.store, f.ledger)

	_, err := svc.TeacherAward(as(teacher), TeacherAwardInput{Student: UserRef{ID: &stranger.ID}, Points: 5})
	wantAPIError(t, err, http.StatusForbidden, "forbidden")

	_, err = svc.TeacherAward(as(teacher), TeacherAwardInput{Student: UserRef{ID: &stranger.ID}, Points: 0})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_points")

	_, err = svc.TeacherAward(as(stranger), TeacherAwardInput{Student: UserRef{ID: &teacher.ID}, Points: 5})
	wantAPIError(t, err, http.StatusForbidden, "forbidden")

	_, err = svc.TeacherAward(as(teacher), TeacherAwardInput{Student: UserRef{Email: "nobody@example.com"}, Points: 5})
	wantAPIError(t, err, http.StatusNotFound, "user_not_found")
}

func TestAwardXPSelfGainAndTeacherAdjustments(t *testing.T) {
	f := newFixture(t)
	teacher := testutil.SeedUser(t, f.db, "t@example.com", testutil.AsTeacher())
	student := testutil.SeedUser(t, f.db, "s@example.com", testutil.WithXP(40))
	other := testutil.SeedUser(t, f.db, "o@example.com")
	testutil.SeedClass(t, f.db, teacher.ID, "ROSTER", student.ID)
	svc := NewPointsService(f.log, f.users, f.classes, f.progress, f.ledger, f.rules)

	got, err := svc.AwardXP(as(student), AwardXPInput{Target: UserRef{ID: &student.ID}, XP: 15})
	if err != nil {
		t.Fatalf("self award: %v", err)
	}
	if got.XP != 55 {
		t.Fatalf("self award xp: want=55 got=%d", got.XP)
	}

	_, err = svc.AwardXP(as(student), AwardXPInput{Target: UserRef{ID: &student.ID}, XP: -10})
	wantAPIError(t, err, http.StatusForbidden, "")

	_, err = svc.AwardXP(as(student), AwardXPInput{Target: UserRef{ID: &other.ID}, XP: 10})
	wantAPIError(t, err, http.StatusForbidden, "")

	got, err = svc.AwardXP(as(teacher), AwardXPInput{Target: UserRef{Email: "s@example.com"}, XP: -100, Reason: "correction"})
	if err != nil {
		t.Fatalf("teacher adjust: %v", err)
	}
	if got.XP != 0 || got.Level != 1 {
		t.Fatalf("xp floors at zero: xp=%d level=%d", got.XP, got.Level)
	}

	_, err = svc.AwardXP(as(teacher), AwardXPInput{Target: UserRef{ID: &other.ID}, XP: 10})
	wantAPIError(t, err, http.StatusForbidden, "")

	_, err = svc.AwardXP(as(student), AwardXPInput{Target: UserRef{ID: &student.ID}, XP: 0})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_xp")
}

func TestQuizAndBattleCountAsActivity(t *testing.T) {
	f := newFixture(t)
	student := testutil.SeedUser(t, f.db, "s@example.com")
	svc := NewPointsService(f.log, f.users, f.classes, f.progress, f.ledger, f.rules)

	got, err := svc.RecordQuiz(as(student), QuizInput{Topic: "fractions", Correct: 4, Total: 5})
	if err != nil {
		t.Fatalf("RecordQuiz: %v", err)
	}
	if got.XP != 20 || got.Coins != 4 {
		t.Fatalf("quiz: xp=%d coins=%d", got.XP, got.Coins)
	}
	if got.ActivityStreak != 1 {
		t.Fatalf("activity streak: want=1 got=%d", got.ActivityStreak)
	}
	progress, err := f.progress.ListByUser(dbctx.Context{}, student.ID)
	if err != nil || len(progress) != 1 || progress[0].Percent != 80 {
		t.Fatalf("progress: %+v err=%v", progress, err)
	}
	streaks := f.emit.byEvent(realtime.SSEEventStreakUpdate)
	if len(streaks) != 1 || streaks[0].Channel != realtime.ChannelBroadcast {
		t.Fatalf("streak:update: %+v", streaks)
	}

	got, err = svc.RecordBattle(as(student), BattleInput{Won: true})
	if err != nil {
		t.Fatalf("RecordBattle: %v", err)
	}
	if got.XP != 45 || got.Coins != 9 {
		t.Fatalf("battle win: xp=%d coins=%d", got.XP, got.Coins)
	}
	if n := len(f.emit.byEvent(realtime.SSEEventStreakUpdate)); n != 1 {
		t.Fatalf("same-day activity must not re-emit: got %d", n)
	}

	got, err = svc.RecordQuiz(as(student), QuizInput{Correct: 0, Total: 3})
	if err != nil {
		t.Fatalf("zero quiz: %v", err)
	}
	if got.XP != 45 {
		t.Fatalf("zero quiz changed xp: %d", got.XP)
	}

	_, err = svc.RecordQuiz(as(student), QuizInput{Correct: 4, Total: 3})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_quiz_result")
}

func TestCompleteLessonUpdatesProgress(t *testing.T) {
	f := newFixture(t)
	student := testutil.SeedUser(t, f.db, "s@example.com")
	svc := NewPointsService(f.log, f.users, f.classes, f.progress, f.ledger, f.rules)

	pct := 150
	got, err := svc.CompleteLesson(as(student), LessonInput{Topic: "loops", Progress: &pct})
	if err != nil {
		t.Fatalf("CompleteLesson: %v", err)
	}
	if got.XP != f.rules.LessonXP {
		t.Fatalf("lesson xp: want=%d got=%d", f.rules.LessonXP, got.XP)
	}
	progress, _ := f.progress.ListByUser(dbctx.Context{}, student.ID)
	if len(progress) != 1 || progress[0].Percent != 100 {
		t.Fatalf("progress clamp: %+v", progress)
	}
	entries, _ := f.entries.ListByUser(dbctx.Context{}, student.ID, 10)
	if len(entries) != 1 || entries[0].Kind != "lesson" {
		t.Fatalf("ledger: %+v", entries)
	}
}

func TestPurchaseMapsLedgerErrors(t *testing.T) {
	f := newFixture(t)
	rich := testutil.SeedUser(t, f.db, "rich@example.com", testutil.WithCoins(60))
	poor := testutil.SeedUser(t, f.db, "poor@example.com", testutil.WithCoins(10))
	svc := NewStoreService(f.log, f.store, f.ledger)

	res, err := svc.Purchase(as(rich), "frame-gold")
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if res.User.Coins != 10 || res.Item.ID != "frame-gold" {
		t.Fatalf("purchase result: coins=%d item=%s", res.User.Coins, res.Item.ID)
	}

	_, err = svc.Purchase(as(rich), "frame-gold")
	wantAPIError(t, err, http.StatusConflict, "already_unlocked")

	_, err = svc.Purchase(as(poor), "title-scholar")
	wantAPIError(t, err, http.StatusBadRequest, "insufficient_coins")
	if f.reload(t, poor.ID).Coins != 10 {
		t.Fatalf("failed purchase must not debit")
	}

	_, err = svc.Purchase(as(poor), "missing-item")
	wantAPIError(t, err, http.StatusNotFound, "item_not_found")

	unlocked, err := NewRewardsService(f.log, f.users, f.classes, f.badges, f.store, f.ledger).Unlocked(as(rich))
	if err != nil || len(unlocked) != 1 {
		t.Fatalf("unlocked: %+v err=%v", unlocked, err)
	}
}

func TestCheckInEmitsStreakUpdateOncePerDay(t *testing.T) {
	f := newFixture(t)
	student := testutil.SeedUser(t, f.db, "s@example.com", testutil.WithLoginStreak(2, 2, "2000-01-01"))
	svc := NewStreakService(f.ledger)

	got, changed, err := svc.CheckIn(as(student))
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if !changed || got.LoginStreak != 1 || got.LongestLoginStreak != 2 {
		t.Fatalf("gap resets streak: changed=%v streak=%d longest=%d", changed, got.LoginStreak, got.LongestLoginStreak)
	}
	events := f.emit.byEvent(realtime.SSEEventStreakUpdate)
	if len(events) != 1 {
		t.Fatalf("streak:update: want=1 got=%d", len(events))
	}
	payload, ok := events[0].Data.(StreakUpdatePayload)
	if !ok || payload.Email != "s@example.com" || payload.LoginStreak != 1 {
		t.Fatalf("payload: %#v", events[0].Data)
	}

	_, changed, err = svc.CheckIn(as(student))
	if err != nil || changed {
		t.Fatalf("second check-in: changed=%v err=%v", changed, err)
	}
	if n := len(f.emit.byEvent(realtime.SSEEventStreakUpdate)); n != 1 {
		t.Fatalf("second check-in emitted: %d", n)
	}
}

func TestAwardBadgeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	teacher := testutil.SeedUser(t, f.db, "t@example.com", testutil.AsTeacher())
	student := testutil.SeedUser(t, f.db, "s@example.com")
	testutil.SeedClass(t, f.db, teacher.ID, "BADGES", student.ID)
	svc := NewRewardsService(f.log, f.users, f.classes, f.badges, f.store, f.ledger)

	_, awarded, err := svc.AwardBadge(as(teacher), student.ID, "quiz-master")
	if err != nil || !awarded {
		t.Fatalf("first award: awarded=%v err=%v", awarded, err)
	}
	_, awarded, err = svc.AwardBadge(as(teacher), student.ID, "quiz-master")
	if err != nil || awarded {
		t.Fatalf("second award: awarded=%v err=%v", awarded, err)
	}
	badges, err := svc.ListUserBadges(as(student), student.ID)
	if err != nil || len(badges) != 1 || badges[0].Badge == nil {
		t.Fatalf("list badges: %+v err=%v", badges, err)
	}

	_, _, err = svc.AwardBadge(as(teacher), student.ID, "no-such-badge")
	wantAPIError(t, err, http.StatusBadRequest, "validation_error")
}
