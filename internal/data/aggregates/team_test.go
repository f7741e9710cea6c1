package aggregates_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/levelup-backend/internal/data/aggregates"
	aggtestutil "github.com/yungbote/levelup-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/levelup-backend/internal/data/repos"
	"github.com/yungbote/levelup-backend/internal/data/repos/testutil"
	types "github.com/yungbote/levelup-backend/internal/domain"
	domainagg "github.com/yungbote/levelup-backend/internal/domain/aggregates"
	"github.com/yungbote/levelup-backend/internal/domain/hackathon"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"gorm.io/gorm"
)

type teamFixture struct {
	db      *gorm.DB
	agg     domainagg.TeamAggregate
	hooks   *aggtestutil.HooksRecorder
	owner   *types.User
	hack    *types.Hackathon
	leader  *types.User
	mate    *types.User
	outside *types.User
}

func newTeamFixture(t *testing.T, minSize, maxSize int) teamFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	hooks := &aggtestutil.HooksRecorder{}
	owner := testutil.SeedUser(t, db, "owner@example.com", testutil.AsTeacher())
	return teamFixture{
		db:    db,
		hooks: hooks,
		agg: aggregates.NewTeamAggregate(aggregates.TeamAggregateDeps{
			Base:       aggregates.BaseDeps{DB: db, Log: log, Hooks: hooks},
			Hackathons: repos.NewHackathonRepo(db, log),
			Teams:      repos.NewTeamRepo(db, log),
		}),
		owner:   owner,
		hack:    testutil.SeedHackathon(t, db, owner.ID, minSize, maxSize),
		leader:  testutil.SeedUser(t, db, "leader@example.com"),
		mate:    testutil.SeedUser(t, db, "mate@example.com"),
		outside: testutil.SeedUser(t, db, "outside@example.com"),
	}
}

func (f teamFixture) create(t *testing.T) hackathon.Team {
	t.Helper()
	team, err := f.agg.CreateTeam(context.Background(), domainagg.CreateTeamInput{
		HackathonID: f.hack.ID,
		LeaderID:    f.leader.ID,
		MemberIDs:   []uuid.UUID{f.mate.ID, f.leader.ID},
		Name:        "Rockets",
	})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	return team
}

func strPtr(s string) *string { return &s }

func TestCreateTeamEnforcesSizeBounds(t *testing.T) {
	f := newTeamFixture(t, 2, 2)
	ctx := context.Background()

	_, err := f.agg.CreateTeam(ctx, domainagg.CreateTeamInput{HackathonID: f.hack.ID, LeaderID: f.leader.ID, Name: "Solo"})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("too small: want validation, got %v", err)
	}
	_, err = f.agg.CreateTeam(ctx, domainagg.CreateTeamInput{
		HackathonID: f.hack.ID,
		LeaderID:    f.leader.ID,
		MemberIDs:   []uuid.UUID{f.mate.ID, f.outside.ID},
		Name:        "Crowd",
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("too large: want validation, got %v", err)
	}

	team := f.create(t)
	if team.Status != hackathon.StatusNotStarted || team.LeaderID != f.leader.ID {
		t.Fatalf("created team: %+v", team)
	}
}

func TestCreateTeamRejectsMemberAlreadyOnTeam(t *testing.T) {
	f := newTeamFixture(t, 1, 4)
	f.create(t)

	_, err := f.agg.CreateTeam(context.Background(), domainagg.CreateTeamInput{
		HackathonID: f.hack.ID,
		LeaderID:    f.outside.ID,
		MemberIDs:   []uuid.UUID{f.mate.ID},
		Name:        "Poachers",
	})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
}

func TestOnlyLeaderEditsAndDeletes(t *testing.T) {
	f := newTeamFixture(t, 1, 4)
	team := f.create(t)
	ctx := context.Background()

	_, err := f.agg.UpdateTeam(ctx, domainagg.UpdateTeamInput{TeamID: team.ID, ActorID: f.mate.ID, Name: strPtr("Mutiny")})
	if !errors.Is(err, domainagg.ErrForbidden) {
		t.Fatalf("member edit: want forbidden, got %v", err)
	}
	err = f.agg.DeleteTeam(ctx, domainagg.DeleteTeamInput{TeamID: team.ID, ActorID: f.outside.ID})
	if !errors.Is(err, domainagg.ErrForbidden) {
		t.Fatalf("outsider delete: want forbidden, got %v", err)
	}

	updated, err := f.agg.UpdateTeam(ctx, domainagg.UpdateTeamInput{TeamID: team.ID, ActorID: f.leader.ID, Name: strPtr("  Comets ")})
	if err != nil {
		t.Fatalf("leader edit: %v", err)
	}
	if updated.Name != "Comets" || updated.Status != hackathon.StatusInProgress {
		t.Fatalf("after edit: name=%q status=%s", updated.Name, updated.Status)
	}

	if err := f.agg.DeleteTeam(ctx, domainagg.DeleteTeamInput{TeamID: team.ID, ActorID: f.leader.ID}); err != nil {
		t.Fatalf("leader delete: %v", err)
	}
	var count int64
	f.db.Model(&types.TeamMember{}).Where("team_id = ?", team.ID).Count(&count)
	if count != 0 {
		t.Fatalf("members left after delete: %d", count)
	}
}

func TestSubmitAndGradeLifecycle(t *testing.T) {
	f := newTeamFixture(t, 1, 4)
	team := f.create(t)
	ctx := context.Background()

	_, err := f.agg.Grade(ctx, domainagg.GradeTeamInput{TeamID: team.ID, ActorID: f.owner.ID, Score: 90})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) || errors.Is(err, domainagg.ErrForbidden) {
		t.Fatalf("grade before submit: want precondition, got %v", err)
	}

	_, err = f.agg.Submit(ctx, domainagg.SubmitTeamInput{TeamID: team.ID, ActorID: f.outside.ID, Text: strPtr("x")})
	if !errors.Is(err, domainagg.ErrForbidden) {
		t.Fatalf("outsider submit: want forbidden, got %v", err)
	}

	submitted, err := f.agg.Submit(ctx, domainagg.SubmitTeamInput{
		TeamID:  team.ID,
		ActorID: f.mate.ID,
		Text:    strPtr("our project"),
		Files:   []hackathon.SubmissionFile{{Name: "deck.pdf", Key: "k1"}},
	})
	if err != nil {
		t.Fatalf("member submit: %v", err)
	}
	if submitted.Status != hackathon.StatusSubmitted || submitted.SubmittedAt == nil || len(submitted.Files) != 1 {
		t.Fatalf("after submit: %+v", submitted)
	}

	_, err = f.agg.Grade(ctx, domainagg.GradeTeamInput{TeamID: team.ID, ActorID: f.leader.ID, Score: 100})
	if !errors.Is(err, domainagg.ErrForbidden) {
		t.Fatalf("leader grade: want forbidden, got %v", err)
	}
	graded, err := f.agg.Grade(ctx, domainagg.GradeTeamInput{TeamID: team.ID, ActorID: f.owner.ID, Score: 88})
	if err != nil {
		t.Fatalf("owner grade: %v", err)
	}
	if graded.Status != hackathon.StatusGraded || graded.Score == nil || *graded.Score != 88 {
		t.Fatalf("after grade: %+v", graded)
	}

	amended, err := f.agg.Submit(ctx, domainagg.SubmitTeamInput{
		TeamID:  team.ID,
		ActorID: f.leader.ID,
		Files:   []hackathon.SubmissionFile{{Name: "demo.mp4", Key: "k2"}},
	})
	if err != nil {
		t.Fatalf("amend: %v", err)
	}
	if amended.Status != hackathon.StatusGraded || len(amended.Files) != 2 {
		t.Fatalf("amend must keep graded and append files: %+v", amended)
	}
}

func TestSubmitRequiresContent(t *testing.T) {
	f := newTeamFixture(t, 1, 4)
	team := f.create(t)

	_, err := f.agg.Submit(context.Background(), domainagg.SubmitTeamInput{TeamID: team.ID, ActorID: f.leader.ID})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("empty submit: want validation, got %v", err)
	}

	draft, err := f.agg.Submit(context.Background(), domainagg.SubmitTeamInput{
		TeamID:  team.ID,
		ActorID: f.leader.ID,
		Draft:   true,
		Files:   []hackathon.SubmissionFile{{Name: "wip.zip", Key: "k"}},
	})
	if err != nil {
		t.Fatalf("draft upload: %v", err)
	}
	if draft.Status != hackathon.StatusInProgress || draft.SubmittedAt != nil {
		t.Fatalf("draft keeps team in progress: %+v", draft)
	}
}

func TestTeamFromStatusRejectsStaleStatus(t *testing.T) {
	f := newTeamFixture(t, 1, 3)
	team := f.create(t)
	guard := aggregates.NewCASGuard(f.db)
	dbc := dbctx.Context{Ctx: context.Background()}

	err := guard.TeamFromStatus(dbc, team.ID, hackathon.StatusSubmitted, map[string]any{"name": "Stale"})
	if !errors.Is(err, aggregates.ErrConflict) {
		t.Fatalf("expected conflict for stale status, got %v", err)
	}
	if err := guard.TeamFromStatus(dbc, team.ID, team.Status, map[string]any{"name": "Fresh"}); err != nil {
		t.Fatalf("TeamFromStatus with current status: %v", err)
	}
	var got hackathon.Team
	if err := f.db.First(&got, "id = ?", team.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Name != "Fresh" {
		t.Fatalf("name = %q", got.Name)
	}
}
