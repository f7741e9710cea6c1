package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/levelup-backend/internal/domain/aggregates"
	"github.com/yungbote/levelup-backend/internal/domain/hackathon"
	"github.com/yungbote/levelup-backend/internal/platform/gcp"
	"github.com/yungbote/levelup-backend/internal/realtime"
)

func strPtr(s string) *string { return &s }

func TestCreateHackathonValidatesSizes(t *testing.T) {
	f := newFixture(t)
	teacher := testutil.SeedUser(t, f.db, "t@example.com", testutil.AsTeacher())
	student := testutil.SeedUser(t, f.db, "s@example.com")
	svc := f.newHackathonService()

	_, err := svc.CreateHackathon(as(teacher), CreateHackathonInput{Title: "Spring", MinTeamSize: 3, MaxTeamSize: 2})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_team_size")

	_, err = svc.CreateHackathon(as(student), CreateHackathonInput{Title: "Spring", MinTeamSize: 1, MaxTeamSize: 2})
	wantAPIError(t, err, http.StatusForbidden, "forbidden")

	h, err := svc.CreateHackathon(as(teacher), CreateHackathonInput{Title: "Spring", MinTeamSize: 1, MaxTeamSize: 3})
	if err != nil {
		t.Fatalf("CreateHackathon: %v", err)
	}
	list, err := svc.ListHackathons(as(student))
	if err != nil || len(list) != 1 || list[0].ID != h.ID {
		t.Fatalf("open hackathon should be listed: %+v err=%v", list, err)
	}
}

func TestTeamLifecycle(t *testing.T) {
	f := newFixture(t)
	teacher := testutil.SeedUser(t, f.db, "t@example.com", testutil.AsTeacher())
	leader := testutil.SeedUser(t, f.db, "lead@example.com")
	member := testutil.SeedUser(t, f.db, "mem@example.com")
	late := testutil.SeedUser(t, f.db, "late@example.com")
	h := testutil.SeedHackathon(t, f.db, teacher.ID, 2, 3)
	svc := f.newHackathonService()

	_, err := svc.CreateTeam(as(late), h.ID, CreateTeamInput{Name: "Solo"})
	wantAPIError(t, err, http.StatusBadRequest, "validation_error")

	team, err := svc.CreateTeam(as(leader), h.ID, CreateTeamInput{
		Name:    "Rockets",
		Members: []UserRef{{Email: "MEM@example.com"}, {ID: &leader.ID}},
	})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if team.Status != hackathon.StatusNotStarted || !team.HasMember(member.ID) {
		t.Fatalf("created team: %+v", team)
	}

	_, err = svc.CreateTeam(as(late), h.ID, CreateTeamInput{Name: "Copy", Members: []UserRef{{ID: &member.ID}}})
	wantAPIError(t, err, http.StatusConflict, "conflict")

	_, err = svc.UpdateTeam(as(member), h.ID, team.ID, UpdateTeamInput{Name: strPtr("Hijack")})
	wantAPIError(t, err, http.StatusForbidden, "forbidden")

	updated, err := svc.UpdateTeam(as(leader), h.ID, team.ID, UpdateTeamInput{ProblemStatement: strPtr("recycling")})
	if err != nil {
		t.Fatalf("UpdateTeam: %v", err)
	}
	if updated.Status != hackathon.StatusInProgress || updated.ProblemStatement != "recycling" {
		t.Fatalf("edit should move to in_progress: %+v", updated)
	}

	withFiles, err := svc.UploadFiles(as(member), h.ID, team.ID, []UploadedFile{{Name: "../slides.pdf", Body: strings.NewReader("pdf-bytes")}})
	if err != nil {
		t.Fatalf("UploadFiles: %v", err)
	}
	if len(withFiles.Files) != 1 || withFiles.Files[0].Name != "slides.pdf" || withFiles.Status != hackathon.StatusInProgress {
		t.Fatalf("draft upload: %+v", withFiles)
	}
	if _, ok := f.bucket.Object(gcp.BucketCategorySubmission, withFiles.Files[0].Key); !ok {
		t.Fatalf("uploaded object missing from bucket")
	}

	submitted, err := svc.SubmitTeam(as(member), h.ID, team.ID, TeamSubmissionInput{Link: strPtr("https://example.com/demo")})
	if err != nil {
		t.Fatalf("SubmitTeam: %v", err)
	}
	if submitted.Status != hackathon.StatusSubmitted || submitted.SubmittedAt == nil {
		t.Fatalf("submit: %+v", submitted)
	}

	_, err = svc.GradeTeam(as(leader), h.ID, team.ID, GradeTeamInput{Score: 90})
	wantAPIError(t, err, http.StatusForbidden, "forbidden")

	graded, err := svc.GradeTeam(as(teacher), h.ID, team.ID, GradeTeamInput{Score: 90, XPAward: 40})
	if err != nil {
		t.Fatalf("GradeTeam: %v", err)
	}
	if graded.Status != hackathon.StatusGraded || graded.Score == nil || *graded.Score != 90 {
		t.Fatalf("graded: %+v", graded)
	}
	if f.reload(t, leader.ID).XP != 40 || f.reload(t, member.ID).XP != 40 {
		t.Fatalf("each member should receive the award")
	}

	amended, err := svc.SubmitTeam(as(leader), h.ID, team.ID, TeamSubmissionInput{Text: strPtr("v2")})
	if err != nil {
		t.Fatalf("amend: %v", err)
	}
	if amended.Status != hackathon.StatusGraded {
		t.Fatalf("amending a graded team keeps graded: %s", amended.Status)
	}

	if _, err := svc.GradeTeam(as(teacher), h.ID, team.ID, GradeTeamInput{Score: 95, XPAward: 40}); err != nil {
		t.Fatalf("regrade: %v", err)
	}
	if f.reload(t, leader.ID).XP != 40 {
		t.Fatalf("regrade must not pay again")
	}

	if len(f.emit.byEvent(realtime.SSEEventTeamUpdated)) == 0 {
		t.Fatalf("expected team:updated events")
	}

	mine, err := svc.MyTeam(as(member), h.ID)
	if err != nil || mine.ID != team.ID {
		t.Fatalf("MyTeam: %+v err=%v", mine, err)
	}
	_, err = svc.MyTeam(as(late), h.ID)
	wantAPIError(t, err, http.StatusNotFound, "team_not_found")

	err = svc.DeleteTeam(as(member), h.ID, team.ID)
	wantAPIError(t, err, http.StatusForbidden, "forbidden")
	if err := svc.DeleteTeam(as(leader), h.ID, team.ID); err != nil {
		t.Fatalf("DeleteTeam: %v", err)
	}
	teams, err := svc.ListTeams(as(teacher), h.ID)
	if err != nil || len(teams) != 0 {
		t.Fatalf("teams after delete: %+v err=%v", teams, err)
	}
}

func TestUploadFilesRejectsNonMembers(t *testing.T) {
	f := newFixture(t)
	teacher := testutil.SeedUser(t, f.db, "t@example.com", testutil.AsTeacher())
	leader := testutil.SeedUser(t, f.db, "lead@example.com")
	outsider := testutil.SeedUser(t, f.db, "out@example.com")
	h := testutil.SeedHackathon(t, f.db, teacher.ID, 1, 2)
	svc := f.newHackathonService()

	team, err := svc.CreateTeam(as(leader), h.ID, CreateTeamInput{Name: "One"})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	_, err = svc.UploadFiles(as(outsider), h.ID, team.ID, []UploadedFile{{Name: "a.txt", Body: strings.NewReader("a")}})
	wantAPIError(t, err, http.StatusForbidden, "forbidden")

	_, err = svc.UploadFiles(as(leader), h.ID, team.ID, nil)
	wantAPIError(t, err, http.StatusBadRequest, "missing_files")
}

func TestClassScopedHackathonHiddenFromOutsiders(t *testing.T) {
	f := newFixture(t)
	teacher := testutil.SeedUser(t, f.db, "t@example.com", testutil.AsTeacher())
	member := testutil.SeedUser(t, f.db, "m@example.com")
	outsider := testutil.SeedUser(t, f.db, "o@example.com")
	class := testutil.SeedClass(t, f.db, teacher.ID, "HCK234", member.ID)
	h := testutil.SeedHackathon(t, f.db, teacher.ID, 1, 3)
	if err := f.db.Model(h).Update("class_id", class.ID).Error; err != nil {
		t.Fatalf("scope hackathon: %v", err)
	}
	svc := f.newHackathonService()
	access := NewChannelAccess(f.newClassroomService(), svc)

	if list, err := svc.ListHackathons(as(outsider)); err != nil || len(list) != 0 {
		t.Fatalf("outsider list: %+v err=%v", list, err)
	}
	_, err := svc.GetHackathon(as(outsider), h.ID)
	wantAPIError(t, err, http.StatusNotFound, "hackathon_not_found")
	_, err = svc.CreateTeam(as(outsider), h.ID, CreateTeamInput{Name: "Gatecrash"})
	wantAPIError(t, err, http.StatusNotFound, "hackathon_not_found")
	_, err = svc.ListTeams(as(outsider), h.ID)
	wantAPIError(t, err, http.StatusNotFound, "hackathon_not_found")
	_, err = svc.MyTeam(as(outsider), h.ID)
	wantAPIError(t, err, http.StatusNotFound, "hackathon_not_found")
	wantAPIError(t, access.Authorize(as(outsider), realtime.HackathonChannel(h.ID)), http.StatusNotFound, "hackathon_not_found")

	_, err = svc.CreateTeam(as(member), h.ID, CreateTeamInput{Name: "Mixed", Members: []UserRef{{ID: &outsider.ID}}})
	wantAPIError(t, err, http.StatusBadRequest, "member_not_eligible")

	if _, err := svc.CreateTeam(as(member), h.ID, CreateTeamInput{Name: "Insiders"}); err != nil {
		t.Fatalf("member CreateTeam: %v", err)
	}
	if err := access.Authorize(as(member), realtime.HackathonChannel(h.ID)); err != nil {
		t.Fatalf("member channel: %v", err)
	}
	if err := access.Authorize(as(teacher), realtime.HackathonChannel(h.ID)); err != nil {
		t.Fatalf("creator channel: %v", err)
	}
}

type failingLedger struct {
	LedgerService
	failFor uuid.UUID
	fails   int
}

func (l *failingLedger) Apply(ctx context.Context, in domainagg.ApplyDeltaInput) (domainagg.ApplyDeltaResult, error) {
	if in.UserID == l.failFor && l.fails > 0 {
		l.fails--
		return domainagg.ApplyDeltaResult{}, domainagg.NewError(domainagg.CodeRetryable, "test", "ledger unavailable", nil)
	}
	return l.LedgerService.Apply(ctx, in)
}

func TestGradeTeamRetryPaysRemainingMembersOnce(t *testing.T) {
	f := newFixture(t)
	teacher := testutil.SeedUser(t, f.db, "t@example.com", testutil.AsTeacher())
	leader := testutil.SeedUser(t, f.db, "lead@example.com")
	member := testutil.SeedUser(t, f.db, "mem@example.com")
	h := testutil.SeedHackathon(t, f.db, teacher.ID, 1, 3)
	svc := f.newHackathonService()
	flaky := &failingLedger{LedgerService: f.ledger, failFor: member.ID, fails: 1}
	svc.ledger = flaky

	team, err := svc.CreateTeam(as(leader), h.ID, CreateTeamInput{Name: "Duo", Members: []UserRef{{ID: &member.ID}}})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if _, err := svc.SubmitTeam(as(leader), h.ID, team.ID, TeamSubmissionInput{Text: strPtr("done")}); err != nil {
		t.Fatalf("SubmitTeam: %v", err)
	}

	if _, err := svc.GradeTeam(as(teacher), h.ID, team.ID, GradeTeamInput{Score: 80, XPAward: 40}); err == nil {
		t.Fatalf("expected the first grading to surface the ledger failure")
	}
	if f.reload(t, leader.ID).XP != 40 || f.reload(t, member.ID).XP != 0 {
		t.Fatalf("partial payout: leader=%d member=%d", f.reload(t, leader.ID).XP, f.reload(t, member.ID).XP)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.GradeTeam(as(teacher), h.ID, team.ID, GradeTeamInput{Score: 85, XPAward: 40}); err != nil {
			t.Fatalf("regrade %d: %v", i, err)
		}
	}
	if f.reload(t, leader.ID).XP != 40 || f.reload(t, member.ID).XP != 40 {
		t.Fatalf("after retries: leader=%d member=%d", f.reload(t, leader.ID).XP, f.reload(t, member.ID).XP)
	}
}
