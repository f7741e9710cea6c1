package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/data/repos"
	types "github.com/yungbote/levelup-backend/internal/domain"
	domainagg "github.com/yungbote/levelup-backend/internal/domain/aggregates"
	"github.com/yungbote/levelup-backend/internal/domain/gamification"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/apierr"
	"github.com/yungbote/levelup-backend/internal/platform/gcp"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

const maxSubmissionFiles = 10

type CreateHackathonInput struct {
	ClassID     *uuid.UUID
	Title       string
	Description string
	MinTeamSize int
	MaxTeamSize int
	StartsAt    *time.Time
	EndsAt      *time.Time
}

type CreateTeamInput struct {
	Name             string
	ProblemStatement string
	Members          []UserRef
}

type UpdateTeamInput struct {
	Name             *string
	ProblemStatement *string
}

type TeamSubmissionInput struct {
	Text *string
	Link *string
}

type UploadedFile struct {
	Name string
	Size int64
	Body io.Reader
}

type GradeTeamInput struct {
	Score int
	// XPAward is credited to every member; zero skips the payout.
	XPAward int
}

type HackathonService interface {
	CreateHackathon(ctx context.Context, in CreateHackathonInput) (*types.Hackathon, error)
	ListHackathons(ctx context.Context) ([]*types.Hackathon, error)
	GetHackathon(ctx context.Context, id uuid.UUID) (*types.Hackathon, error)

	CreateTeam(ctx context.Context, hackathonID uuid.UUID, in CreateTeamInput) (*types.Team, error)
	ListTeams(ctx context.Context, hackathonID uuid.UUID) ([]*types.Team, error)
	MyTeam(ctx context.Context, hackathonID uuid.UUID) (*types.Team, error)
	UpdateTeam(ctx context.Context, hackathonID, teamID uuid.UUID, in UpdateTeamInput) (*types.Team, error)
	DeleteTeam(ctx context.Context, hackathonID, teamID uuid.UUID) error
	SubmitTeam(ctx context.Context, hackathonID, teamID uuid.UUID, in TeamSubmissionInput) (*types.Team, error)
	UploadFiles(ctx context.Context, hackathonID, teamID uuid.UUID, files []UploadedFile) (*types.Team, error)
	GradeTeam(ctx context.Context, hackathonID, teamID uuid.UUID, in GradeTeamInput) (*types.Team, error)
}

type hackathonService struct {
	log        *logger.Logger
	users      repos.UserRepo
	classes    repos.ClassRepo
	hackathons repos.HackathonRepo
	teamRepo   repos.TeamRepo
	teams      domainagg.TeamAggregate
	ledger     LedgerService
	bucket     gcp.BucketService
	notifier   ClassroomNotifier
	now        func() time.Time
}

type HackathonServiceDeps struct {
	Users      repos.UserRepo
	Classes    repos.ClassRepo
	Hackathons repos.HackathonRepo
	TeamRepo   repos.TeamRepo
	Teams      domainagg.TeamAggregate
	Ledger     LedgerService
	Bucket     gcp.BucketService
	Notifier   ClassroomNotifier
}

func NewHackathonService(log *logger.Logger, deps HackathonServiceDeps) HackathonService {
	return &hackathonService{
		log:        log.With("service", "HackathonService"),
		users:      deps.Users,
		classes:    deps.Classes,
		hackathons: deps.Hackathons,
		teamRepo:   deps.TeamRepo,
		teams:      deps.Teams,
		ledger:     deps.Ledger,
		bucket:     deps.Bucket,
		notifier:   deps.Notifier,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *hackathonService) CreateHackathon(ctx context.Context, in CreateHackathonInput) (*types.Hackathon, error) {
	rd, err := requireTeacher(ctx)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apierr.BadRequest("missing_title", "hackathon title is required")
	}
	if in.MinTeamSize < 1 || in.MaxTeamSize < in.MinTeamSize {
		return nil, apierr.BadRequest("invalid_team_size", "team sizes must satisfy 1 <= min <= max")
	}
	if in.StartsAt != nil && in.EndsAt != nil && in.EndsAt.Before(*in.StartsAt) {
		return nil, apierr.BadRequest("invalid_schedule", "ends_at must not be before starts_at")
	}
	dbc := dbctx.Context{Ctx: ctx}
	if in.ClassID != nil && *in.ClassID != uuid.Nil {
		class, err := s.classes.GetByID(dbc, *in.ClassID)
		if err != nil {
			return nil, fmt.Errorf("load class: %w", err)
		}
		if class == nil {
			return nil, apierr.NotFound("class_not_found", "class not found")
		}
		if class.TeacherID != rd.UserID {
			return nil, apierr.Forbidden("you do not own this class")
		}
	} else {
		in.ClassID = nil
	}
	h := &types.Hackathon{
		CreatorID:   rd.UserID,
		ClassID:     in.ClassID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		MinTeamSize: in.MinTeamSize,
		MaxTeamSize: in.MaxTeamSize,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
	}
	if err := s.hackathons.Create(dbc, h); err != nil {
		return nil, fmt.Errorf("create hackathon: %w", err)
	}
	s.log.Info("hackathon created", "hackathon_id", h.ID, "creator_id", rd.UserID)
	return h, nil
}

func (s *hackathonService) ListHackathons(ctx context.Context) ([]*types.Hackathon, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	var (
		classIDs []uuid.UUID
		creator  *uuid.UUID
	)
	if rd.Role == string(types.RoleTeacher) {
		id := rd.UserID
		creator = &id
	} else {
		classes, err := s.classes.ListByMember(dbc, rd.UserID)
		if err != nil {
			return nil, fmt.Errorf("list classes: %w", err)
		}
		for _, c := range classes {
			classIDs = append(classIDs, c.ID)
		}
	}
	out, err := s.hackathons.List(dbc, classIDs, creator)
	if err != nil {
		return nil, fmt.Errorf("list hackathons: %w", err)
	}
	return out, nil
}

func (s *hackathonService) GetHackathon(ctx context.Context, id uuid.UUID) (*types.Hackathon, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	return s.loadHackathon(ctx, rd.UserID, id)
}

// loadHackathon answers not found both for missing hackathons and for
// class-scoped ones the viewer cannot see.
func (s *hackathonService) loadHackathon(ctx context.Context, viewerID, id uuid.UUID) (*types.Hackathon, error) {
	dbc := dbctx.Context{Ctx: ctx}
	h, err := s.hackathons.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load hackathon: %w", err)
	}
	if h == nil {
		return nil, apierr.NotFound("hackathon_not_found", "hackathon not found")
	}
	ok, err := s.visibleTo(dbc, h, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierr.NotFound("hackathon_not_found", "hackathon not found")
	}
	return h, nil
}

// visibleTo mirrors ListHackathons: hackathons without a class are open to
// everyone, class-scoped ones to the creator, the class owner and members.
func (s *hackathonService) visibleTo(dbc dbctx.Context, h *types.Hackathon, userID uuid.UUID) (bool, error) {
	if h.ClassID == nil || h.CreatorID == userID {
		return true, nil
	}
	class, err := s.classes.GetByID(dbc, *h.ClassID)
	if err != nil {
		return false, fmt.Errorf("load class: %w", err)
	}
	if class == nil {
		return false, nil
	}
	if class.TeacherID == userID {
		return true, nil
	}
	ok, err := s.classes.IsMember(dbc, class.ID, userID)
	if err != nil {
		return false, fmt.Errorf("check class membership: %w", err)
	}
	return ok, nil
}

// loadTeam returns the team with members, scoped to its hackathon.
func (s *hackathonService) loadTeam(ctx context.Context, hackathonID, teamID uuid.UUID) (*types.Team, error) {
	team, err := s.teamRepo.GetByID(dbctx.Context{Ctx: ctx}, teamID)
	if err != nil {
		return nil, fmt.Errorf("load team: %w", err)
	}
	if team == nil || team.HackathonID != hackathonID {
		return nil, apierr.NotFound("team_not_found", "team not found")
	}
	return team, nil
}

func (s *hackathonService) CreateTeam(ctx context.Context, hackathonID uuid.UUID, in CreateTeamInput) (*types.Team, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	h, err := s.loadHackathon(ctx, rd.UserID, hackathonID)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	memberIDs := make([]uuid.UUID, 0, len(in.Members))
	for _, ref := range in.Members {
		if ref.empty() {
			continue
		}
		u, err := resolveUser(dbc, s.users, ref)
		if err != nil {
			return nil, err
		}
		ok, err := s.visibleTo(dbc, h, u.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apierr.BadRequest("member_not_eligible", fmt.Sprintf("%s is not in this hackathon's class", u.Email))
		}
		memberIDs = append(memberIDs, u.ID)
	}
	created, err := s.teams.CreateTeam(ctx, domainagg.CreateTeamInput{
		HackathonID:      hackathonID,
		LeaderID:         rd.UserID,
		MemberIDs:        memberIDs,
		Name:             in.Name,
		ProblemStatement: in.ProblemStatement,
		At:               s.now(),
	})
	if err != nil {
		return nil, apierr.FromAggregate(err)
	}
	return s.reloadAndNotify(ctx, hackathonID, created.ID)
}

func (s *hackathonService) reloadAndNotify(ctx context.Context, hackathonID, teamID uuid.UUID) (*types.Team, error) {
	team, err := s.loadTeam(ctx, hackathonID, teamID)
	if err != nil {
		return nil, err
	}
	s.notifier.TeamUpdated(hackathonID, team)
	return team, nil
}

func (s *hackathonService) ListTeams(ctx context.Context, hackathonID uuid.UUID) ([]*types.Team, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadHackathon(ctx, rd.UserID, hackathonID); err != nil {
		return nil, err
	}
	out, err := s.teamRepo.ListByHackathon(dbctx.Context{Ctx: ctx}, hackathonID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return out, nil
}

func (s *hackathonService) MyTeam(ctx context.Context, hackathonID uuid.UUID) (*types.Team, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadHackathon(ctx, rd.UserID, hackathonID); err != nil {
		return nil, err
	}
	team, err := s.teamRepo.GetForUser(dbctx.Context{Ctx: ctx}, hackathonID, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("load team: %w", err)
	}
	if team == nil {
		return nil, apierr.NotFound("team_not_found", "you are not on a team in this hackathon")
	}
	return team, nil
}

func (s *hackathonService) UpdateTeam(ctx context.Context, hackathonID, teamID uuid.UUID, in UpdateTeamInput) (*types.Team, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadTeam(ctx, hackathonID, teamID); err != nil {
		return nil, err
	}
	if _, err := s.teams.UpdateTeam(ctx, domainagg.UpdateTeamInput{
		TeamID:           teamID,
		ActorID:          rd.UserID,
		Name:             in.Name,
		ProblemStatement: in.ProblemStatement,
	}); err != nil {
		return nil, apierr.FromAggregate(err)
	}
	return s.reloadAndNotify(ctx, hackathonID, teamID)
}

func (s *hackathonService) DeleteTeam(ctx context.Context, hackathonID, teamID uuid.UUID) error {
	rd, err := requireCaller(ctx)
	if err != nil {
		return err
	}
	team, err := s.loadTeam(ctx, hackathonID, teamID)
	if err != nil {
		return err
	}
	if err := s.teams.DeleteTeam(ctx, domainagg.DeleteTeamInput{TeamID: teamID, ActorID: rd.UserID}); err != nil {
		return apierr.FromAggregate(err)
	}
	team.Members = nil
	s.notifier.TeamUpdated(hackathonID, team)
	return nil
}

func (s *hackathonService) SubmitTeam(ctx context.Context, hackathonID, teamID uuid.UUID, in TeamSubmissionInput) (*types.Team, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadTeam(ctx, hackathonID, teamID); err != nil {
		return nil, err
	}
	if _, err := s.teams.Submit(ctx, domainagg.SubmitTeamInput{
		TeamID:  teamID,
		ActorID: rd.UserID,
		Text:    in.Text,
		Link:    in.Link,
		At:      s.now(),
	}); err != nil {
		return nil, apierr.FromAggregate(err)
	}
	return s.reloadAndNotify(ctx, hackathonID, teamID)
}

// UploadFiles stores the files and appends them to the team's submission
// as a draft; the team status only moves on SubmitTeam.
func (s *hackathonService) UploadFiles(ctx context.Context, hackathonID, teamID uuid.UUID, files []UploadedFile) (*types.Team, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apierr.BadRequest("missing_files", "at least one file is required")
	}
	if len(files) > maxSubmissionFiles {
		return nil, apierr.BadRequest("too_many_files", fmt.Sprintf("at most %d files per upload", maxSubmissionFiles))
	}
	team, err := s.loadTeam(ctx, hackathonID, teamID)
	if err != nil {
		return nil, err
	}
	if !team.HasMember(rd.UserID) {
		return nil, apierr.Forbidden("only team members can upload files")
	}
	if s.bucket == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "storage_unavailable", fmt.Errorf("object storage is not configured"))
	}

	stored := make([]types.SubmissionFile, 0, len(files))
	for _, f := range files {
		name := path.Base(strings.TrimSpace(f.Name))
		if name == "" || name == "." || name == "/" {
			return nil, apierr.BadRequest("invalid_file_name", "file name is required")
		}
		key := fmt.Sprintf("hackathon/%s/team/%s/%d_%s", hackathonID, teamID, s.now().UnixNano(), name)
		obj, err := s.bucket.UploadFile(ctx, gcp.BucketCategorySubmission, key, f.Body)
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", name, err)
		}
		size := f.Size
		if obj.Size > 0 {
			size = obj.Size
		}
		stored = append(stored, types.SubmissionFile{Name: name, Key: obj.Key, URL: obj.URL, Size: size})
	}

	if _, err := s.teams.Submit(ctx, domainagg.SubmitTeamInput{
		TeamID:  teamID,
		ActorID: rd.UserID,
		Files:   stored,
		Draft:   true,
		At:      s.now(),
	}); err != nil {
		s.discard(ctx, stored)
		return nil, apierr.FromAggregate(err)
	}
	return s.reloadAndNotify(ctx, hackathonID, teamID)
}

func (s *hackathonService) discard(ctx context.Context, files []types.SubmissionFile) {
	for _, f := range files {
		if err := s.bucket.DeleteFile(ctx, gcp.BucketCategorySubmission, f.Key); err != nil {
			s.log.Warn("failed to delete orphaned upload (ignored)", "key", f.Key, "error", err)
		}
	}
}

// GradeTeam scores the team and pays XPAward to each member. Every payout is
// keyed on (team, member), so regrading, a concurrent grade or a retry after
// a partial failure never pays a member twice.
func (s *hackathonService) GradeTeam(ctx context.Context, hackathonID, teamID uuid.UUID, in GradeTeamInput) (*types.Team, error) {
	rd, err := requireTeacher(ctx)
	if err != nil {
		return nil, err
	}
	if in.XPAward < 0 {
		return nil, apierr.BadRequest("invalid_xp_award", "xpAward must not be negative")
	}
	h, err := s.loadHackathon(ctx, rd.UserID, hackathonID)
	if err != nil {
		return nil, err
	}
	team, err := s.loadTeam(ctx, hackathonID, teamID)
	if err != nil {
		return nil, err
	}
	if _, err := s.teams.Grade(ctx, domainagg.GradeTeamInput{
		TeamID:  teamID,
		ActorID: rd.UserID,
		Score:   in.Score,
		At:      s.now(),
	}); err != nil {
		return nil, apierr.FromAggregate(err)
	}

	if in.XPAward > 0 {
		actor := rd.UserID
		for _, memberID := range teamMemberIDs(team) {
			if _, err := s.ledger.Apply(ctx, domainagg.ApplyDeltaInput{
				UserID:         memberID,
				XPDelta:        in.XPAward,
				Kind:           gamification.KindHackathon,
				Reason:         "hackathon: " + h.Title,
				ActorID:        &actor,
				Metadata:       map[string]any{"hackathon_id": h.ID.String(), "team_id": teamID.String(), "score": in.Score},
				IdempotencyKey: hackathonPayoutKey(teamID, memberID),
			}); err != nil {
				s.log.Error("hackathon xp award failed", "user_id", memberID, "team_id", teamID, "error", err)
				return nil, apierr.FromAggregate(err)
			}
		}
	}
	return s.reloadAndNotify(ctx, hackathonID, teamID)
}

func hackathonPayoutKey(teamID, memberID uuid.UUID) string {
	return "hackathon:" + teamID.String() + ":" + memberID.String()
}

func teamMemberIDs(team *types.Team) []uuid.UUID {
	seen := map[uuid.UUID]bool{team.LeaderID: true}
	out := []uuid.UUID{team.LeaderID}
	for _, m := range team.Members {
		if !seen[m.UserID] {
			seen[m.UserID] = true
			out = append(out, m.UserID)
		}
	}
	return out
}
