package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/data/repos"
	types "github.com/yungbote/levelup-backend/internal/domain"
	domainagg "github.com/yungbote/levelup-backend/internal/domain/aggregates"
	"github.com/yungbote/levelup-backend/internal/domain/classroom"
	"github.com/yungbote/levelup-backend/internal/domain/gamification"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/apierr"
	"github.com/yungbote/levelup-backend/internal/platform/ctxutil"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

// Ambiguous glyphs (0/O, 1/I/L) are left out of join codes.
const joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const joinCodeAttempts = 8

type CreateAssignmentInput struct {
	ClassID     uuid.UUID
	Title       string
	Description string
	MaxScore    int
	XPReward    int
	DueAt       *time.Time
}

type SubmitAssignmentInput struct {
	AssignmentID uuid.UUID
	Content      string
	Link         string
}

type GradeSubmissionInput struct {
	SubmissionID uuid.UUID
	Score        int
	Feedback     string
	// XPAward overrides the assignment's xp reward when set.
	XPAward *int
}

type ClassroomService interface {
	CreateClass(ctx context.Context, name, description string) (*types.Class, error)
	ListClasses(ctx context.Context) ([]*types.Class, error)
	Roster(ctx context.Context, classID uuid.UUID) ([]*types.ClassMember, error)
	DeleteClass(ctx context.Context, classID uuid.UUID) error
	JoinClass(ctx context.Context, code string) (*types.Class, bool, error)
	// RequireMember fails unless the caller owns or belongs to the class.
	RequireMember(ctx context.Context, classID uuid.UUID) error

	CreateAssignment(ctx context.Context, in CreateAssignmentInput) (*types.Assignment, error)
	ListAssignments(ctx context.Context, classID uuid.UUID) ([]*types.Assignment, error)
	Submit(ctx context.Context, in SubmitAssignmentInput) (*types.Submission, error)
	ListSubmissions(ctx context.Context, assignmentID uuid.UUID) ([]*types.Submission, error)
	Grade(ctx context.Context, in GradeSubmissionInput) (*types.Submission, error)
}

type classroomService struct {
	log         *logger.Logger
	classes     repos.ClassRepo
	assignments repos.AssignmentRepo
	ledger      LedgerService
	notifier    ClassroomNotifier
	now         func() time.Time
	newCode     func() (string, error)
}

func NewClassroomService(
	log *logger.Logger,
	classes repos.ClassRepo,
	assignments repos.AssignmentRepo,
	ledger LedgerService,
	notifier ClassroomNotifier,
) ClassroomService {
	return &classroomService{
		log:         log.With("service", "ClassroomService"),
		classes:     classes,
		assignments: assignments,
		ledger:      ledger,
		notifier:    notifier,
		now:         func() time.Time { return time.Now().UTC() },
		newCode:     generateJoinCode,
	}
}

func generateJoinCode() (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := 0; i < classroom.JoinCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(joinCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

func (s *classroomService) CreateClass(ctx context.Context, name, description string) (*types.Class, error) {
	rd, err := requireTeacher(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierr.BadRequest("missing_name", "class name is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	code, err := s.uniqueJoinCode(dbc)
	if err != nil {
		return nil, err
	}
	class := &types.Class{
		TeacherID:   rd.UserID,
		Name:        name,
		Description: strings.TrimSpace(description),
		JoinCode:    code,
	}
	if err := s.classes.Create(dbc, class); err != nil {
		return nil, fmt.Errorf("create class: %w", err)
	}
	s.log.Info("class created", "class_id", class.ID, "teacher_id", rd.UserID)
	return class, nil
}

func (s *classroomService) uniqueJoinCode(dbc dbctx.Context) (string, error) {
	for i := 0; i < joinCodeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", fmt.Errorf("generate join code: %w", err)
		}
		taken, err := s.classes.JoinCodeExists(dbc, code)
		if err != nil {
			return "", fmt.Errorf("check join code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", apierr.Conflict("join_code_exhausted", "could not allocate a unique join code")
}

func (s *classroomService) ListClasses(ctx context.Context) ([]*types.Class, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	var out []*types.Class
	if rd.Role == string(types.RoleTeacher) {
		out, err = s.classes.ListByTeacher(dbc, rd.UserID)
	} else {
		out, err = s.classes.ListByMember(dbc, rd.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return out, nil
}

// ownedClass loads a class the calling teacher owns.
func (s *classroomService) ownedClass(ctx context.Context, classID uuid.UUID) (*types.Class, *ctxutil.RequestData, error) {
	rd, err := requireTeacher(ctx)
	if err != nil {
		return nil, nil, err
	}
	class, err := s.classes.GetByID(dbctx.Context{Ctx: ctx}, classID)
	if err != nil {
		return nil, nil, fmt.Errorf("load class: %w", err)
	}
	if class == nil {
		return nil, nil, apierr.NotFound("class_not_found", "class not found")
	}
	if class.TeacherID != rd.UserID {
		return nil, nil, apierr.Forbidden("you do not own this class")
	}
	return class, rd, nil
}

func (s *classroomService) Roster(ctx context.Context, classID uuid.UUID) ([]*types.ClassMember, error) {
	if _, _, err := s.ownedClass(ctx, classID); err != nil {
		return nil, err
	}
	out, err := s.classes.ListMembers(dbctx.Context{Ctx: ctx}, classID)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return out, nil
}

func (s *classroomService) DeleteClass(ctx context.Context, classID uuid.UUID) error {
	if _, _, err := s.ownedClass(ctx, classID); err != nil {
		return err
	}
	if err := s.classes.Delete(dbctx.Context{Ctx: ctx}, classID); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}

func (s *classroomService) JoinClass(ctx context.Context, code string) (*types.Class, bool, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, false, err
	}
	if rd.Role == string(types.RoleTeacher) {
		return nil, false, apierr.Forbidden("teachers cannot join classes")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, false, apierr.BadRequest("missing_join_code", "join code is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	class, err := s.classes.GetByJoinCode(dbc, code)
	if err != nil {
		return nil, false, fmt.Errorf("load class: %w", err)
	}
	if class == nil {
		return nil, false, apierr.NotFound("class_not_found", "no class with that join code")
	}
	added, err := s.classes.AddMember(dbc, class.ID, rd.UserID, s.now())
	if err != nil {
		return nil, false, fmt.Errorf("join class: %w", err)
	}
	return class, added, nil
}

func (s *classroomService) CreateAssignment(ctx context.Context, in CreateAssignmentInput) (*types.Assignment, error) {
	if _, _, err := s.ownedClass(ctx, in.ClassID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apierr.BadRequest("missing_title", "assignment title is required")
	}
	if in.MaxScore <= 0 {
		return nil, apierr.BadRequest("invalid_max_score", "max_score must be positive")
	}
	if in.XPReward < 0 {
		return nil, apierr.BadRequest("invalid_xp_reward", "xp_reward must not be negative")
	}
	a := &types.Assignment{
		ClassID:     in.ClassID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		MaxScore:    in.MaxScore,
		XPReward:    in.XPReward,
		DueAt:       in.DueAt,
	}
	if err := s.assignments.Create(dbctx.Context{Ctx: ctx}, a); err != nil {
		return nil, fmt.Errorf("create assignment: %w", err)
	}
	return a, nil
}

// requireClassMember admits the owning teacher and enrolled students.
func (s *classroomService) RequireMember(ctx context.Context, classID uuid.UUID) error {
	_, err := s.requireClassMember(ctx, classID)
	return err
}

func (s *classroomService) requireClassMember(ctx context.Context, classID uuid.UUID) (*ctxutil.RequestData, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	class, err := s.classes.GetByID(dbc, classID)
	if err != nil {
		return nil, fmt.Errorf("load class: %w", err)
	}
	if class == nil {
		return nil, apierr.NotFound("class_not_found", "class not found")
	}
	if class.TeacherID == rd.UserID {
		return rd, nil
	}
	member, err := s.classes.IsMember(dbc, classID, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return nil, apierr.Forbidden("not a member of this class")
	}
	return rd, nil
}

func (s *classroomService) ListAssignments(ctx context.Context, classID uuid.UUID) ([]*types.Assignment, error) {
	if _, err := s.requireClassMember(ctx, classID); err != nil {
		return nil, err
	}
	out, err := s.assignments.ListByClass(dbctx.Context{Ctx: ctx}, classID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return out, nil
}

func (s *classroomService) loadAssignment(ctx context.Context, id uuid.UUID) (*types.Assignment, error) {
	a, err := s.assignments.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("load assignment: %w", err)
	}
	if a == nil {
		return nil, apierr.NotFound("assignment_not_found", "assignment not found")
	}
	return a, nil
}

func (s *classroomService) Submit(ctx context.Context, in SubmitAssignmentInput) (*types.Submission, error) {
	a, err := s.loadAssignment(ctx, in.AssignmentID)
	if err != nil {
		return nil, err
	}
	rd, err := s.requireClassMember(ctx, a.ClassID)
	if err != nil {
		return nil, err
	}
	if rd.Role == string(types.RoleTeacher) {
		return nil, apierr.Forbidden("only students submit assignments")
	}
	content, link := strings.TrimSpace(in.Content), strings.TrimSpace(in.Link)
	if content == "" && link == "" {
		return nil, apierr.BadRequest("empty_submission", "content or link is required")
	}
	sub, err := s.assignments.UpsertSubmission(dbctx.Context{Ctx: ctx}, &types.Submission{
		AssignmentID: a.ID,
		StudentID:    rd.UserID,
		Content:      content,
		Link:         link,
		SubmittedAt:  s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("save submission: %w", err)
	}
	return sub, nil
}

func (s *classroomService) ListSubmissions(ctx context.Context, assignmentID uuid.UUID) ([]*types.Submission, error) {
	a, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.ownedClass(ctx, a.ClassID); err != nil {
		return nil, err
	}
	out, err := s.assignments.ListSubmissions(dbctx.Context{Ctx: ctx}, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return out, nil
}

// Grade records the score and credits xp at most once per submission. The
// payout is keyed on the submission id, so neither regrading nor a
// resubmit-then-grade cycle pays again.
func (s *classroomService) Grade(ctx context.Context, in GradeSubmissionInput) (*types.Submission, error) {
	dbc := dbctx.Context{Ctx: ctx}
	sub, err := s.assignments.GetSubmission(dbc, in.SubmissionID)
	if err != nil {
		return nil, fmt.Errorf("load submission: %w", err)
	}
	if sub == nil {
		return nil, apierr.NotFound("submission_not_found", "submission not found")
	}
	a, err := s.loadAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return nil, err
	}
	_, rd, err := s.ownedClass(ctx, a.ClassID)
	if err != nil {
		return nil, err
	}
	if in.Score < 0 || in.Score > a.MaxScore {
		return nil, apierr.BadRequest("invalid_score", fmt.Sprintf("score must be between 0 and %d", a.MaxScore))
	}
	xp := a.XPReward
	if in.XPAward != nil {
		xp = *in.XPAward
	}
	if xp < 0 {
		return nil, apierr.BadRequest("invalid_xp_award", "xp award must not be negative")
	}
	if err := s.assignments.GradeSubmission(dbc, sub.ID, in.Score, strings.TrimSpace(in.Feedback), s.now()); err != nil {
		return nil, fmt.Errorf("grade submission: %w", err)
	}
	if xp > 0 {
		actor := rd.UserID
		if _, err := s.ledger.Apply(ctx, domainagg.ApplyDeltaInput{
			UserID:         sub.StudentID,
			XPDelta:        xp,
			Kind:           gamification.KindGrade,
			Reason:         "graded: " + a.Title,
			ActorID:        &actor,
			Metadata:       map[string]any{"assignment_id": a.ID.String(), "score": in.Score},
			IdempotencyKey: "grade:" + sub.ID.String(),
		}); err != nil {
			return nil, apierr.FromAggregate(err)
		}
	}

	graded, err := s.assignments.GetSubmission(dbc, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("reload submission: %w", err)
	}
	s.notifier.SubmissionGraded(sub.StudentID, graded)
	return graded, nil
}
