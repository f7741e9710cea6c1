package classroom

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

type AssignmentRepo interface {
	Create(dbc dbctx.Context, a *types.Assignment) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assignment, error)
	ListByClass(dbc dbctx.Context, classID uuid.UUID) ([]*types.Assignment, error)

	// UpsertSubmission writes the single submission for (assignment, student),
	// overwriting content and clearing any previous grade.
	UpsertSubmission(dbc dbctx.Context, s *types.Submission) (*types.Submission, error)
	GetSubmission(dbc dbctx.Context, id uuid.UUID) (*types.Submission, error)
	ListSubmissions(dbc dbctx.Context, assignmentID uuid.UUID) ([]*types.Submission, error)
	GetSubmissionFor(dbc dbctx.Context, assignmentID, studentID uuid.UUID) (*types.Submission, error)
	GradeSubmission(dbc dbctx.Context, id uuid.UUID, score int, feedback string, at time.Time) error
}

type assignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	return &assignmentRepo{db: db, log: baseLog.With("repo", "AssignmentRepo")}
}

func (r *assignmentRepo) Create(dbc dbctx.Context, a *types.Assignment) error {
	return dbc.DB(r.db).Create(a).Error
}

func (r *assignmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assignment, error) {
	var a types.Assignment
	err := dbc.DB(r.db).Where("id = ?", id).Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) ListByClass(dbc dbctx.Context, classID uuid.UUID) ([]*types.Assignment, error) {
	var out []*types.Assignment
	if err := dbc.DB(r.db).
		Where("class_id = ?", classID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assignmentRepo) UpsertSubmission(dbc dbctx.Context, s *types.Submission) (*types.Submission, error) {
	tx := dbc.DB(r.db)
	s.Score = nil
	s.Feedback = ""
	s.GradedAt = nil
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "assignment_id"}, {Name: "student_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"content":      s.Content,
			"link":         s.Link,
			"submitted_at": s.SubmittedAt,
			"score":        nil,
			"feedback":     "",
			"graded_at":    nil,
			"updated_at":   time.Now().UTC(),
		}),
	}).Create(s).Error
	if err != nil {
		return nil, err
	}
	// On conflict the generated id in s is not the stored one.
	return r.GetSubmissionFor(dbc, s.AssignmentID, s.StudentID)
}

func (r *assignmentRepo) GetSubmission(dbc dbctx.Context, id uuid.UUID) (*types.Submission, error) {
	return r.takeSubmission(dbc.DB(r.db).Where("id = ?", id))
}

func (r *assignmentRepo) GetSubmissionFor(dbc dbctx.Context, assignmentID, studentID uuid.UUID) (*types.Submission, error) {
	return r.takeSubmission(dbc.DB(r.db).Where("assignment_id = ? AND student_id = ?", assignmentID, studentID))
}

func (r *assignmentRepo) takeSubmission(q *gorm.DB) (*types.Submission, error) {
	var s types.Submission
	err := q.Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *assignmentRepo) ListSubmissions(dbc dbctx.Context, assignmentID uuid.UUID) ([]*types.Submission, error) {
	var out []*types.Submission
	if err := dbc.DB(r.db).
		Preload("Student").
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assignmentRepo) GradeSubmission(dbc dbctx.Context, id uuid.UUID, score int, feedback string, at time.Time) error {
	return dbc.DB(r.db).
		Model(&types.Submission{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"score":     score,
			"feedback":  feedback,
			"graded_at": at.UTC(),
		}).Error
}
