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

type ClassRepo interface {
	Create(dbc dbctx.Context, class *types.Class) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Class, error)
	GetByJoinCode(dbc dbctx.Context, code string) (*types.Class, error)
	JoinCodeExists(dbc dbctx.Context, code string) (bool, error)
	ListByTeacher(dbc dbctx.Context, teacherID uuid.UUID) ([]*types.Class, error)
	ListByMember(dbc dbctx.Context, userID uuid.UUID) ([]*types.Class, error)
	// Delete removes the class together with members, assignments and submissions.
	Delete(dbc dbctx.Context, id uuid.UUID) error

	AddMember(dbc dbctx.Context, classID, userID uuid.UUID, at time.Time) (bool, error)
	ListMembers(dbc dbctx.Context, classID uuid.UUID) ([]*types.ClassMember, error)
	IsMember(dbc dbctx.Context, classID, userID uuid.UUID) (bool, error)
	// TeacherHasStudent reports whether studentID is enrolled in any class owned by teacherID.
	TeacherHasStudent(dbc dbctx.Context, teacherID, studentID uuid.UUID) (bool, error)
}

type classRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClassRepo(db *gorm.DB, baseLog *logger.Logger) ClassRepo {
	return &classRepo{db: db, log: baseLog.With("repo", "ClassRepo")}
}

func (r *classRepo) Create(dbc dbctx.Context, class *types.Class) error {
	return dbc.DB(r.db).Create(class).Error
}

func (r *classRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Class, error) {
	return r.takeOne(dbc.DB(r.db).Where("id = ?", id))
}

func (r *classRepo) GetByJoinCode(dbc dbctx.Context, code string) (*types.Class, error) {
	return r.takeOne(dbc.DB(r.db).Where("join_code = ?", code))
}

func (r *classRepo) takeOne(q *gorm.DB) (*types.Class, error) {
	var c types.Class
	err := q.Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *classRepo) JoinCodeExists(dbc dbctx.Context, code string) (bool, error) {
	var n int64
	// Unscoped: soft-deleted classes still hold their code in the unique index.
	err := dbc.DB(r.db).Unscoped().Model(&types.Class{}).Where("join_code = ?", code).Count(&n).Error
	return n > 0, err
}

func (r *classRepo) ListByTeacher(dbc dbctx.Context, teacherID uuid.UUID) ([]*types.Class, error) {
	var out []*types.Class
	if err := dbc.DB(r.db).
		Where("teacher_id = ?", teacherID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *classRepo) ListByMember(dbc dbctx.Context, userID uuid.UUID) ([]*types.Class, error) {
	var out []*types.Class
	if err := dbc.DB(r.db).
		Joins("JOIN class_member ON class_member.class_id = classroom.id AND class_member.user_id = ?", userID).
		Order("classroom.created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *classRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	tx := dbc.DB(r.db)
	assignmentIDs := tx.Model(&types.Assignment{}).Select("id").Where("class_id = ?", id)
	if err := tx.Where("assignment_id IN (?)", assignmentIDs).Delete(&types.Submission{}).Error; err != nil {
		return err
	}
	if err := tx.Where("class_id = ?", id).Delete(&types.Assignment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("class_id = ?", id).Delete(&types.ClassMember{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&types.Class{}).Error
}

func (r *classRepo) AddMember(dbc dbctx.Context, classID, userID uuid.UUID, at time.Time) (bool, error) {
	res := dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "class_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&types.ClassMember{ClassID: classID, UserID: userID, JoinedAt: at.UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *classRepo) ListMembers(dbc dbctx.Context, classID uuid.UUID) ([]*types.ClassMember, error) {
	var out []*types.ClassMember
	if err := dbc.DB(r.db).
		Preload("User").
		Where("class_id = ?", classID).
		Order("joined_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *classRepo) IsMember(dbc dbctx.Context, classID, userID uuid.UUID) (bool, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.ClassMember{}).
		Where("class_id = ? AND user_id = ?", classID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *classRepo) TeacherHasStudent(dbc dbctx.Context, teacherID, studentID uuid.UUID) (bool, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.ClassMember{}).
		Joins("JOIN classroom ON classroom.id = class_member.class_id AND classroom.deleted_at IS NULL").
		Where("classroom.teacher_id = ? AND class_member.user_id = ?", teacherID, studentID).
		Count(&n).Error
	return n > 0, err
}
