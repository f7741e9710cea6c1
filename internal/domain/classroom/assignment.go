package classroom

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/levelup-backend/internal/domain/user"
	"gorm.io/gorm"
)

type Assignment struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ClassID     uuid.UUID      `gorm:"type:uuid;not null;index;column:class_id" json:"class_id"`
	Title       string         `gorm:"not null;column:title" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	MaxScore    int            `gorm:"not null;column:max_score" json:"max_score"`
	XPReward    int            `gorm:"not null;column:xp_reward" json:"xp_reward"`
	DueAt       *time.Time     `gorm:"column:due_at" json:"due_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Assignment) TableName() string { return "assignment" }

func (a *Assignment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Submission is unique per (assignment, student). Resubmitting overwrites
// content and clears any grade.
type Submission struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_submission_assignment_student,priority:1;column:assignment_id" json:"assignment_id"`
	StudentID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_submission_assignment_student,priority:2;column:student_id" json:"student_id"`
	Student      *user.User `gorm:"foreignKey:StudentID;references:ID" json:"student,omitempty"`
	Content      string     `gorm:"type:text;column:content" json:"content"`
	Link         string     `gorm:"column:link" json:"link,omitempty"`
	Score        *int       `gorm:"column:score" json:"score,omitempty"`
	Feedback     string     `gorm:"column:feedback" json:"feedback,omitempty"`
	GradedAt     *time.Time `gorm:"column:graded_at" json:"graded_at,omitempty"`
	SubmittedAt  time.Time  `gorm:"not null;column:submitted_at" json:"submitted_at"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

func (Submission) TableName() string { return "assignment_submission" }

func (s *Submission) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
