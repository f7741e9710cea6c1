package hackathon

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/levelup-backend/internal/domain/user"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TeamStatus string

const (
	StatusNotStarted TeamStatus = "not_started"
	StatusInProgress TeamStatus = "in_progress"
	StatusSubmitted  TeamStatus = "submitted"
	StatusGraded     TeamStatus = "graded"
)

// AfterSubmit is the status a team lands in when a submission is saved.
// A graded team keeps its grade; everything else becomes submitted.
func (s TeamStatus) AfterSubmit() TeamStatus {
	if s == StatusGraded {
		return StatusGraded
	}
	return StatusSubmitted
}

// AfterEdit moves a fresh team into progress and leaves later states alone.
func (s TeamStatus) AfterEdit() TeamStatus {
	if s == StatusNotStarted || s == "" {
		return StatusInProgress
	}
	return s
}

type SubmissionFile struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

type Team struct {
	ID               uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	HackathonID      uuid.UUID                          `gorm:"type:uuid;not null;index;column:hackathon_id" json:"hackathon_id"`
	Name             string                             `gorm:"not null;column:name" json:"name"`
	ProblemStatement string                             `gorm:"type:text;column:problem_statement" json:"problem_statement"`
	LeaderID         uuid.UUID                          `gorm:"type:uuid;not null;column:leader_id" json:"leader_id"`
	Status           TeamStatus                         `gorm:"not null;size:16;column:status" json:"status"`
	Score            *int                               `gorm:"column:score" json:"score,omitempty"`
	SubmissionText   string                             `gorm:"type:text;column:submission_text" json:"submission_text,omitempty"`
	SubmissionLink   string                             `gorm:"column:submission_link" json:"submission_link,omitempty"`
	Files            datatypes.JSONSlice[SubmissionFile] `gorm:"column:files" json:"files"`
	SubmittedAt      *time.Time                         `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	GradedAt         *time.Time                         `gorm:"column:graded_at" json:"graded_at,omitempty"`
	Members          []TeamMember                       `gorm:"foreignKey:TeamID;references:ID" json:"members,omitempty"`
	CreatedAt        time.Time                          `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time                          `gorm:"not null" json:"updated_at"`
}

func (Team) TableName() string { return "team" }

func (t *Team) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = StatusNotStarted
	}
	return nil
}

func (t *Team) HasMember(userID uuid.UUID) bool {
	if t == nil {
		return false
	}
	if t.LeaderID == userID {
		return true
	}
	for _, m := range t.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// TeamMember is unique per (hackathon, user): one team per student per hackathon.
type TeamMember struct {
	TeamID      uuid.UUID  `gorm:"type:uuid;primaryKey;column:team_id" json:"team_id"`
	UserID      uuid.UUID  `gorm:"type:uuid;primaryKey;uniqueIndex:idx_team_member_hackathon_user,priority:2;column:user_id" json:"user_id"`
	HackathonID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_team_member_hackathon_user,priority:1;column:hackathon_id" json:"hackathon_id"`
	User        *user.User `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	JoinedAt    time.Time  `gorm:"not null;column:joined_at" json:"joined_at"`
}

func (TeamMember) TableName() string { return "team_member" }
