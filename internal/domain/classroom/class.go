package classroom

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/levelup-backend/internal/domain/user"
	"gorm.io/gorm"
)

// JoinCodeLength is the number of characters in a class join code.
const JoinCodeLength = 6

type Class struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TeacherID   uuid.UUID      `gorm:"type:uuid;not null;index;column:teacher_id" json:"teacher_id"`
	Teacher     *user.User     `gorm:"foreignKey:TeacherID;references:ID" json:"teacher,omitempty"`
	Name        string         `gorm:"not null;column:name" json:"name"`
	Description string         `gorm:"column:description" json:"description"`
	JoinCode    string         `gorm:"uniqueIndex;not null;size:16;column:join_code" json:"join_code"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Class) TableName() string { return "classroom" }

func (c *Class) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type ClassMember struct {
	ClassID  uuid.UUID  `gorm:"type:uuid;primaryKey;column:class_id" json:"class_id"`
	UserID   uuid.UUID  `gorm:"type:uuid;primaryKey;index;column:user_id" json:"user_id"`
	User     *user.User `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	JoinedAt time.Time  `gorm:"not null;column:joined_at" json:"joined_at"`
}

func (ClassMember) TableName() string { return "class_member" }
