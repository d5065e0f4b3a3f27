package enrollment

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/coursemarket-backend/internal/domain/catalog"
	"github.com/yungbote/coursemarket-backend/internal/domain/user"
	"gorm.io/gorm"
)

type State string

const (
	StateActive    State = "active"
	StateCompleted State = "completed"
)

// Enrollment is unique per (user, course). Progress, IsCompleted and
// CompletedAt are derived from the lesson_progress ledger and are only
// written by the reconciler.
type Enrollment struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course,priority:1" json:"user_id"`
	User     *user.User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	CourseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course,priority:2;index" json:"course_id"`
	Course   *catalog.Course `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`

	Progress    int        `gorm:"column:progress;not null;default:0" json:"progress"`
	IsCompleted bool       `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	EnrolledAt  time.Time  `gorm:"column:enrolled_at;not null;autoCreateTime" json:"enrolled_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }

func (e *Enrollment) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// State reports the lifecycle state. COMPLETED requires the stored
// completion flag; progress alone is not enough for an empty course.
func (e *Enrollment) State() State {
	if e != nil && e.IsCompleted {
		return StateCompleted
	}
	return StateActive
}
