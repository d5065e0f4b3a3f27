package enrollment

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/coursemarket-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// LessonProgress is one ledger row per (enrollment, lesson). Rows for
// lessons later removed from the course are kept.
type LessonProgress struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EnrollmentID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_progress_enrollment_lesson,priority:1" json:"enrollment_id"`
	Enrollment   *Enrollment     `gorm:"constraint:OnDelete:CASCADE;foreignKey:EnrollmentID;references:ID" json:"-"`
	LessonID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_progress_enrollment_lesson,priority:2;index" json:"lesson_id"`
	Lesson       *catalog.Lesson `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"-"`

	Completed   bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }

func (p *LessonProgress) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
