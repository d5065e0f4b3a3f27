package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/coursemarket-backend/internal/domain/user"
	"gorm.io/gorm"
)

const (
	CourseStatusDraft     = "draft"
	CourseStatusPublished = "published"
)

type Course struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	InstructorID uuid.UUID  `gorm:"type:uuid;not null;index" json:"instructor_id"`
	Instructor   *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:InstructorID;references:ID" json:"-"`
	Title        string     `gorm:"column:title;not null" json:"title"`
	Slug         string     `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Status       string     `gorm:"column:status;not null;default:'draft';index" json:"status"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Course) IsPublished() bool { return c != nil && c.Status == CourseStatusPublished }
