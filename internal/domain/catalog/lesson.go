package catalog

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lesson belongs to exactly one course. Order is unique per course and
// lessons sort by (Order, ID).
type Lesson struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_course_order,priority:1,where:deleted_at IS NULL" json:"course_id"`
	Course     *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"-"`
	Order      int       `gorm:"column:order_index;not null;uniqueIndex:idx_lesson_course_order,priority:2,where:deleted_at IS NULL" json:"order"`
	Title      string    `gorm:"column:title;not null" json:"title"`
	ContentRef string    `gorm:"column:content_ref" json:"content_ref,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// SortLessons orders lessons in place by (Order, ID).
func SortLessons(lessons []*Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		if lessons[i].Order != lessons[j].Order {
			return lessons[i].Order < lessons[j].Order
		}
		return lessons[i].ID.String() < lessons[j].ID.String()
	})
}
