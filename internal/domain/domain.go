package domain

import (
	"github.com/yungbote/coursemarket-backend/internal/domain/catalog"
	"github.com/yungbote/coursemarket-backend/internal/domain/enrollment"
	"github.com/yungbote/coursemarket-backend/internal/domain/user"
)

const (
	RoleStudent    = user.RoleStudent
	RoleInstructor = user.RoleInstructor

	CourseStatusDraft     = catalog.CourseStatusDraft
	CourseStatusPublished = catalog.CourseStatusPublished

	CertificateCodePrefix = enrollment.CertificateCodePrefix

	EnrollmentStateActive    = enrollment.StateActive
	EnrollmentStateCompleted = enrollment.StateCompleted
)

type (
	User        = user.User
	Profile     = user.Profile
	Achievement = user.Achievement

	Course = catalog.Course
	Lesson = catalog.Lesson

	Enrollment      = enrollment.Enrollment
	EnrollmentState = enrollment.State
	LessonProgress  = enrollment.LessonProgress
	Certificate     = enrollment.Certificate
)

// AllModels lists every table owned by this service in migration order.
func AllModels() []any {
	return []any{
		&User{},
		&Profile{},
		&Achievement{},
		&Course{},
		&Lesson{},
		&Enrollment{},
		&LessonProgress{},
		&Certificate{},
	}
}
