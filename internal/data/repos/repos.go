package repos

import (
	"github.com/yungbote/coursemarket-backend/internal/data/repos/catalog"
	"github.com/yungbote/coursemarket-backend/internal/data/repos/enrollment"
	"github.com/yungbote/coursemarket-backend/internal/data/repos/user"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo
type ProfileRepo = user.ProfileRepo
type AchievementRepo = user.AchievementRepo

type CourseRepo = catalog.CourseRepo
type LessonRepo = catalog.LessonRepo

type EnrollmentRepo = enrollment.EnrollmentRepo
type LessonProgressRepo = enrollment.LessonProgressRepo
type CertificateRepo = enrollment.CertificateRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return user.NewProfileRepo(db, baseLog)
}
func NewAchievementRepo(db *gorm.DB, baseLog *logger.Logger) AchievementRepo {
	return user.NewAchievementRepo(db, baseLog)
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return catalog.NewCourseRepo(db, baseLog)
}
func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return catalog.NewLessonRepo(db, baseLog)
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return enrollment.NewEnrollmentRepo(db, baseLog)
}
func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	return enrollment.NewLessonProgressRepo(db, baseLog)
}
func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return enrollment.NewCertificateRepo(db, baseLog)
}

// Set bundles every table repo over one handle.
type Set struct {
	Users          UserRepo
	Profiles       ProfileRepo
	Achievements   AchievementRepo
	Courses        CourseRepo
	Lessons        LessonRepo
	Enrollments    EnrollmentRepo
	LessonProgress LessonProgressRepo
	Certificates   CertificateRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Users:          NewUserRepo(db, baseLog),
		Profiles:       NewProfileRepo(db, baseLog),
		Achievements:   NewAchievementRepo(db, baseLog),
		Courses:        NewCourseRepo(db, baseLog),
		Lessons:        NewLessonRepo(db, baseLog),
		Enrollments:    NewEnrollmentRepo(db, baseLog),
		LessonProgress: NewLessonProgressRepo(db, baseLog),
		Certificates:   NewCertificateRepo(db, baseLog),
	}
}
