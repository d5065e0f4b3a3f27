package enrollment

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type LessonProgressRepo interface {
	// InsertIgnoringConflicts inserts rows, skipping any (enrollment, lesson)
	// pair that already exists. Returns the number of rows inserted.
	InsertIgnoringConflicts(dbc dbctx.Context, rows []*types.LessonProgress) (int, error)

	LessonIDsByEnrollmentID(dbc dbctx.Context, enrollmentID uuid.UUID) ([]uuid.UUID, error)
	ListByEnrollmentID(dbc dbctx.Context, enrollmentID uuid.UUID) ([]*types.LessonProgress, error)
	GetByEnrollmentAndLesson(dbc dbctx.Context, enrollmentID, lessonID uuid.UUID) (*types.LessonProgress, error)
	LockByEnrollmentAndLesson(dbc dbctx.Context, enrollmentID, lessonID uuid.UUID) (*types.LessonProgress, error)

	// CountCompletedInCourse counts completed rows whose lesson is a current
	// (non-deleted) lesson of courseID. Orphaned rows are not counted.
	CountCompletedInCourse(dbc dbctx.Context, enrollmentID, courseID uuid.UUID) (int, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type lessonProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	return &lessonProgressRepo{db: db, log: baseLog.With("repo", "LessonProgressRepo")}
}

func (r *lessonProgressRepo) InsertIgnoringConflicts(dbc dbctx.Context, rows []*types.LessonProgress) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := dbc.Resolve(r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *lessonProgressRepo) LessonIDsByEnrollmentID(dbc dbctx.Context, enrollmentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if enrollmentID == uuid.Nil {
		return ids, nil
	}
	if err := dbc.Resolve(r.db).
		Model(&types.LessonProgress{}).
		Where("enrollment_id = ?", enrollmentID).
		Pluck("lesson_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *lessonProgressRepo) ListByEnrollmentID(dbc dbctx.Context, enrollmentID uuid.UUID) ([]*types.LessonProgress, error) {
	var out []*types.LessonProgress
	if enrollmentID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Resolve(r.db).
		Where("enrollment_id = ?", enrollmentID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lessonProgressRepo) GetByEnrollmentAndLesson(dbc dbctx.Context, enrollmentID, lessonID uuid.UUID) (*types.LessonProgress, error) {
	return r.find(dbc.Resolve(r.db), enrollmentID, lessonID)
}

func (r *lessonProgressRepo) LockByEnrollmentAndLesson(dbc dbctx.Context, enrollmentID, lessonID uuid.UUID) (*types.LessonProgress, error) {
	return r.find(dbc.Resolve(r.db).Clauses(clause.Locking{Strength: "UPDATE"}), enrollmentID, lessonID)
}

func (r *lessonProgressRepo) find(q *gorm.DB, enrollmentID, lessonID uuid.UUID) (*types.LessonProgress, error) {
	if enrollmentID == uuid.Nil || lessonID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.LessonProgress
	if err := q.
		Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *lessonProgressRepo) CountCompletedInCourse(dbc dbctx.Context, enrollmentID, courseID uuid.UUID) (int, error) {
	var n int64
	if err := dbc.Resolve(r.db).
		Model(&types.LessonProgress{}).
		Joins("JOIN lesson ON lesson.id = lesson_progress.lesson_id").
		Where("lesson_progress.enrollment_id = ?", enrollmentID).
		Where("lesson_progress.completed = ?", true).
		Where("lesson.course_id = ? AND lesson.deleted_at IS NULL", courseID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *lessonProgressRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return dbc.Resolve(r.db).
		Model(&types.LessonProgress{}).
		Where("id = ?", id).
		Updates(updates).Error
}
