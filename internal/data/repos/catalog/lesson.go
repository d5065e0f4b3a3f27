package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

// LessonRepo reads the lesson catalog. Soft-deleted lessons are invisible to
// every read here, so "current lessons" always means non-deleted rows.
type LessonRepo interface {
	Create(dbc dbctx.Context, lessons []*types.Lesson) ([]*types.Lesson, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Lesson, error)
	ListByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Lesson, error)
	IDsByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error)
	CountByCourseID(dbc dbctx.Context, courseID uuid.UUID) (int, error)
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (r *lessonRepo) Create(dbc dbctx.Context, lessons []*types.Lesson) ([]*types.Lesson, error) {
	if len(lessons) == 0 {
		return []*types.Lesson{}, nil
	}
	if err := dbc.Resolve(r.db).Create(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Lesson, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Lesson
	if err := dbc.Resolve(r.db).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ListByCourseID returns the course's lessons ordered by (order, id).
func (r *lessonRepo) ListByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Lesson, error) {
	var out []*types.Lesson
	if courseID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Resolve(r.db).
		Where("course_id = ?", courseID).
		Order("order_index ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lessonRepo) IDsByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if courseID == uuid.Nil {
		return ids, nil
	}
	if err := dbc.Resolve(r.db).
		Model(&types.Lesson{}).
		Where("course_id = ?", courseID).
		Order("order_index ASC, id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *lessonRepo) CountByCourseID(dbc dbctx.Context, courseID uuid.UUID) (int, error) {
	var n int64
	if err := dbc.Resolve(r.db).
		Model(&types.Lesson{}).
		Where("course_id = ?", courseID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *lessonRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.Resolve(r.db).Where("id IN ?", ids).Delete(&types.Lesson{}).Error
}
