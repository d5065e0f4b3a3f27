package enrollment

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type EnrollmentRepo interface {
	// CreateIfAbsent inserts row unless (user, course) already exists. It
	// reports whether this call created the row; it never fails on the
	// uniqueness constraint.
	CreateIfAbsent(dbc dbctx.Context, row *types.Enrollment) (bool, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Enrollment, error)
	GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Enrollment, error)

	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Enrollment, error)
	LockByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Enrollment, error)

	ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Enrollment, error)
	CountCompletedByUserID(dbc dbctx.Context, userID uuid.UUID) (int, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) CreateIfAbsent(dbc dbctx.Context, row *types.Enrollment) (bool, error) {
	if row == nil {
		return false, nil
	}
	res := dbc.Resolve(r.db).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *enrollmentRepo) first(q *gorm.DB) (*types.Enrollment, error) {
	var rows []*types.Enrollment
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *enrollmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Enrollment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.Resolve(r.db).Where("id = ?", id))
}

func (r *enrollmentRepo) GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Enrollment, error) {
	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.Resolve(r.db).Where("user_id = ? AND course_id = ?", userID, courseID))
}

func (r *enrollmentRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Enrollment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.Resolve(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *enrollmentRepo) LockByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Enrollment, error) {
	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.Resolve(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND course_id = ?", userID, courseID))
}

// ListByUserID returns the user's enrollments newest first, with Course loaded.
func (r *enrollmentRepo) ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Enrollment, error) {
	var out []*types.Enrollment
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Resolve(r.db).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("enrolled_at DESC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) CountCompletedByUserID(dbc dbctx.Context, userID uuid.UUID) (int, error) {
	var n int64
	if err := dbc.Resolve(r.db).
		Model(&types.Enrollment{}).
		Where("user_id = ? AND is_completed = ?", userID, true).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *enrollmentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return dbc.Resolve(r.db).
		Model(&types.Enrollment{}).
		Where("id = ?", id).
		Updates(updates).Error
}
