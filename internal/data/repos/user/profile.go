package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

// ProfileRepo resolves the optional profile of a user. A missing profile is
// (nil, nil), never an error.
type ProfileRepo interface {
	Create(dbc dbctx.Context, row *types.Profile) (*types.Profile, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error)
	LockByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error)
	UpdateStreak(dbc dbctx.Context, id uuid.UUID, current, longest int, lastActivity time.Time) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "ProfileRepo")}
}

func (r *profileRepo) Create(dbc dbctx.Context, row *types.Profile) (*types.Profile, error) {
	if row == nil {
		return nil, nil
	}
	if err := dbc.Resolve(r.db).Omit(clause.Associations).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *profileRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error) {
	return r.find(dbc.Resolve(r.db), userID)
}

func (r *profileRepo) LockByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error) {
	return r.find(dbc.Resolve(r.db).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *profileRepo) find(q *gorm.DB, userID uuid.UUID) (*types.Profile, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Profile
	if err := q.Where("user_id = ?", userID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *profileRepo) UpdateStreak(dbc dbctx.Context, id uuid.UUID, current, longest int, lastActivity time.Time) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.Resolve(r.db).
		Model(&types.Profile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_streak":     current,
			"longest_streak":     longest,
			"last_activity_date": datatypes.Date(lastActivity),
		}).Error
}
