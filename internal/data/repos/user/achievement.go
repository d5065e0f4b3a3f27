package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type AchievementRepo interface {
	// CreateIfAbsent awards kind to the user once; false means it was already held.
	CreateIfAbsent(dbc dbctx.Context, userID uuid.UUID, kind string) (bool, error)
	ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Achievement, error)
}

type achievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAchievementRepo(db *gorm.DB, baseLog *logger.Logger) AchievementRepo {
	return &achievementRepo{db: db, log: baseLog.With("repo", "AchievementRepo")}
}

func (r *achievementRepo) CreateIfAbsent(dbc dbctx.Context, userID uuid.UUID, kind string) (bool, error) {
	if userID == uuid.Nil || kind == "" {
		return false, nil
	}
	row := &types.Achievement{UserID: userID, Kind: kind}
	res := dbc.Resolve(r.db).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *achievementRepo) ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Achievement, error) {
	var out []*types.Achievement
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Resolve(r.db).
		Where("user_id = ?", userID).
		Order("unlocked_at ASC, kind ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
