package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Achievement is a one-shot badge; at most one row per (user, kind).
type Achievement struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_achievement_user_kind,priority:1" json:"user_id"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Kind       string    `gorm:"column:kind;size:50;not null;uniqueIndex:idx_achievement_user_kind,priority:2" json:"kind"`
	UnlockedAt time.Time `gorm:"column:unlocked_at;not null" json:"unlocked_at"`
}

func (Achievement) TableName() string { return "achievement" }

func (a *Achievement) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.UnlockedAt.IsZero() {
		a.UnlockedAt = time.Now().UTC()
	}
	return nil
}
