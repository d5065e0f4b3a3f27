package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the authenticated account. Registration and credentials are owned
// by the auth service; this table only mirrors identity.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username string    `gorm:"column:username;not null;uniqueIndex" json:"username"`
	Email    string    `gorm:"column:email;not null;uniqueIndex" json:"email"`

	// Profile is optional; callers resolve it with ProfileRepo.GetByUserID.
	Profile *Profile `gorm:"foreignKey:UserID;references:ID" json:"profile,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
