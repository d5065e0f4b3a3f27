package enrollment

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const CertificateCodePrefix = "CERT-"

// Certificate is issued at most once per enrollment and never revoked.
type Certificate struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	EnrollmentID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex" json:"enrollment_id"`
	Enrollment   *Enrollment `gorm:"constraint:OnDelete:CASCADE;foreignKey:EnrollmentID;references:ID" json:"-"`
	Code         string      `gorm:"column:code;size:32;not null;uniqueIndex" json:"code"`
	IssuedAt     time.Time   `gorm:"column:issued_at;not null;autoCreateTime" json:"issued_at"`
}

func (Certificate) TableName() string { return "certificate" }

func (c *Certificate) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// NewCertificateCode returns CERT- followed by 12 upper-case hex characters.
func NewCertificateCode() (string, error) {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return CertificateCodePrefix + strings.ToUpper(hex.EncodeToString(b[:])), nil
}
