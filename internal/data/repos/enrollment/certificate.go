package enrollment

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type CertificateRepo interface {
	// CreateIfAbsent inserts row unless its enrollment or code is taken.
	// Callers re-read by enrollment to tell the two apart.
	CreateIfAbsent(dbc dbctx.Context, row *types.Certificate) (bool, error)
	GetByEnrollmentID(dbc dbctx.Context, enrollmentID uuid.UUID) (*types.Certificate, error)
	GetByCode(dbc dbctx.Context, code string) (*types.Certificate, error)
}

type certificateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return &certificateRepo{db: db, log: baseLog.With("repo", "CertificateRepo")}
}

func (r *certificateRepo) CreateIfAbsent(dbc dbctx.Context, row *types.Certificate) (bool, error) {
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

func (r *certificateRepo) GetByEnrollmentID(dbc dbctx.Context, enrollmentID uuid.UUID) (*types.Certificate, error) {
	if enrollmentID == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.Resolve(r.db).Where("enrollment_id = ?", enrollmentID))
}

func (r *certificateRepo) GetByCode(dbc dbctx.Context, code string) (*types.Certificate, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	return r.first(dbc.Resolve(r.db).Where("code = ?", code))
}

func (r *certificateRepo) first(q *gorm.DB) (*types.Certificate, error) {
	var rows []*types.Certificate
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
