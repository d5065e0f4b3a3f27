package aggregates

import (
	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/domain/enrollment"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

const maxCertificateCodeAttempts = 5

// CertificateIssuer mints at most one certificate per enrollment.
type CertificateIssuer struct {
	Certificates repos.CertificateRepo
	Log          *logger.Logger
	// NewCode generates candidate codes; nil uses enrollment.NewCertificateCode.
	NewCode func() (string, error)
}

// IssueIfAbsent returns the enrollment's certificate, creating it when none
// exists. A code collision regenerates the code; losing the insert race to
// another transaction returns that transaction's certificate. The caller is
// responsible for only calling this on a completed enrollment.
func (c CertificateIssuer) IssueIfAbsent(dbc dbctx.Context, e *types.Enrollment) (*types.Certificate, bool, error) {
	existing, err := c.Certificates.GetByEnrollmentID(dbc, e.ID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	newCode := c.NewCode
	if newCode == nil {
		newCode = enrollment.NewCertificateCode
	}
	for attempt := 1; attempt <= maxCertificateCodeAttempts; attempt++ {
		code, err := newCode()
		if err != nil {
			return nil, false, err
		}
		row := &types.Certificate{EnrollmentID: e.ID, Code: code}
		created, err := c.Certificates.CreateIfAbsent(dbc, row)
		if err != nil {
			return nil, false, err
		}
		if created {
			if c.Log != nil {
				c.Log.Info("certificate issued", "enrollment_id", e.ID, "user_id", e.UserID, "code", code)
			}
			return row, true, nil
		}
		winner, err := c.Certificates.GetByEnrollmentID(dbc, e.ID)
		if err != nil {
			return nil, false, err
		}
		if winner != nil {
			return winner, false, nil
		}
		if c.Log != nil {
			c.Log.Warn("certificate code collision, regenerating", "enrollment_id", e.ID, "attempt", attempt)
		}
	}
	return nil, false, RetryableError("could not allocate a unique certificate code")
}
