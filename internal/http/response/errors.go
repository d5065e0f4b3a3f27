package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/platform/apierr"
)

// StatusFor maps a service error to the HTTP status and stable code sent to
// clients.
func StatusFor(err error) (int, string) {
	if ae := apierr.As(err); ae != nil {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return status, ae.Code
	}
	var agg *domainagg.Error
	if !errors.As(err, &agg) {
		return http.StatusInternalServerError, string(domainagg.CodeInternal)
	}
	switch agg.Code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest, string(agg.Code)
	case domainagg.CodeNotFound:
		return http.StatusNotFound, string(agg.Code)
	case domainagg.CodeNotEnrolled:
		return http.StatusForbidden, string(agg.Code)
	case domainagg.CodeNotCompleted, domainagg.CodeConflict, domainagg.CodePreconditionFailed:
		return http.StatusConflict, string(agg.Code)
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable, string(agg.Code)
	default:
		return http.StatusInternalServerError, string(domainagg.CodeInternal)
	}
}

// RespondServiceError writes the error envelope for err. Internal failures
// keep their detail out of the response body.
func RespondServiceError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	observability.Current().IncAPIError(code)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		RespondError(c, status, code, errors.New("internal error"))
		return
	}
	msg := err
	var agg *domainagg.Error
	if errors.As(err, &agg) && agg.Message != "" {
		msg = errors.New(agg.Message)
	}
	RespondError(c, status, code, msg)
}
