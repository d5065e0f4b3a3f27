package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-backend/internal/platform/ctxutil"
)

// APIError is the body clients branch on. Code is one of the stable values
// StatusFor produces, e.g. "not_enrolled" or "not_completed".
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	// RequestID matches the X-Request-Id header so a failed toggle can be
	// found in the access log.
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	apiErr := APIError{Message: msg, Code: code}
	if c.Request != nil {
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			apiErr.RequestID = td.RequestID
		}
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: apiErr})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondCreated is used when an enrollment row was inserted; a repeat
// enroll answers with RespondOK.
func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
