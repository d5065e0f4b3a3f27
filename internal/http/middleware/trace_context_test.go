package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-backend/internal/platform/ctxutil"
)

func TestAttachTraceContextRequestIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		header string
		keep   bool
	}{
		{"client id kept", "req-42.retry:1", true},
		{"blank replaced", "   ", false},
		{"newline replaced", "abc\r\nSet-Cookie: x", false},
		{"oversized replaced", strings.Repeat("a", maxCorrelationIDLen+1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(AttachTraceContext())
			var seen *ctxutil.TraceData
			r.POST("/api/lessons/:id/toggle", func(c *gin.Context) {
				seen = ctxutil.GetTraceData(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/lessons/l1/toggle", nil)
			req.Header[headerRequestID] = []string{tc.header}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if seen == nil || seen.RequestID == "" || seen.TraceID == "" {
				t.Fatalf("trace data: want ids got=%+v", seen)
			}
			if got := rec.Header().Get(headerRequestID); got != seen.RequestID {
				t.Fatalf("echoed id: want=%q got=%q", seen.RequestID, got)
			}
			if kept := seen.RequestID == tc.header; kept != tc.keep {
				t.Fatalf("kept client id: want=%v got=%v (id=%q)", tc.keep, kept, seen.RequestID)
			}
		})
	}
}
