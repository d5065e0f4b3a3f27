package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/platform/apierr"
	"github.com/yungbote/coursemarket-backend/internal/platform/ctxutil"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domainagg.NewError(domainagg.CodeValidation, "op", "bad", nil), http.StatusBadRequest, "validation"},
		{domainagg.NewError(domainagg.CodeNotFound, "op", "gone", nil), http.StatusNotFound, "not_found"},
		{domainagg.NewError(domainagg.CodeNotEnrolled, "op", "no", nil), http.StatusForbidden, "not_enrolled"},
		{domainagg.NewError(domainagg.CodeNotCompleted, "op", "no", nil), http.StatusConflict, "not_completed"},
		{domainagg.NewError(domainagg.CodeConflict, "op", "no", nil), http.StatusConflict, "conflict"},
		{domainagg.NewError(domainagg.CodeRetryable, "op", "busy", nil), http.StatusServiceUnavailable, "retryable"},
		{domainagg.NewError(domainagg.CodeInternal, "op", "boom", nil), http.StatusInternalServerError, "internal"},
		{fmt.Errorf("wrapped: %w", domainagg.NewError(domainagg.CodeNotFound, "op", "", nil)), http.StatusNotFound, "not_found"},
		{apierr.Unauthorized(errors.New("who")), http.StatusUnauthorized, "unauthorized"},
		{errors.New("plain"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		status, code := StatusFor(tc.err)
		if status != tc.status || code != tc.code {
			t.Fatalf("StatusFor(%v): want=%d/%s got=%d/%s", tc.err, tc.status, tc.code, status, code)
		}
	}
}

func TestRespondServiceErrorHidesInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err     error
		message string
	}{
		{errors.New("pq: connection refused"), "internal error"},
		{domainagg.NewError(domainagg.CodeNotEnrolled, "Enrollment.Progress.ToggleLesson", "user is not enrolled in this course", nil), "user is not enrolled in this course"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		RespondServiceError(c, tc.err)

		var env ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if env.Error.Message != tc.message {
			t.Fatalf("message: want=%q got=%q", tc.message, env.Error.Message)
		}
	}
}

func TestRespondErrorCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req := httptest.NewRequest(http.MethodPost, "/api/lessons/l1/toggle", nil)
	c.Request = req.WithContext(ctxutil.WithTraceData(req.Context(), &ctxutil.TraceData{TraceID: "t-1", RequestID: "req-7"}))

	RespondServiceError(c, domainagg.NewError(domainagg.CodeNotEnrolled, "op", "user is not enrolled in this course", nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: want=%d got=%d", http.StatusForbidden, rec.Code)
	}
	if !c.IsAborted() {
		t.Fatalf("context should be aborted after an error response")
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if env.Error.RequestID != "req-7" || env.Error.Code != "not_enrolled" {
		t.Fatalf("envelope: want=req-7/not_enrolled got=%s/%s", env.Error.RequestID, env.Error.Code)
	}
}
