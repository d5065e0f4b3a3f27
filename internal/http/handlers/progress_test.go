package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/http/response"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type fakeProgressService struct {
	enroll      domainagg.EnrollResult
	toggle      domainagg.ToggleLessonResult
	certificate domainagg.GetOrIssueCertificateResult
	err         error

	gotCourse uuid.UUID
	gotLesson uuid.UUID
}

func (f *fakeProgressService) Enroll(_ context.Context, courseID uuid.UUID) (domainagg.EnrollResult, error) {
	f.gotCourse = courseID
	return f.enroll, f.err
}

func (f *fakeProgressService) ListEnrollments(context.Context) ([]*types.Enrollment, error) {
	return nil, f.err
}

func (f *fakeProgressService) GetProgress(_ context.Context, courseID uuid.UUID) (domainagg.GetProgressResult, error) {
	f.gotCourse = courseID
	return domainagg.GetProgressResult{}, f.err
}

func (f *fakeProgressService) ToggleLesson(_ context.Context, lessonID uuid.UUID) (domainagg.ToggleLessonResult, error) {
	f.gotLesson = lessonID
	return f.toggle, f.err
}

func (f *fakeProgressService) GetCertificate(_ context.Context, courseID uuid.UUID) (domainagg.GetOrIssueCertificateResult, error) {
	f.gotCourse = courseID
	return f.certificate, f.err
}

func (f *fakeProgressService) GetStreak(context.Context) (domainagg.RefreshAchievementsResult, error) {
	return domainagg.RefreshAchievementsResult{}, f.err
}

func newProgressRouter(svc *fakeProgressService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewProgressHandler(logger.NewNop(), svc)
	r := gin.New()
	r.POST("/api/courses/:id/enroll", h.Enroll)
	r.GET("/api/courses/:id/certificate", h.GetCertificate)
	r.POST("/api/lessons/:id/toggle", h.ToggleLesson)
	return r
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestToggleLessonRejectsBadID(t *testing.T) {
	svc := &fakeProgressService{}
	rec := do(newProgressRouter(svc), http.MethodPost, "/api/lessons/not-a-uuid/toggle")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
	if svc.gotLesson != uuid.Nil {
		t.Fatalf("service must not be called on a bad id")
	}
}

func TestToggleLessonWritesResult(t *testing.T) {
	code := "CERT-0123456789AB"
	lessonID := uuid.New()
	lessonAt := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	courseAt := lessonAt.Add(time.Minute)
	svc := &fakeProgressService{toggle: domainagg.ToggleLessonResult{
		LessonID:          lessonID,
		Completed:         true,
		LessonCompletedAt: &lessonAt,
		CourseCompletedAt: &courseAt,
		CourseProgress:    100,
		CourseCompleted:   true,
		NewlyCompleted:    true,
		CertificateCode:   &code,
	}}
	rec := do(newProgressRouter(svc), http.MethodPost, "/api/lessons/"+lessonID.String()+"/toggle")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if svc.gotLesson != lessonID {
		t.Fatalf("lesson id: want=%s got=%s", lessonID, svc.gotLesson)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["course_progress"] != float64(100) || body["certificate_id"] != code || body["course_completed"] != true {
		t.Fatalf("toggle body: got=%v", body)
	}
	if body["completed_at"] != "2026-03-10T09:00:00Z" || body["course_completed_at"] != "2026-03-10T09:01:00Z" {
		t.Fatalf("toggle timestamps: completed_at=%v course_completed_at=%v", body["completed_at"], body["course_completed_at"])
	}
}

func TestProgressHandlerMapsAggregateErrors(t *testing.T) {
	cases := []struct {
		code   domainagg.ErrorCode
		status int
	}{
		{domainagg.CodeNotFound, http.StatusNotFound},
		{domainagg.CodeNotEnrolled, http.StatusForbidden},
		{domainagg.CodeNotCompleted, http.StatusConflict},
		{domainagg.CodeValidation, http.StatusBadRequest},
		{domainagg.CodeRetryable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		svc := &fakeProgressService{err: domainagg.NewError(tc.code, "op", "failed", nil)}
		rec := do(newProgressRouter(svc), http.MethodGet, "/api/courses/"+uuid.NewString()+"/certificate")
		if rec.Code != tc.status {
			t.Fatalf("%s: want=%d got=%d", tc.code, tc.status, rec.Code)
		}
		var env response.ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Error.Code != string(tc.code) {
			t.Fatalf("error code: want=%s got=%s", tc.code, env.Error.Code)
		}
	}
}

func TestEnrollStatusReflectsCreation(t *testing.T) {
	courseID := uuid.New()
	svc := &fakeProgressService{enroll: domainagg.EnrollResult{Enrollment: &types.Enrollment{}, Created: true}}
	r := newProgressRouter(svc)
	if rec := do(r, http.MethodPost, "/api/courses/"+courseID.String()+"/enroll"); rec.Code != http.StatusCreated {
		t.Fatalf("first enroll: want=201 got=%d", rec.Code)
	}
	svc.enroll.Created = false
	if rec := do(r, http.MethodPost, "/api/courses/"+courseID.String()+"/enroll"); rec.Code != http.StatusOK {
		t.Fatalf("repeat enroll: want=200 got=%d", rec.Code)
	}
	if svc.gotCourse != courseID {
		t.Fatalf("course id: want=%s got=%s", courseID, svc.gotCourse)
	}
}
