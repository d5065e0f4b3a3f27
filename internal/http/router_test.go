package http

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-backend/internal/data/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	"github.com/yungbote/coursemarket-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	httpH "github.com/yungbote/coursemarket-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursemarket-backend/internal/http/middleware"
	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/realtime"
	"github.com/yungbote/coursemarket-backend/internal/services"
)

type routerFixture struct {
	engine *gin.Engine
	hub    *realtime.Hub
	token  string

	student *types.User
	course  *types.Course
	lessons []*types.Lesson
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	metrics := observability.NewMetrics()
	hub := realtime.NewHub(log)

	agg := aggregates.NewProgressAggregate(aggregates.ProgressAggregateDeps{
		Base:  aggregates.BaseDeps{DB: db, Log: log, Hooks: aggregates.NewObservabilityHooks(metrics)},
		Repos: set,
	})
	progress := services.NewProgressService(services.ProgressServiceDeps{
		Log:         log,
		Aggregate:   agg,
		Enrollments: set.Enrollments,
		Notifier:    services.NewProgressNotifier(&services.HubEmitter{Hub: hub}),
		Metrics:     metrics,
	})
	auth := services.NewAuthService(log, "router-secret", time.Hour)

	f := &routerFixture{hub: hub}
	f.engine = NewRouter(RouterConfig{
		Log:             log,
		Metrics:         metrics,
		AuthMiddleware:  httpMW.NewAuthMiddleware(log, auth),
		ProgressHandler: httpH.NewProgressHandler(log, progress),
		RealtimeHandler: httpH.NewRealtimeHandler(log, hub),
		HealthHandler:   httpH.NewHealthHandler(db),
		MetricsHandler:  httpH.NewMetricsHandler(metrics),
	})

	ctx := context.Background()
	instructor := testutil.SeedUser(t, ctx, db)
	f.student = testutil.SeedUser(t, ctx, db)
	f.course = testutil.SeedCourse(t, ctx, db, instructor.ID, types.CourseStatusPublished)
	f.lessons = testutil.SeedLessons(t, ctx, db, f.course.ID, 2)

	tok, err := auth.IssueAccessToken(f.student.ID, "student")
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	f.token = tok
	return f
}

func (f *routerFixture) call(t *testing.T, method, path string, out any) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+f.token)
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode: %v body=%s", method, path, err, rec.Body.String())
		}
	}
	return rec.Code
}

func TestRouterProgressFlow(t *testing.T) {
	f := newRouterFixture(t)
	courseURL := "/api/courses/" + f.course.ID.String()

	// Subscribe the way an SSE connection would.
	client := f.hub.NewClient(f.student.ID)
	f.hub.AddChannel(client, realtime.UserChannel(f.student.ID))
	defer f.hub.CloseClient(client)

	if code := f.call(t, nethttp.MethodGet, courseURL+"/progress", nil); code != nethttp.StatusForbidden {
		t.Fatalf("progress before enroll: want=403 got=%d", code)
	}
	if code := f.call(t, nethttp.MethodPost, courseURL+"/enroll", nil); code != nethttp.StatusCreated {
		t.Fatalf("enroll: want=201 got=%d", code)
	}
	if code := f.call(t, nethttp.MethodGet, courseURL+"/certificate", nil); code != nethttp.StatusConflict {
		t.Fatalf("certificate before completion: want=409 got=%d", code)
	}

	var toggle map[string]any
	for _, l := range f.lessons {
		if code := f.call(t, nethttp.MethodPost, "/api/lessons/"+l.ID.String()+"/toggle", &toggle); code != nethttp.StatusOK {
			t.Fatalf("toggle: want=200 got=%d", code)
		}
		if toggle["completed"] != true || toggle["completed_at"] == nil {
			t.Fatalf("toggle lesson %d: want completed with completed_at got=%v", l.Order, toggle)
		}
	}
	if toggle["course_progress"] != float64(100) || toggle["course_completed"] != true || toggle["course_completed_at"] == nil {
		t.Fatalf("final toggle: got=%v", toggle)
	}
	code, _ := toggle["certificate_id"].(string)
	if code == "" {
		t.Fatalf("final toggle: missing certificate_id in %v", toggle)
	}

	var cert struct {
		Certificate *types.Certificate `json:"certificate"`
	}
	if status := f.call(t, nethttp.MethodGet, courseURL+"/certificate", &cert); status != nethttp.StatusOK {
		t.Fatalf("certificate: want=200 got=%d", status)
	}
	if cert.Certificate == nil || cert.Certificate.Code != code {
		t.Fatalf("certificate code: want=%s got=%+v", code, cert.Certificate)
	}

	var list struct {
		Enrollments []*types.Enrollment `json:"enrollments"`
	}
	if status := f.call(t, nethttp.MethodGet, "/api/enrollments", &list); status != nethttp.StatusOK {
		t.Fatalf("enrollments: want=200 got=%d", status)
	}
	if len(list.Enrollments) != 1 || !list.Enrollments[0].IsCompleted {
		t.Fatalf("enrollments: got=%+v", list.Enrollments)
	}

	seen := map[realtime.Event]int{}
	for len(client.Outbound) > 0 {
		seen[(<-client.Outbound).Event]++
	}
	if seen[realtime.EventLessonProgress] != 2 || seen[realtime.EventCourseCompleted] != 1 {
		t.Fatalf("realtime events: got=%v", seen)
	}
}

func TestRouterRequiresAuth(t *testing.T) {
	f := newRouterFixture(t)
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/api/enrollments", nil))
	if rec.Code != nethttp.StatusUnauthorized {
		t.Fatalf("anonymous: want=401 got=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.engine.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/healthcheck", nil))
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("healthcheck: want=200 got=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.engine.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("metrics: want=200 got=%d", rec.Code)
	}
}
