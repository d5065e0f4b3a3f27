package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursemarket-backend/internal/data/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	"github.com/yungbote/coursemarket-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/platform/apierr"
	"github.com/yungbote/coursemarket-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/realtime"
)

type spyEmitter struct {
	mu   sync.Mutex
	msgs []realtime.Message
}

func (s *spyEmitter) Emit(_ context.Context, msg realtime.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *spyEmitter) events() []realtime.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]realtime.Event, 0, len(s.msgs))
	for _, m := range s.msgs {
		out = append(out, m.Event)
	}
	return out
}

func (s *spyEmitter) count(ev realtime.Event) int {
	n := 0
	for _, got := range s.events() {
		if got == ev {
			n++
		}
	}
	return n
}

type serviceFixture struct {
	ctx     context.Context
	repos   repos.Set
	metrics *observability.Metrics
	emit    *spyEmitter
	svc     ProgressService

	student *types.User
	course  *types.Course
	lessons []*types.Lesson
}

func newServiceFixture(t *testing.T, lessonCount int) *serviceFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)

	f := &serviceFixture{
		repos:   set,
		metrics: observability.NewMetrics(),
		emit:    &spyEmitter{},
	}
	agg := aggregates.NewProgressAggregate(aggregates.ProgressAggregateDeps{
		Base:  aggregates.BaseDeps{DB: db, Log: log},
		Repos: set,
		Clock: func() time.Time { return time.Date(2026, time.May, 4, 8, 0, 0, 0, time.UTC) },
	})
	f.svc = NewProgressService(ProgressServiceDeps{
		Log:                  log,
		Aggregate:            agg,
		Enrollments:          set.Enrollments,
		Notifier:             NewProgressNotifier(f.emit),
		Metrics:              f.metrics,
		ReconcileParallelism: 2,
	})

	bg := context.Background()
	instructor := testutil.SeedUser(t, bg, db)
	f.student = testutil.SeedUser(t, bg, db)
	f.course = testutil.SeedCourse(t, bg, db, instructor.ID, types.CourseStatusPublished)
	f.lessons = testutil.SeedLessons(t, bg, db, f.course.ID, lessonCount)
	f.ctx = ctxutil.WithRequestData(bg, &ctxutil.RequestData{UserID: f.student.ID, Role: "student"})
	return f
}

func TestProgressServiceRequiresCaller(t *testing.T) {
	f := newServiceFixture(t, 1)
	_, err := f.svc.Enroll(context.Background(), f.course.ID)
	ae := apierr.As(err)
	if ae == nil || ae.Status != http.StatusUnauthorized {
		t.Fatalf("anonymous enroll: want=401 got=%v", err)
	}
	if _, err := f.svc.ListEnrollments(context.Background()); apierr.As(err) == nil {
		t.Fatalf("anonymous list: want api error got=%v", err)
	}
}

func TestProgressServiceToggleEmitsEvents(t *testing.T) {
	f := newServiceFixture(t, 2)
	if _, err := f.svc.Enroll(f.ctx, f.course.ID); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if got := f.metrics.ProgressEventCount(ProgressEventEnrolled); got != 1 {
		t.Fatalf("enrolled metric: want=1 got=%v", got)
	}

	res, err := f.svc.ToggleLesson(f.ctx, f.lessons[0].ID)
	if err != nil {
		t.Fatalf("ToggleLesson: %v", err)
	}
	if !res.Completed || res.CourseProgress != 50 {
		t.Fatalf("first toggle: want completed at 50 got=%+v", res)
	}
	if f.emit.count(realtime.EventCourseCompleted) != 0 {
		t.Fatalf("course completed emitted too early: %v", f.emit.events())
	}

	res, err = f.svc.ToggleLesson(f.ctx, f.lessons[1].ID)
	if err != nil {
		t.Fatalf("ToggleLesson: %v", err)
	}
	if !res.NewlyCompleted || res.CertificateCode == nil {
		t.Fatalf("second toggle: want completion with certificate got=%+v", res)
	}
	if got := f.emit.count(realtime.EventLessonProgress); got != 2 {
		t.Fatalf("lesson events: want=2 got=%d", got)
	}
	if got := f.emit.count(realtime.EventCourseCompleted); got != 1 {
		t.Fatalf("completion events: want=1 got=%d", got)
	}
	if f.emit.count(realtime.EventAchievementUnlocked) == 0 {
		t.Fatalf("expected achievement event, got %v", f.emit.events())
	}
	for _, m := range f.emit.msgs {
		if m.Channel != realtime.UserChannel(f.student.ID) {
			t.Fatalf("event channel: want=%s got=%s", realtime.UserChannel(f.student.ID), m.Channel)
		}
	}
	if got := f.metrics.ProgressEventCount(ProgressEventCourseCompleted); got != 1 {
		t.Fatalf("course_completed metric: want=1 got=%v", got)
	}
	if got := f.metrics.ProgressEventCount(ProgressEventCertificateIssued); got != 1 {
		t.Fatalf("certificate_issued metric: want=1 got=%v", got)
	}

	if _, err := f.svc.ToggleLesson(f.ctx, f.lessons[1].ID); err != nil {
		t.Fatalf("ToggleLesson back: %v", err)
	}
	if got := f.metrics.ProgressEventCount(ProgressEventLessonUncompleted); got != 1 {
		t.Fatalf("lesson_uncompleted metric: want=1 got=%v", got)
	}
	if got := f.emit.count(realtime.EventCourseCompleted); got != 1 {
		t.Fatalf("regression must not emit completion: got=%d", got)
	}
}

func TestProgressServiceToggleFailureEmitsNothing(t *testing.T) {
	f := newServiceFixture(t, 1)
	_, err := f.svc.ToggleLesson(f.ctx, f.lessons[0].ID)
	var ae *domainagg.Error
	if !errors.As(err, &ae) || ae.Code != domainagg.CodeNotEnrolled {
		t.Fatalf("toggle without enrollment: want=not_enrolled got=%v", err)
	}
	if got := len(f.emit.events()); got != 0 {
		t.Fatalf("events on failure: want=0 got=%d", got)
	}
}

func TestProgressServiceListEnrollmentsReconciles(t *testing.T) {
	f := newServiceFixture(t, 2)
	if _, err := f.svc.Enroll(f.ctx, f.course.ID); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if _, err := f.svc.ToggleLesson(f.ctx, f.lessons[0].ID); err != nil {
		t.Fatalf("ToggleLesson: %v", err)
	}

	// A lesson deleted out of band only shows up after a reconcile.
	if err := f.repos.Lessons.SoftDeleteByIDs(dbctx.Context{Ctx: f.ctx}, []uuid.UUID{f.lessons[1].ID}); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	rows, err := f.svc.ListEnrollments(f.ctx)
	if err != nil {
		t.Fatalf("ListEnrollments: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("enrollments: want=1 got=%d", len(rows))
	}
	if rows[0].Progress != 100 || !rows[0].IsCompleted {
		t.Fatalf("reconciled enrollment: want 100/completed got=%d/%v", rows[0].Progress, rows[0].IsCompleted)
	}

	cert, err := f.svc.GetCertificate(f.ctx, f.course.ID)
	if err != nil {
		t.Fatalf("GetCertificate: %v", err)
	}
	if cert.Certificate == nil || cert.Created {
		t.Fatalf("certificate: want existing got=%+v", cert)
	}
}

func TestProgressServiceListEnrollmentsEmpty(t *testing.T) {
	f := newServiceFixture(t, 1)
	rows, err := f.svc.ListEnrollments(f.ctx)
	if err != nil {
		t.Fatalf("ListEnrollments: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("enrollments: want=0 got=%d", len(rows))
	}
}

func TestProgressServiceGetStreak(t *testing.T) {
	f := newServiceFixture(t, 1)
	res, err := f.svc.GetStreak(f.ctx)
	if err != nil {
		t.Fatalf("GetStreak: %v", err)
	}
	if res.Streak.Current != 0 || len(res.Achievements) != 0 {
		t.Fatalf("fresh user streak: got=%+v", res)
	}
	if _, err := f.svc.GetProgress(f.ctx, uuid.New()); err == nil {
		t.Fatalf("GetProgress unknown course: want error")
	}
}
