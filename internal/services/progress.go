package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/platform/apierr"
	"github.com/yungbote/coursemarket-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

const (
	ProgressEventLessonCompleted   = "lesson_completed"
	ProgressEventLessonUncompleted = "lesson_uncompleted"
	ProgressEventCourseCompleted   = "course_completed"
	ProgressEventCertificateIssued = "certificate_issued"
	ProgressEventEnrolled          = "enrolled"
)

// ProgressService is the request-scoped entry point for the progress
// aggregate. The caller is taken from the request context.
type ProgressService interface {
	Enroll(ctx context.Context, courseID uuid.UUID) (domainagg.EnrollResult, error)
	ListEnrollments(ctx context.Context) ([]*types.Enrollment, error)
	GetProgress(ctx context.Context, courseID uuid.UUID) (domainagg.GetProgressResult, error)
	ToggleLesson(ctx context.Context, lessonID uuid.UUID) (domainagg.ToggleLessonResult, error)
	GetCertificate(ctx context.Context, courseID uuid.UUID) (domainagg.GetOrIssueCertificateResult, error)
	GetStreak(ctx context.Context) (domainagg.RefreshAchievementsResult, error)
}

type ProgressServiceDeps struct {
	Log         *logger.Logger
	Aggregate   domainagg.ProgressAggregate
	Enrollments repos.EnrollmentRepo
	Notifier    ProgressNotifier
	Metrics     *observability.Metrics
	// ReconcileParallelism bounds concurrent reconciles in ListEnrollments.
	ReconcileParallelism int
}

type progressService struct {
	log         *logger.Logger
	agg         domainagg.ProgressAggregate
	enrollments repos.EnrollmentRepo
	notify      ProgressNotifier
	metrics     *observability.Metrics
	parallelism int
}

func NewProgressService(deps ProgressServiceDeps) ProgressService {
	parallelism := deps.ReconcileParallelism
	if parallelism <= 0 {
		parallelism = 4
	}
	return &progressService{
		log:         deps.Log.With("service", "ProgressService"),
		agg:         deps.Aggregate,
		enrollments: deps.Enrollments,
		notify:      deps.Notifier,
		metrics:     deps.Metrics,
		parallelism: parallelism,
	}
}

func requireUser(ctx context.Context) (uuid.UUID, error) {
	userID := ctxutil.UserID(ctx)
	if userID == uuid.Nil {
		return uuid.Nil, apierr.Unauthorized(fmt.Errorf("unauthorized"))
	}
	return userID, nil
}

func (s *progressService) Enroll(ctx context.Context, courseID uuid.UUID) (domainagg.EnrollResult, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return domainagg.EnrollResult{}, err
	}
	res, err := s.agg.Enroll(ctx, domainagg.EnrollInput{UserID: userID, CourseID: courseID})
	if err != nil {
		return res, err
	}
	if res.Created {
		s.metrics.IncProgressEvent(ProgressEventEnrolled)
		s.log.Info("user enrolled", "user_id", userID, "course_id", courseID, "backfilled", res.Backfilled)
	}
	return res, nil
}

// ListEnrollments reconciles every enrollment of the caller before listing
// them newest first, so course edits since the last visit are reflected.
func (s *progressService) ListEnrollments(ctx context.Context) ([]*types.Enrollment, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.enrollments.ListByUserID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return existing, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, e := range existing {
		id := e.ID
		g.Go(func() error {
			_, err := s.agg.Reconcile(gctx, id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s.enrollments.ListByUserID(dbc, userID)
}

func (s *progressService) GetProgress(ctx context.Context, courseID uuid.UUID) (domainagg.GetProgressResult, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return domainagg.GetProgressResult{}, err
	}
	return s.agg.GetProgress(ctx, domainagg.GetProgressInput{UserID: userID, CourseID: courseID})
}

func (s *progressService) ToggleLesson(ctx context.Context, lessonID uuid.UUID) (domainagg.ToggleLessonResult, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return domainagg.ToggleLessonResult{}, err
	}
	res, err := s.agg.ToggleLesson(ctx, domainagg.ToggleLessonInput{UserID: userID, LessonID: lessonID})
	if err != nil {
		return res, err
	}

	if res.Completed {
		s.metrics.IncProgressEvent(ProgressEventLessonCompleted)
	} else {
		s.metrics.IncProgressEvent(ProgressEventLessonUncompleted)
	}
	s.notify.LessonToggled(ctx, userID, res)
	if res.NewlyCompleted {
		s.metrics.IncProgressEvent(ProgressEventCourseCompleted)
		s.log.Info("course completed", "user_id", userID, "course_id", res.CourseID)
		s.notify.CourseCompleted(ctx, userID, res)
	}
	if res.CertificateCreated {
		s.metrics.IncProgressEvent(ProgressEventCertificateIssued)
	}
	s.notify.AchievementsUnlocked(ctx, userID, res.NewAchievements)
	return res, nil
}

func (s *progressService) GetCertificate(ctx context.Context, courseID uuid.UUID) (domainagg.GetOrIssueCertificateResult, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return domainagg.GetOrIssueCertificateResult{}, err
	}
	res, err := s.agg.GetOrIssueCertificate(ctx, domainagg.GetOrIssueCertificateInput{UserID: userID, CourseID: courseID})
	if err != nil {
		return res, err
	}
	if res.Created {
		s.metrics.IncProgressEvent(ProgressEventCertificateIssued)
		s.log.Warn("certificate issued on view", "user_id", userID, "course_id", courseID)
	}
	return res, nil
}

func (s *progressService) GetStreak(ctx context.Context) (domainagg.RefreshAchievementsResult, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return domainagg.RefreshAchievementsResult{}, err
	}
	res, err := s.agg.RefreshAchievements(ctx, userID)
	if err != nil {
		return res, err
	}
	s.notify.AchievementsUnlocked(ctx, userID, res.NewAchievements)
	return res, nil
}
