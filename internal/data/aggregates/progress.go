package aggregates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/domain/catalog"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
)

type ProgressAggregateDeps struct {
	Base BaseDeps

	Repos repos.Set

	// Rules defaults to DefaultAchievementRules when nil.
	Rules []AchievementRule
	// Clock defaults to time.Now.
	Clock func() time.Time
	// NewCertificateCode defaults to enrollment.NewCertificateCode.
	NewCertificateCode func() (string, error)
}

type progressAggregate struct {
	deps ProgressAggregateDeps

	reconciler   Reconciler
	issuer       CertificateIssuer
	streaks      StreakTracker
	achievements AchievementEvaluator
}

func NewProgressAggregate(deps ProgressAggregateDeps) domainagg.ProgressAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Rules == nil {
		deps.Rules = DefaultAchievementRules()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	log := deps.Base.Log.With("aggregate", "ProgressAggregate")
	return &progressAggregate{
		deps: deps,
		reconciler: Reconciler{
			Lessons:        deps.Repos.Lessons,
			LessonProgress: deps.Repos.LessonProgress,
			CAS:            deps.Base.CASGuard,
			Log:            log,
		},
		issuer: CertificateIssuer{
			Certificates: deps.Repos.Certificates,
			Log:          log,
			NewCode:      deps.NewCertificateCode,
		},
		streaks: StreakTracker{Profiles: deps.Repos.Profiles, Log: log},
		achievements: AchievementEvaluator{
			Rules:        deps.Rules,
			Enrollments:  deps.Repos.Enrollments,
			Achievements: deps.Repos.Achievements,
			Log:          log,
		},
	}
}

func (a *progressAggregate) Contract() domainagg.Contract {
	return domainagg.ProgressAggregateContract
}

func (a *progressAggregate) now() time.Time {
	return a.deps.Clock().UTC()
}

func (a *progressAggregate) configured() bool {
	r := a.deps.Repos
	return r.Courses != nil && r.Lessons != nil && r.Enrollments != nil &&
		r.LessonProgress != nil && r.Certificates != nil && r.Profiles != nil &&
		r.Achievements != nil
}

func (a *progressAggregate) Enroll(ctx context.Context, in domainagg.EnrollInput) (domainagg.EnrollResult, error) {
	const op = "Enrollment.Progress.Enroll"
	var out domainagg.EnrollResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.CourseID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing course_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "progress aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.EnrollResult{}
		course, err := a.deps.Repos.Courses.GetByID(dbc, in.CourseID)
		if err != nil {
			return err
		}
		if course == nil {
			return notFound(op, fmt.Sprintf("course not found: %s", in.CourseID))
		}
		if !course.IsPublished() {
			return ValidationError("course is not published")
		}
		if course.InstructorID == in.UserID {
			return ValidationError("instructors cannot enroll in their own course")
		}

		created, err := a.deps.Repos.Enrollments.CreateIfAbsent(dbc, &types.Enrollment{
			UserID:   in.UserID,
			CourseID: in.CourseID,
		})
		if err != nil {
			return err
		}
		e, err := a.deps.Repos.Enrollments.LockByUserAndCourse(dbc, in.UserID, in.CourseID)
		if err != nil {
			return err
		}
		if e == nil {
			return InvariantError("enrollment missing after insert")
		}
		res, _, _, err := a.reconcileLocked(dbc, e)
		if err != nil {
			return err
		}
		out.Enrollment = e
		out.Created = created
		out.Backfilled = res.Backfilled
		return nil
	})
	return out, err
}

func (a *progressAggregate) ToggleLesson(ctx context.Context, in domainagg.ToggleLessonInput) (domainagg.ToggleLessonResult, error) {
	const op = "Enrollment.Progress.ToggleLesson"
	var out domainagg.ToggleLessonResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.LessonID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing lesson_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "progress aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.ToggleLessonResult{}
		now := a.now()
		today := now
		if !in.Today.IsZero() {
			today = in.Today
		}

		lesson, err := a.deps.Repos.Lessons.GetByID(dbc, in.LessonID)
		if err != nil {
			return err
		}
		if lesson == nil {
			return notFound(op, fmt.Sprintf("lesson not found: %s", in.LessonID))
		}
		e, err := a.deps.Repos.Enrollments.LockByUserAndCourse(dbc, in.UserID, lesson.CourseID)
		if err != nil {
			return err
		}
		if e == nil {
			return notEnrolled(op)
		}
		if _, err := a.reconciler.EnsureLedger(dbc, e); err != nil {
			return err
		}

		row, err := a.lockLedgerRow(dbc, e.ID, lesson.ID)
		if err != nil {
			return err
		}
		completed := !row.Completed
		var completedAt *time.Time
		if completed {
			completedAt = &now
		}
		var completedAtVal any
		if completedAt != nil {
			completedAtVal = *completedAt
		}
		if err := a.deps.Repos.LessonProgress.UpdateFields(dbc, row.ID, map[string]interface{}{
			"completed":    completed,
			"completed_at": completedAtVal,
			"updated_at":   now,
		}); err != nil {
			return err
		}

		var streak *domainagg.StreakState
		if completed {
			streak, err = a.streaks.UpdateStreak(dbc, in.UserID, today)
			if err != nil {
				return err
			}
		}

		res, err := a.reconciler.Recompute(dbc, e, now)
		if err != nil {
			return err
		}

		out.EnrollmentID = e.ID
		out.CourseID = e.CourseID
		out.LessonID = lesson.ID
		out.Completed = completed
		out.LessonCompletedAt = completedAt
		out.CourseProgress = e.Progress
		out.CourseCompleted = e.IsCompleted
		out.NewlyCompleted = res.NewlyCompleted
		out.CourseCompletedAt = e.CompletedAt
		out.Streak = streak

		if e.IsCompleted {
			cert, created, err := a.issuer.IssueIfAbsent(dbc, e)
			if err != nil {
				return err
			}
			code := cert.Code
			out.CertificateCode = &code
			out.CertificateCreated = created
		}

		if completed {
			current := 0
			if streak != nil {
				current = streak.Current
			}
			unlocked, err := a.achievements.Evaluate(dbc, in.UserID, current)
			if err != nil {
				return err
			}
			out.NewAchievements = unlocked
		}
		return nil
	})
	return out, err
}

// lockLedgerRow returns the locked ledger row, creating it when the lesson
// was added after the ledger was last backfilled.
func (a *progressAggregate) lockLedgerRow(dbc dbctx.Context, enrollmentID, lessonID uuid.UUID) (*types.LessonProgress, error) {
	row, err := a.deps.Repos.LessonProgress.LockByEnrollmentAndLesson(dbc, enrollmentID, lessonID)
	if err != nil || row != nil {
		return row, err
	}
	if _, err := a.deps.Repos.LessonProgress.InsertIgnoringConflicts(dbc, []*types.LessonProgress{
		{EnrollmentID: enrollmentID, LessonID: lessonID},
	}); err != nil {
		return nil, err
	}
	row, err = a.deps.Repos.LessonProgress.LockByEnrollmentAndLesson(dbc, enrollmentID, lessonID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, InvariantError("lesson progress row missing after insert")
	}
	return row, nil
}

func (a *progressAggregate) GetProgress(ctx context.Context, in domainagg.GetProgressInput) (domainagg.GetProgressResult, error) {
	const op = "Enrollment.Progress.GetProgress"
	var out domainagg.GetProgressResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.CourseID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing course_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "progress aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.GetProgressResult{}
		e, err := a.lockEnrollment(dbc, op, in.UserID, in.CourseID)
		if err != nil {
			return err
		}
		if _, _, _, err := a.reconcileLocked(dbc, e); err != nil {
			return err
		}

		lessons, err := a.deps.Repos.Lessons.ListByCourseID(dbc, e.CourseID)
		if err != nil {
			return err
		}
		rows, err := a.deps.Repos.LessonProgress.ListByEnrollmentID(dbc, e.ID)
		if err != nil {
			return err
		}
		byLesson := make(map[uuid.UUID]*types.LessonProgress, len(rows))
		for _, r := range rows {
			byLesson[r.LessonID] = r
		}
		catalog.SortLessons(lessons)
		states := make([]domainagg.LessonState, 0, len(lessons))
		for _, l := range lessons {
			st := domainagg.LessonState{Lesson: l}
			if r := byLesson[l.ID]; r != nil {
				st.Completed = r.Completed
				st.CompletedAt = r.CompletedAt
			}
			states = append(states, st)
		}

		out.EnrollmentID = e.ID
		out.Lessons = states
		out.Percentage = e.Progress
		out.IsCompleted = e.IsCompleted
		out.CompletedAt = e.CompletedAt
		return nil
	})
	return out, err
}

func (a *progressAggregate) GetOrIssueCertificate(ctx context.Context, in domainagg.GetOrIssueCertificateInput) (domainagg.GetOrIssueCertificateResult, error) {
	const op = "Enrollment.Progress.GetOrIssueCertificate"
	var out domainagg.GetOrIssueCertificateResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.CourseID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing course_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "progress aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.GetOrIssueCertificateResult{}
		e, err := a.lockEnrollment(dbc, op, in.UserID, in.CourseID)
		if err != nil {
			return err
		}
		_, cert, created, err := a.reconcileLocked(dbc, e)
		if err != nil {
			return err
		}
		if cert == nil {
			return notCompleted(op)
		}
		out.Certificate = cert
		out.Created = created
		return nil
	})
	return out, err
}

func (a *progressAggregate) Reconcile(ctx context.Context, enrollmentID uuid.UUID) (domainagg.RecomputeResult, error) {
	const op = "Enrollment.Progress.Reconcile"
	var out domainagg.RecomputeResult
	if enrollmentID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing enrollment_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "progress aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.RecomputeResult{}
		e, err := a.deps.Repos.Enrollments.LockByID(dbc, enrollmentID)
		if err != nil {
			return err
		}
		if e == nil {
			return notFound(op, fmt.Sprintf("enrollment not found: %s", enrollmentID))
		}
		res, _, _, err := a.reconcileLocked(dbc, e)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

func (a *progressAggregate) RefreshAchievements(ctx context.Context, userID uuid.UUID) (domainagg.RefreshAchievementsResult, error) {
	const op = "Enrollment.Progress.RefreshAchievements"
	var out domainagg.RefreshAchievementsResult
	if userID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "progress aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.RefreshAchievementsResult{}
		profile, err := a.deps.Repos.Profiles.GetByUserID(dbc, userID)
		if err != nil {
			return err
		}
		out.Streak = domainagg.StreakFromProfile(profile)
		unlocked, err := a.achievements.Evaluate(dbc, userID, out.Streak.Current)
		if err != nil {
			return err
		}
		all, err := a.deps.Repos.Achievements.ListByUserID(dbc, userID)
		if err != nil {
			return err
		}
		out.NewAchievements = unlocked
		out.Achievements = all
		return nil
	})
	return out, err
}

// lockEnrollment resolves the course first so a missing course reports
// not_found rather than not_enrolled.
func (a *progressAggregate) lockEnrollment(dbc dbctx.Context, op string, userID, courseID uuid.UUID) (*types.Enrollment, error) {
	course, err := a.deps.Repos.Courses.GetByID(dbc, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, notFound(op, fmt.Sprintf("course not found: %s", courseID))
	}
	e, err := a.deps.Repos.Enrollments.LockByUserAndCourse(dbc, userID, courseID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, notEnrolled(op)
	}
	return e, nil
}

// reconcileLocked backfills and recomputes a locked enrollment, then makes
// sure a completed enrollment holds its certificate. The certificate is nil
// while the enrollment is active.
func (a *progressAggregate) reconcileLocked(dbc dbctx.Context, e *types.Enrollment) (domainagg.RecomputeResult, *types.Certificate, bool, error) {
	backfilled, err := a.reconciler.EnsureLedger(dbc, e)
	if err != nil {
		return domainagg.RecomputeResult{}, nil, false, err
	}
	res, err := a.reconciler.Recompute(dbc, e, a.now())
	if err != nil {
		return res, nil, false, err
	}
	res.Backfilled = backfilled
	if !e.IsCompleted {
		return res, nil, false, nil
	}
	cert, created, err := a.issuer.IssueIfAbsent(dbc, e)
	if err != nil {
		return res, nil, false, err
	}
	return res, cert, created, nil
}
