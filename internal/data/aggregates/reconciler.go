package aggregates

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

// ProgressPercentage is floor(completed*100/total) clamped to [0,100], and 0
// for a course without lessons.
func ProgressPercentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return min(max(completed*100/total, 0), 100)
}

// Reconciler keeps an enrollment's ledger and cached progress in step with
// the course's current lessons. Both methods expect the caller to hold the
// enrollment row lock inside dbc.
//
// Progress is measured against current (non-deleted) lessons only. Ledger
// rows for removed lessons stay in place but count towards neither side.
type Reconciler struct {
	Lessons        repos.LessonRepo
	LessonProgress repos.LessonProgressRepo
	CAS            CASGuard
	Log            *logger.Logger
}

// EnsureLedger inserts an incomplete row for every current lesson missing
// from the enrollment's ledger. Returns how many rows were inserted.
func (r Reconciler) EnsureLedger(dbc dbctx.Context, e *types.Enrollment) (int, error) {
	lessonIDs, err := r.Lessons.IDsByCourseID(dbc, e.CourseID)
	if err != nil {
		return 0, err
	}
	if len(lessonIDs) == 0 {
		return 0, nil
	}
	have, err := r.LessonProgress.LessonIDsByEnrollmentID(dbc, e.ID)
	if err != nil {
		return 0, err
	}
	present := make(map[uuid.UUID]struct{}, len(have))
	for _, id := range have {
		present[id] = struct{}{}
	}
	var missing []*types.LessonProgress
	for _, id := range lessonIDs {
		if _, ok := present[id]; ok {
			continue
		}
		missing = append(missing, &types.LessonProgress{EnrollmentID: e.ID, LessonID: id})
	}
	if len(missing) == 0 {
		return 0, nil
	}
	inserted, err := r.LessonProgress.InsertIgnoringConflicts(dbc, missing)
	if err != nil {
		return 0, err
	}
	if inserted > 0 && r.Log != nil {
		r.Log.Debug("ledger backfilled", "enrollment_id", e.ID, "inserted", inserted)
	}
	return inserted, nil
}

// Recompute derives progress and completion from the ledger and writes them
// only when they differ from the stored values. Entering completion stamps
// completed_at with now and leaving it clears completed_at. e is updated in
// place to match what was written.
func (r Reconciler) Recompute(dbc dbctx.Context, e *types.Enrollment, now time.Time) (domainagg.RecomputeResult, error) {
	var out domainagg.RecomputeResult
	total, err := r.Lessons.CountByCourseID(dbc, e.CourseID)
	if err != nil {
		return out, err
	}
	completed, err := r.LessonProgress.CountCompletedInCourse(dbc, e.ID, e.CourseID)
	if err != nil {
		return out, err
	}
	pct := ProgressPercentage(completed, total)
	isCompleted := total > 0 && pct == 100
	out = domainagg.RecomputeResult{Percentage: pct, Total: total, Completed: completed}

	completedAt := e.CompletedAt
	switch {
	case isCompleted && !e.IsCompleted:
		out.NewlyCompleted = true
		completedAt = &now
	case !isCompleted && e.IsCompleted:
		out.Regressed = true
		completedAt = nil
	case isCompleted && completedAt == nil:
		completedAt = &now
	case !isCompleted && completedAt != nil:
		completedAt = nil
	}

	if pct == e.Progress && isCompleted == e.IsCompleted && sameInstant(completedAt, e.CompletedAt) {
		return out, nil
	}

	var completedAtVal any
	if completedAt != nil {
		completedAtVal = *completedAt
	}
	ok, err := r.CAS.UpdateIfMatches(dbc, "enrollment", e.ID,
		map[string]any{"progress": e.Progress, "is_completed": e.IsCompleted},
		map[string]any{
			"progress":     pct,
			"is_completed": isCompleted,
			"completed_at": completedAtVal,
			"updated_at":   now,
		},
	)
	if err != nil {
		return out, err
	}
	if err := RequireCASSuccess(ok, "enrollment progress changed during recompute"); err != nil {
		return out, err
	}
	e.Progress = pct
	e.IsCompleted = isCompleted
	e.CompletedAt = completedAt
	e.UpdatedAt = now
	out.Wrote = true
	if r.Log != nil {
		r.Log.Debug("enrollment recomputed",
			"enrollment_id", e.ID,
			"progress", pct,
			"completed", completed,
			"total", total,
			"newly_completed", out.NewlyCompleted,
			"regressed", out.Regressed,
		)
	}
	return out, nil
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
