package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/coursemarket-backend/internal/domain/catalog"
	"github.com/yungbote/coursemarket-backend/internal/domain/enrollment"
	"github.com/yungbote/coursemarket-backend/internal/domain/user"
)

var ProgressAggregateContract = Contract{
	Name:             "Enrollment.ProgressAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes: "Owns consistency between the lesson_progress ledger, enrollment progress/completion, " +
		"certificate issuance, streak state and achievements in one transaction per call.",
}

// ProgressAggregate owns enrollment progress writes.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeNotEnrolled, CodeNotCompleted,
// CodeRetryable, CodeInternal. Unique-constraint races on ledger, enrollment,
// certificate and achievement inserts are resolved internally.
type ProgressAggregate interface {
	Aggregate

	// Enroll creates the enrollment (or returns the existing one) and backfills its ledger.
	Enroll(ctx context.Context, in EnrollInput) (EnrollResult, error)

	// ToggleLesson flips one lesson's completion and reconciles the enrollment.
	ToggleLesson(ctx context.Context, in ToggleLessonInput) (ToggleLessonResult, error)

	// GetProgress reconciles the enrollment and returns the ordered ledger view.
	GetProgress(ctx context.Context, in GetProgressInput) (GetProgressResult, error)

	// GetOrIssueCertificate returns the enrollment's certificate, minting it when missing.
	GetOrIssueCertificate(ctx context.Context, in GetOrIssueCertificateInput) (GetOrIssueCertificateResult, error)

	// Reconcile backfills and recomputes one enrollment.
	Reconcile(ctx context.Context, enrollmentID uuid.UUID) (RecomputeResult, error)

	// RefreshAchievements awards any achievement the user's current totals
	// already qualify for and returns the streak with every unlocked achievement.
	RefreshAchievements(ctx context.Context, userID uuid.UUID) (RefreshAchievementsResult, error)
}

type EnrollInput struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
}

type EnrollResult struct {
	Enrollment *enrollment.Enrollment
	Created    bool
	Backfilled int
}

type ToggleLessonInput struct {
	UserID   uuid.UUID
	LessonID uuid.UUID
	// Today overrides the streak calendar day; zero means the current UTC date.
	Today time.Time
}

type ToggleLessonResult struct {
	EnrollmentID       uuid.UUID  `json:"enrollment_id"`
	CourseID           uuid.UUID  `json:"course_id"`
	LessonID           uuid.UUID  `json:"lesson_id"`
	Completed          bool       `json:"completed"`
	// LessonCompletedAt is the toggled lesson's timestamp; nil when undone.
	LessonCompletedAt  *time.Time `json:"completed_at"`
	CourseProgress     int        `json:"course_progress"`
	CourseCompleted    bool       `json:"course_completed"`
	NewlyCompleted     bool       `json:"newly_completed"`
	CourseCompletedAt  *time.Time `json:"course_completed_at"`
	CertificateCreated bool       `json:"certificate_created"`
	CertificateCode    *string    `json:"certificate_id"`

	Streak          *StreakState `json:"streak,omitempty"`
	NewAchievements []string     `json:"new_achievements,omitempty"`
}

type GetProgressInput struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
}

type LessonState struct {
	Lesson      *catalog.Lesson `json:"lesson"`
	Completed   bool            `json:"completed"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

type GetProgressResult struct {
	EnrollmentID uuid.UUID     `json:"enrollment_id"`
	Lessons      []LessonState `json:"lessons"`
	Percentage   int           `json:"percentage"`
	IsCompleted  bool          `json:"is_completed"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

type GetOrIssueCertificateInput struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
}

type GetOrIssueCertificateResult struct {
	Certificate *enrollment.Certificate
	Created     bool
}

type RefreshAchievementsResult struct {
	Streak          StreakState         `json:"streak"`
	Achievements    []*user.Achievement `json:"achievements"`
	NewAchievements []string            `json:"new_achievements,omitempty"`
}

// RecomputeResult reports what a recompute observed and whether it wrote.
type RecomputeResult struct {
	Percentage     int
	Total          int
	Completed      int
	NewlyCompleted bool
	Regressed      bool
	Wrote          bool
	Backfilled     int
}

// StreakState is the per-user daily activity counter.
type StreakState struct {
	Current      int        `json:"current_streak"`
	Longest      int        `json:"longest_streak"`
	LastActivity *time.Time `json:"last_activity_date,omitempty"`
}

// StreakFromProfile reads the streak columns of a profile.
func StreakFromProfile(p *user.Profile) StreakState {
	if p == nil {
		return StreakState{}
	}
	st := StreakState{Current: p.CurrentStreak, Longest: p.LongestStreak}
	if p.LastActivityDate != nil {
		d := time.Time(*p.LastActivityDate)
		st.LastActivity = &d
	}
	return st
}
