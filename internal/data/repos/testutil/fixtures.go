package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB) *types.User {
	tb.Helper()
	id := uuid.New()
	u := &types.User{
		ID:       id,
		Username: "u-" + id.String()[:8],
		Email:    id.String() + "@example.com",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedProfile creates a student profile. lastActivity may be nil.
func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, current, longest int, lastActivity *time.Time) *types.Profile {
	tb.Helper()
	p := &types.Profile{
		ID:            uuid.New(),
		UserID:        userID,
		Role:          types.RoleStudent,
		CurrentStreak: current,
		LongestStreak: longest,
	}
	if lastActivity != nil {
		d := datatypes.Date(*lastActivity)
		p.LastActivityDate = &d
	}
	if err := tx.WithContext(ctx).Omit("User").Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, instructorID uuid.UUID, status string) *types.Course {
	tb.Helper()
	id := uuid.New()
	c := &types.Course{
		ID:           id,
		InstructorID: instructorID,
		Title:        "Course " + id.String()[:8],
		Slug:         "course-" + id.String(),
		Status:       status,
	}
	if err := tx.WithContext(ctx).Omit("Instructor").Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

// SeedLessons appends n lessons after the course's current highest order.
func SeedLessons(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, n int) []*types.Lesson {
	tb.Helper()
	var maxOrder int
	if err := tx.WithContext(ctx).
		Unscoped().
		Model(&types.Lesson{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(MAX(order_index), 0)").
		Scan(&maxOrder).Error; err != nil {
		tb.Fatalf("seed lessons max order: %v", err)
	}
	out := make([]*types.Lesson, 0, n)
	for i := 1; i <= n; i++ {
		order := maxOrder + i
		l := &types.Lesson{
			ID:       uuid.New(),
			CourseID: courseID,
			Order:    order,
			Title:    fmt.Sprintf("Lesson %d", order),
		}
		if err := tx.WithContext(ctx).Omit("Course").Create(l).Error; err != nil {
			tb.Fatalf("seed lesson: %v", err)
		}
		out = append(out, l)
	}
	return out
}

// SeedEnrollment inserts a bare enrollment row without backfilling its ledger.
func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) *types.Enrollment {
	tb.Helper()
	e := &types.Enrollment{
		ID:       uuid.New(),
		UserID:   userID,
		CourseID: courseID,
	}
	if err := tx.WithContext(ctx).Omit("User", "Course").Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}
