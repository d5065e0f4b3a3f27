package services

import (
	"context"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/realtime"
)

// ProgressNotifier turns committed progress changes into realtime events on
// the user's channel.
type ProgressNotifier interface {
	LessonToggled(ctx context.Context, userID uuid.UUID, res domainagg.ToggleLessonResult)
	CourseCompleted(ctx context.Context, userID uuid.UUID, res domainagg.ToggleLessonResult)
	AchievementsUnlocked(ctx context.Context, userID uuid.UUID, kinds []string)
}

type progressNotifier struct {
	emit Emitter
}

func NewProgressNotifier(emit Emitter) ProgressNotifier {
	return &progressNotifier{emit: emit}
}

func (n *progressNotifier) LessonToggled(ctx context.Context, userID uuid.UUID, res domainagg.ToggleLessonResult) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(ctx, realtime.Message{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.EventLessonProgress,
		Data: map[string]any{
			"course_id":        res.CourseID,
			"lesson_id":        res.LessonID,
			"completed":        res.Completed,
			"course_progress":  res.CourseProgress,
			"course_completed": res.CourseCompleted,
		},
	})
}

func (n *progressNotifier) CourseCompleted(ctx context.Context, userID uuid.UUID, res domainagg.ToggleLessonResult) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(ctx, realtime.Message{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.EventCourseCompleted,
		Data: map[string]any{
			"course_id":      res.CourseID,
			"completed_at":   res.CourseCompletedAt,
			"certificate_id": res.CertificateCode,
		},
	})
}

func (n *progressNotifier) AchievementsUnlocked(ctx context.Context, userID uuid.UUID, kinds []string) {
	if n == nil || n.emit == nil || userID == uuid.Nil || len(kinds) == 0 {
		return
	}
	n.emit.Emit(ctx, realtime.Message{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.EventAchievementUnlocked,
		Data:    map[string]any{"kinds": kinds},
	})
}
