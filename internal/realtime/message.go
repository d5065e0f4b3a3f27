package realtime

import (
	"strings"

	"github.com/google/uuid"
)

type Event string

const (
	EventLessonProgress      Event = "LessonProgressChanged"
	EventCourseCompleted     Event = "CourseCompleted"
	EventAchievementUnlocked Event = "AchievementUnlocked"
)

// Message is one server-sent event. Channel scopes delivery; progress
// events go to the owning user's channel.
type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}

// UserChannel is the channel every event about userID is published on.
func UserChannel(userID uuid.UUID) string {
	return "user:" + strings.ToLower(userID.String())
}
