package aggregates

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

// CalendarDay truncates t to midnight UTC.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(CalendarDay(b).Sub(CalendarDay(a)).Hours() / 24)
}

// ApplyStreak advances a streak for one completion event on today.
//
// A gap of one day extends the streak, a longer gap restarts it at 1 and
// same-day events leave it unchanged. An event dated before the last
// activity day is ignored entirely so the recorded day never moves backwards.
func ApplyStreak(st domainagg.StreakState, today time.Time) domainagg.StreakState {
	day := CalendarDay(today)
	next := st
	if st.LastActivity == nil {
		next.Current = 1
	} else {
		gap := daysBetween(*st.LastActivity, day)
		switch {
		case gap < 0:
			return st
		case gap == 1:
			next.Current = st.Current + 1
		case gap > 1:
			next.Current = 1
		}
	}
	next.LastActivity = &day
	if next.Current > next.Longest {
		next.Longest = next.Current
	}
	return next
}

// StreakTracker persists streak changes on the user's profile.
type StreakTracker struct {
	Profiles repos.ProfileRepo
	Log      *logger.Logger
}

// UpdateStreak locks the profile and applies one completion on today. Users
// without a profile have no streak; that returns (nil, nil).
func (s StreakTracker) UpdateStreak(dbc dbctx.Context, userID uuid.UUID, today time.Time) (*domainagg.StreakState, error) {
	profile, err := s.Profiles.LockByUserID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		if s.Log != nil {
			s.Log.Debug("streak skipped, no profile", "user_id", userID)
		}
		return nil, nil
	}
	prev := domainagg.StreakFromProfile(profile)
	next := ApplyStreak(prev, today)
	if next.Current == prev.Current && next.Longest == prev.Longest && sameDay(prev.LastActivity, next.LastActivity) {
		return &next, nil
	}
	if err := s.Profiles.UpdateStreak(dbc, profile.ID, next.Current, next.Longest, *next.LastActivity); err != nil {
		return nil, err
	}
	return &next, nil
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return CalendarDay(*a).Equal(CalendarDay(*b))
}
