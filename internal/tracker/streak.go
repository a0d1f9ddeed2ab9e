package tracker

import (
	"time"

	"github.com/nhle/persistdo/internal/model"
)

// CreditStreak applies a completion made at now to the streak.
//
// Only the first completion of a calendar day (in loc) counts: a second
// completion on the same day leaves the streak alone, a completion on the
// day after the last credited day extends it, and anything else restarts
// it at 1. Un-completing a task never calls this, so a credited day is
// never taken back.
func CreditStreak(s model.StreakState, now time.Time, loc *time.Location) model.StreakState {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	today := local.Format(model.DateLayout)
	yesterday := local.AddDate(0, 0, -1).Format(model.DateLayout)

	switch s.LastDate {
	case today:
		return s
	case yesterday:
		return model.StreakState{Count: s.Count + 1, LastDate: today}
	default:
		return model.StreakState{Count: 1, LastDate: today}
	}
}
