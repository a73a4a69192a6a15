package tasks

import (
	"time"

	"taskmind/internal/models"
)

// calendarDay maps ts to midnight UTC of its own calendar date, so a due date
// and "today" compare by the day they name rather than by instant.
func calendarDay(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysUntilDue returns the signed number of calendar days from today to the
// task's due date. ok is false when the task has no due date.
func DaysUntilDue(t models.Task, today time.Time) (days int, ok bool) {
	if t.DueDate == nil {
		return 0, false
	}
	diff := calendarDay(*t.DueDate).Sub(calendarDay(today))
	return int(diff / (24 * time.Hour)), true
}

// IsOverdue reports whether an open task's due date lies before today.
func IsOverdue(t models.Task, today time.Time) bool {
	days, ok := DaysUntilDue(t, today)
	return ok && days < 0 && !t.Completed
}

// IsDueToday reports whether the task is due on today's date.
func IsDueToday(t models.Task, today time.Time) bool {
	days, ok := DaysUntilDue(t, today)
	return ok && days == 0
}

// IsDueWithinWeek reports whether the due date falls in [today, today+7].
func IsDueWithinWeek(t models.Task, today time.Time) bool {
	days, ok := DaysUntilDue(t, today)
	return ok && days >= 0 && days <= 7
}
