package tasks

import (
	"strings"
	"time"

	"taskmind/internal/models"
)

// DeriveVisible returns the tasks matching every active criterion, in their
// original order. It never modifies tasks.
func DeriveVisible(tasks []models.Task, c models.Criteria, today time.Time) []models.Task {
	search := strings.ToLower(c.Search)
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !matchesSearch(t, search) {
			continue
		}
		// the primary and the advanced status controls both narrow the same axis
		if !matchesStatus(t, c.Status) || !matchesStatus(t, c.AdvancedStatus) {
			continue
		}
		if c.Priority != "" && t.Priority != c.Priority {
			continue
		}
		if !matchesDue(t, c.Due, today) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesSearch(t models.Task, lowered string) bool {
	if lowered == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), lowered) ||
		strings.Contains(strings.ToLower(t.Description), lowered)
}

func matchesStatus(t models.Task, s models.StatusFilter) bool {
	switch s {
	case models.StatusCompleted:
		return t.Completed
	case models.StatusPending:
		return !t.Completed
	default:
		return true
	}
}

func matchesDue(t models.Task, b models.DueBucket, today time.Time) bool {
	switch b {
	case "":
		return true
	case models.DueToday:
		return IsDueToday(t, today)
	case models.DueWeek:
		return IsDueWithinWeek(t, today)
	case models.DueOverdue:
		return IsOverdue(t, today)
	default:
		return t.DueDate != nil
	}
}
