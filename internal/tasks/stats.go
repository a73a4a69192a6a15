package tasks

import (
	"math"
	"time"

	"taskmind/internal/models"
)

// ComputeStats summarises the full collection. CompletionRate is a rounded
// percentage and 0 for an empty collection.
func ComputeStats(tasks []models.Task, today time.Time) models.Stats {
	var st models.Stats
	st.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			st.Completed++
		} else {
			st.Pending++
		}
		if IsOverdue(t, today) {
			st.Overdue++
		}
		if IsDueToday(t, today) {
			st.DueToday++
		}
	}
	if st.Total > 0 {
		st.CompletionRate = int(math.Round(float64(st.Completed) * 100 / float64(st.Total)))
	}
	return st
}
