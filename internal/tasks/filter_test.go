package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taskmind/internal/models"
)

var today = time.Date(2026, 10, 19, 14, 30, 0, 0, time.Local)

func dayOffset(days int) *time.Time {
	ts := time.Date(2026, 10, 19+days, 0, 0, 0, 0, time.UTC)
	return &ts
}

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: "1", Title: "Buy milk", Description: "Semi-skimmed", Priority: models.PriorityLow, DueDate: dayOffset(0)},
		{ID: "2", Title: "Write report", Description: "Quarterly MILK numbers", Priority: models.PriorityHigh, DueDate: dayOffset(3)},
		{ID: "3", Title: "Call plumber", Description: "Kitchen sink", Priority: models.PriorityHigh, DueDate: dayOffset(-1)},
		{ID: "4", Title: "File taxes", Description: "Before deadline", Priority: models.PriorityMedium, DueDate: dayOffset(-2), Completed: true},
		{ID: "5", Title: "Read book", Description: "Any novel", Priority: models.PriorityMedium},
		{ID: "6", Title: "Plan trip", Description: "Next month", Priority: models.PriorityLow, DueDate: dayOffset(7), Completed: true},
		{ID: "7", Title: "Renew passport", Description: "Far future", Priority: models.PriorityLow, DueDate: dayOffset(8)},
	}
}

func ids(tasks []models.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestDeriveVisible(t *testing.T) {
	cases := []struct {
		name     string
		criteria models.Criteria
		want     []string
	}{
		{"no filters", models.Criteria{}, []string{"1", "2", "3", "4", "5", "6", "7"}},
		{"status all", models.Criteria{Status: models.StatusAll}, []string{"1", "2", "3", "4", "5", "6", "7"}},
		{"search title or description case-insensitive", models.Criteria{Search: "mIlK"}, []string{"1", "2"}},
		{"pending", models.Criteria{Status: models.StatusPending}, []string{"1", "2", "3", "5", "7"}},
		{"completed", models.Criteria{Status: models.StatusCompleted}, []string{"4", "6"}},
		{"advanced status alone", models.Criteria{AdvancedStatus: models.StatusCompleted}, []string{"4", "6"}},
		{"conflicting status controls narrow to nothing", models.Criteria{Status: models.StatusPending, AdvancedStatus: models.StatusCompleted}, []string{}},
		{"priority", models.Criteria{Priority: models.PriorityHigh}, []string{"2", "3"}},
		{"due today", models.Criteria{Due: models.DueToday}, []string{"1"}},
		{"due this week inclusive", models.Criteria{Due: models.DueWeek}, []string{"1", "2", "6"}},
		{"overdue excludes completed", models.Criteria{Due: models.DueOverdue}, []string{"3"}},
		{"combined", models.Criteria{Search: "r", Status: models.StatusPending, Priority: models.PriorityHigh, Due: models.DueWeek}, []string{"2"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveVisible(sampleTasks(), tc.criteria, today)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestDeriveVisible_BucketExample(t *testing.T) {
	tasks := []models.Task{
		{ID: "a", DueDate: dayOffset(0)},
		{ID: "b", DueDate: dayOffset(3)},
		{ID: "c", DueDate: dayOffset(-1)},
	}
	assert.Equal(t, []string{"c"}, ids(DeriveVisible(tasks, models.Criteria{Due: models.DueOverdue}, today)))
	assert.Equal(t, []string{"a"}, ids(DeriveVisible(tasks, models.Criteria{Due: models.DueToday}, today)))
}

func TestDeriveVisible_NoDueDateNeverInBucket(t *testing.T) {
	tasks := []models.Task{{ID: "x"}}
	for _, b := range []models.DueBucket{models.DueToday, models.DueWeek, models.DueOverdue} {
		assert.Empty(t, DeriveVisible(tasks, models.Criteria{Due: b}, today), string(b))
	}
}

func TestDeriveVisible_PureAndIdempotent(t *testing.T) {
	all := sampleTasks()
	before := sampleTasks()
	criteria := []models.Criteria{
		{},
		{Search: "e", Status: models.StatusPending},
		{Priority: models.PriorityLow, Due: models.DueWeek},
		{AdvancedStatus: models.StatusCompleted, Due: models.DueOverdue},
	}
	for _, c := range criteria {
		first := DeriveVisible(all, c, today)
		second := DeriveVisible(all, c, today)
		assert.Equal(t, first, second)
		assert.Equal(t, first, DeriveVisible(first, c, today))
	}
	assert.Equal(t, before, all)
}

func TestDueHelpers(t *testing.T) {
	days, ok := DaysUntilDue(models.Task{DueDate: dayOffset(3)}, today)
	assert.True(t, ok)
	assert.Equal(t, 3, days)

	days, ok = DaysUntilDue(models.Task{DueDate: dayOffset(-4)}, today)
	assert.True(t, ok)
	assert.Equal(t, -4, days)

	_, ok = DaysUntilDue(models.Task{}, today)
	assert.False(t, ok)

	assert.True(t, IsOverdue(models.Task{DueDate: dayOffset(-1)}, today))
	assert.False(t, IsOverdue(models.Task{DueDate: dayOffset(-1), Completed: true}, today))
	assert.False(t, IsOverdue(models.Task{DueDate: dayOffset(0)}, today))
	assert.False(t, IsOverdue(models.Task{}, today))
}

func TestDaysUntilDue_AcrossMonthBoundary(t *testing.T) {
	endOfMonth := time.Date(2026, 10, 31, 23, 59, 0, 0, time.UTC)
	due := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	days, ok := DaysUntilDue(models.Task{DueDate: &due}, endOfMonth)
	assert.True(t, ok)
	assert.Equal(t, 2, days)
}
