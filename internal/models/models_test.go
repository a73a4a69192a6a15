package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_UnmarshalDueDateFormats(t *testing.T) {
	cases := map[string]string{
		"rfc3339 millis": `{"_id":"a1","title":"t","description":"d","dueDate":"2026-10-19T00:00:00.000Z"}`,
		"date only":      `{"_id":"a1","title":"t","description":"d","dueDate":"2026-10-19"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var task Task
			require.NoError(t, json.Unmarshal([]byte(body), &task))
			require.NotNil(t, task.DueDate)
			assert.Equal(t, "2026-10-19", FormatDate(task.DueDate))
			assert.Equal(t, "a1", task.ID)
		})
	}
}

func TestTask_UnmarshalNullDueDate(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"b","title":"t","description":"d","dueDate":null,"priority":"high","completed":true}`), &task))
	assert.Nil(t, task.DueDate)
	assert.Equal(t, PriorityHigh, task.Priority)
	assert.True(t, task.Completed)
}

func TestTask_UnmarshalInvalidDueDate(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{"_id":"c","dueDate":"next tuesday"}`), &task)
	assert.Error(t, err)
}

func TestTaskInput_MarshalJSON(t *testing.T) {
	due := time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC)
	b, err := json.Marshal(TaskInput{Title: "a", Description: "b", DueDate: &due, Priority: PriorityLow})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"a","description":"b","dueDate":"2026-10-21","priority":"low"}`, string(b))

	b, err = json.Marshal(TaskInput{Title: "a", Description: "b", Priority: PriorityMedium})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"a","description":"b","dueDate":null,"priority":"medium"}`, string(b))
}

func TestParseCriteria(t *testing.T) {
	c := ParseCriteria("milk", "PENDING", "completed", "High", "overdue")
	assert.Equal(t, Criteria{
		Search:         "milk",
		Status:         StatusPending,
		AdvancedStatus: StatusCompleted,
		Priority:       PriorityHigh,
		Due:            DueOverdue,
	}, c)

	c = ParseCriteria("", "bogus", "all", "urgent", "someday")
	assert.Equal(t, Criteria{Status: StatusAll}, c)
}

func TestPriority_OrDefault(t *testing.T) {
	assert.Equal(t, PriorityMedium, Priority("").OrDefault())
	assert.Equal(t, PriorityMedium, Priority("urgent").OrDefault())
	assert.Equal(t, PriorityHigh, PriorityHigh.OrDefault())
}

func TestProfile_DisplayName(t *testing.T) {
	assert.Equal(t, "ada", Profile{Username: "ada", Email: "ada@example.com"}.DisplayName())
	assert.Equal(t, "ada@example.com", Profile{Email: "ada@example.com"}.DisplayName())
}
