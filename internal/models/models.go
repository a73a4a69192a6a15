package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority ranks a task. The remote service stores it as a lowercase string.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriorities enumerates the priorities accepted by the task service.
var ValidPriorities = map[Priority]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
}

// ParsePriority returns the priority named by raw, ignoring case and spaces.
func ParsePriority(raw string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := ValidPriorities[p]
	return p, ok
}

// OrDefault returns p, or medium when p is empty or unknown.
func (p Priority) OrDefault() Priority {
	if _, ok := ValidPriorities[p]; ok {
		return p
	}
	return PriorityMedium
}

// Task is a single to-do record as returned by the remote task service.
type Task struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    Priority   `json:"priority"`
	Completed   bool       `json:"completed"`
	Project     string     `json:"project,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts due dates as RFC 3339 timestamps, bare calendar dates or null.
func (t *Task) UnmarshalJSON(b []byte) error {
	type alias Task
	aux := struct {
		*alias
		DueDate *string `json:"dueDate"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	t.DueDate = nil
	if aux.DueDate == nil {
		return nil
	}
	due, err := ParseDate(*aux.DueDate)
	if err != nil {
		return fmt.Errorf("task %s: %w", t.ID, err)
	}
	t.DueDate = due
	return nil
}

// dateLayouts lists the due date encodings seen from the task service and from HTML date inputs.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02",
}

// ParseDate parses a due date. An empty string means no due date.
func ParseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("invalid due date %q", raw)
}

// FormatDate renders a due date the way HTML date inputs expect it.
func FormatDate(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Format("2006-01-02")
}

// Profile identifies the signed in user.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// DisplayName prefers the username and falls back to the email address.
func (p Profile) DisplayName() string {
	if p.Username != "" {
		return p.Username
	}
	return p.Email
}

// Credential is the persisted bearer token together with the profile it belongs to.
type Credential struct {
	Token   string    `json:"token"`
	Profile Profile   `json:"user"`
	SavedAt time.Time `json:"saved_at"`
}

// TaskInput carries the editable fields of a task for create and edit-save.
type TaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    Priority
}

// MarshalJSON encodes the input as the task service expects it: the due date
// as a calendar date or null.
func (in TaskInput) MarshalJSON() ([]byte, error) {
	var due *string
	if in.DueDate != nil {
		s := FormatDate(in.DueDate)
		due = &s
	}
	return json.Marshal(struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		DueDate     *string  `json:"dueDate"`
		Priority    Priority `json:"priority"`
	}{in.Title, in.Description, due, in.Priority})
}

// TaskPatch is a partial update. Nil fields are omitted from the request body.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Completed   *bool     `json:"completed,omitempty"`
}

// StatusFilter selects tasks by completion.
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusCompleted StatusFilter = "completed"
	StatusPending   StatusFilter = "pending"
)

// DueBucket selects tasks by due date window.
type DueBucket string

const (
	DueToday   DueBucket = "today"
	DueWeek    DueBucket = "week"
	DueOverdue DueBucket = "overdue"
)

// Criteria are the dashboard filters. Zero values mean the filter is not applied,
// except Status where the zero value behaves like StatusAll.
type Criteria struct {
	Search         string       `json:"search,omitempty"`
	Status         StatusFilter `json:"status"`
	AdvancedStatus StatusFilter `json:"advanced_status,omitempty"`
	Priority       Priority     `json:"priority,omitempty"`
	Due            DueBucket    `json:"due,omitempty"`
}

// ParseCriteria builds criteria from raw form values. Unknown values leave the
// corresponding filter unset.
func ParseCriteria(search, status, advancedStatus, priority, due string) Criteria {
	c := Criteria{Search: search, Status: StatusAll}
	switch s := StatusFilter(strings.ToLower(status)); s {
	case StatusCompleted, StatusPending:
		c.Status = s
	}
	switch s := StatusFilter(strings.ToLower(advancedStatus)); s {
	case StatusCompleted, StatusPending:
		c.AdvancedStatus = s
	}
	if p, ok := ParsePriority(priority); ok {
		c.Priority = p
	}
	switch d := DueBucket(strings.ToLower(due)); d {
	case DueToday, DueWeek, DueOverdue:
		c.Due = d
	}
	return c
}

// Stats summarises the full task collection.
type Stats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	CompletionRate int `json:"completionRate"`
	Overdue        int `json:"overdue"`
	DueToday       int `json:"dueToday"`
}
