package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"taskmind/internal/apperr"
	"taskmind/internal/models"
)

func (c *Client) todoPath(segment string) string {
	return c.todoPrefix + "/" + segment
}

// ListTasks fetches every task of the signed in user. A response that is not
// a JSON array is treated as an empty list.
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	auth, err := c.bearer("list tasks")
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, "list tasks", http.MethodGet, c.todoPath("getToDo"), auth, nil, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return []models.Task{}, nil
	}
	var tasks []models.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, fmt.Errorf("list tasks: %w: malformed response: %v", apperr.ErrServer, err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// CreateTask saves a new task and returns the authoritative record.
func (c *Client) CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error) {
	auth, err := c.bearer("create task")
	if err != nil {
		return models.Task{}, err
	}
	var task models.Task
	if err := c.do(ctx, "create task", http.MethodPost, c.todoPath("saveToDo"), auth, in, &task); err != nil {
		return models.Task{}, err
	}
	return checkRecord("create task", task)
}

// UpdateTask sends updates (a TaskInput or TaskPatch) for id and returns the updated record.
func (c *Client) UpdateTask(ctx context.Context, id string, updates any) (models.Task, error) {
	auth, err := c.bearer("update task")
	if err != nil {
		return models.Task{}, err
	}
	var task models.Task
	if err := c.do(ctx, "update task", http.MethodPut, c.todoPath("updateToDo/"+url.PathEscape(id)), auth, updates, &task); err != nil {
		return models.Task{}, err
	}
	return checkRecord("update task", task)
}

// DeleteTask removes id on the remote service.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	auth, err := c.bearer("delete task")
	if err != nil {
		return err
	}
	return c.do(ctx, "delete task", http.MethodDelete, c.todoPath("deleteToDo/"+url.PathEscape(id)), auth, nil, nil)
}

// checkRecord rejects a success response that does not identify a task.
func checkRecord(op string, task models.Task) (models.Task, error) {
	if task.ID == "" {
		return models.Task{}, fmt.Errorf("%s: %w: response carries no task id", op, apperr.ErrServer)
	}
	return task, nil
}
