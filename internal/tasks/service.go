package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"taskmind/internal/apperr"
	"taskmind/internal/models"
)

// Remote is the subset of the API client used by the dashboard actions.
type Remote interface {
	Lister
	CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error)
	UpdateTask(ctx context.Context, id string, updates any) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Service runs the dashboard actions: validate, call the remote service, then
// reconcile the collection with the authoritative response.
type Service struct {
	remote         Remote
	tasks          *Collection
	logger         *slog.Logger
	now            func() time.Time
	onUnauthorized func(context.Context)
}

// NewService constructs the service with its own collection loaded from remote.
func NewService(remote Remote, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		remote: remote,
		tasks:  NewCollection(remote, logger),
		logger: logger,
		now:    time.Now,
	}
}

// Collection exposes the task collection.
func (s *Service) Collection() *Collection {
	return s.tasks
}

// SetClock replaces the clock used for due date classification.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// OnUnauthorized registers fn to run whenever the remote service rejects the credential.
func (s *Service) OnUnauthorized(fn func(context.Context)) {
	s.onUnauthorized = fn
}

// ValidateInput trims the input and checks the required fields. Priority
// defaults to medium.
func ValidateInput(in models.TaskInput) (models.TaskInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" {
		return in, fmt.Errorf("%w: Please fill in both title and description", apperr.ErrValidation)
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if _, ok := models.ValidPriorities[in.Priority]; !ok {
		return in, fmt.Errorf("%w: unknown priority %q", apperr.ErrValidation, in.Priority)
	}
	return in, nil
}

// Refresh reloads the collection from the remote service.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.tasks.Load(ctx); err != nil {
		return s.fail(ctx, "refresh tasks", err)
	}
	return nil
}

// Create validates in, saves it remotely and appends the created record.
func (s *Service) Create(ctx context.Context, in models.TaskInput) (models.Task, error) {
	in, err := ValidateInput(in)
	if err != nil {
		return models.Task{}, err
	}
	gen := s.tasks.currentGeneration()
	task, err := s.remote.CreateTask(ctx, in)
	if err != nil {
		return models.Task{}, s.fail(ctx, "create task", err)
	}
	if !s.tasks.within(gen, func() { s.tasks.addLocked(task) }) {
		s.logger.Debug("dropping created task after reset", slog.String("id", task.ID))
		return task, nil
	}
	s.logger.Info("task created", slog.String("id", task.ID))
	return task, nil
}

// SaveEdit validates in and replaces every editable field of id.
func (s *Service) SaveEdit(ctx context.Context, id string, in models.TaskInput) (models.Task, error) {
	in, err := ValidateInput(in)
	if err != nil {
		return models.Task{}, err
	}
	gen := s.tasks.currentGeneration()
	task, err := s.remote.UpdateTask(ctx, id, in)
	if err != nil {
		return models.Task{}, s.fail(ctx, "update task", err)
	}
	s.reconcile(gen, task)
	return task, nil
}

// Toggle flips the completion flag of id.
func (s *Service) Toggle(ctx context.Context, id string) (models.Task, error) {
	current, ok := s.tasks.Get(id)
	if !ok {
		return models.Task{}, fmt.Errorf("toggle task %s: %w", id, apperr.ErrNotFound)
	}
	gen := s.tasks.currentGeneration()
	completed := !current.Completed
	task, err := s.remote.UpdateTask(ctx, id, models.TaskPatch{Completed: &completed})
	if err != nil {
		return models.Task{}, s.fail(ctx, "toggle task", err)
	}
	s.reconcile(gen, task)
	return task, nil
}

// Delete removes id remotely, then locally.
func (s *Service) Delete(ctx context.Context, id string) error {
	gen := s.tasks.currentGeneration()
	if err := s.remote.DeleteTask(ctx, id); err != nil {
		return s.fail(ctx, "delete task", err)
	}
	if !s.tasks.within(gen, func() { s.tasks.removeLocked(id) }) {
		s.logger.Debug("ignoring delete after reset", slog.String("id", id))
		return nil
	}
	s.logger.Info("task deleted", slog.String("id", id))
	return nil
}

// reconcile applies an updated record unless the collection was reset while
// the update was in flight.
func (s *Service) reconcile(gen uint64, task models.Task) {
	var replaced bool
	if !s.tasks.within(gen, func() { replaced = s.tasks.replaceLocked(task) }) {
		s.logger.Debug("dropping updated task after reset", slog.String("id", task.ID))
		return
	}
	if !replaced {
		s.logger.Warn("updated task is not in the local collection", slog.String("id", task.ID))
		return
	}
	s.logger.Info("task updated", slog.String("id", task.ID))
}

// fail logs a remote failure and ends the session when the credential was rejected.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	s.logger.Error("task action failed", slog.String("op", op), slog.String("error", err.Error()))
	if errors.Is(err, apperr.ErrUnauthorized) && s.onUnauthorized != nil {
		s.onUnauthorized(ctx)
	}
	return err
}

// Dashboard is everything the dashboard page renders for one set of criteria.
type Dashboard struct {
	Criteria models.Criteria `json:"criteria"`
	Visible  []models.Task   `json:"tasks"`
	Stats    models.Stats    `json:"stats"`
	Groups   Groups          `json:"groups"`
	Today    time.Time       `json:"today"`
}

// Dashboard derives the visible list, the statistics and the sidebar groups
// from one snapshot of the collection.
func (s *Service) Dashboard(c models.Criteria) Dashboard {
	today := s.now()
	all := s.tasks.Snapshot()
	return Dashboard{
		Criteria: c,
		Visible:  DeriveVisible(all, c, today),
		Stats:    ComputeStats(all, today),
		Groups:   GroupTasks(all),
		Today:    today,
	}
}

// Today returns the current time of the service clock.
func (s *Service) Today() time.Time {
	return s.now()
}
