package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"taskmind/internal/models"
	"taskmind/internal/session"
	"taskmind/internal/tasks"
)

// Refresher reloads the task collection and exposes it for the digest.
type Refresher interface {
	Refresh(ctx context.Context) error
	Collection() *tasks.Collection
	Today() time.Time
}

// Viewer reports which page the session is on.
type Viewer interface {
	View() session.View
}

// Scheduler periodically reloads the task list of a signed in user and logs
// a digest of overdue and due-today tasks.
type Scheduler struct {
	cron    *cron.Cron
	tasks   Refresher
	session Viewer
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a stopped scheduler.
func New(tasks Refresher, session Viewer, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.Local)),
		tasks:   tasks,
		session: session,
		timeout: timeout,
		logger:  logger,
	}
}

// ScheduleRefresh registers the refresh job every interval.
func (s *Scheduler) ScheduleRefresh(interval time.Duration) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), s.RunOnce)
}

// RunOnce refreshes the collection and logs the due digest. It does nothing
// unless the dashboard is open.
func (s *Scheduler) RunOnce() {
	if view := s.session.View(); view != session.ViewDashboard {
		s.logger.Debug("skipping refresh", slog.String("view", view.String()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.tasks.Refresh(ctx); err != nil {
		s.logger.Warn("background refresh failed", slog.String("error", err.Error()))
		return
	}

	overdue, dueToday := Digest(s.tasks.Collection().Snapshot(), s.tasks.Today())
	if len(overdue) == 0 && len(dueToday) == 0 {
		return
	}
	s.logger.Info("task digest",
		slog.Int("overdue", len(overdue)),
		slog.Int("due_today", len(dueToday)),
		slog.Any("overdue_titles", titles(overdue)),
		slog.Any("due_today_titles", titles(dueToday)),
	)
}

// Digest splits out the open tasks that are overdue or due today.
func Digest(all []models.Task, today time.Time) (overdue, dueToday []models.Task) {
	for _, t := range all {
		switch {
		case tasks.IsOverdue(t, today):
			overdue = append(overdue, t)
		case !t.Completed && tasks.IsDueToday(t, today):
			dueToday = append(dueToday, t)
		}
	}
	return overdue, dueToday
}

func titles(ts []models.Task) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Title)
	}
	return out
}

// Start runs the scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
