package server

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskmind/internal/apperr"
	"taskmind/internal/models"
	"taskmind/internal/session"
	"taskmind/internal/tasks"
)

var pageFuncs = template.FuncMap{
	"formatDate": models.FormatDate,
	"isOverdue":  tasks.IsOverdue,
	"dueLabel":   dueLabel,
	"priorityIcon": func(p models.Priority) string {
		switch p {
		case models.PriorityHigh:
			return "🔴"
		case models.PriorityLow:
			return "🟢"
		default:
			return "🟡"
		}
	},
}

// dueLabel describes the due date relative to today.
func dueLabel(t models.Task, today time.Time) string {
	days, ok := tasks.DaysUntilDue(t, today)
	switch {
	case !ok:
		return "No due date"
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due tomorrow"
	case days == -1:
		return "1 day overdue"
	case days < 0:
		return fmt.Sprintf("%d days overdue", -days)
	default:
		return fmt.Sprintf("Due in %d days", days)
	}
}

var pageTemplates = template.Must(template.New("pages").Funcs(pageFuncs).Parse(`
{{define "head"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} · TaskMind</title>
{{if .Stylesheet}}<link rel="stylesheet" href="{{.Stylesheet}}">{{end}}
</head>
<body>
{{end}}

{{define "foot"}}</body>
</html>
{{end}}

{{define "login"}}{{template "head" .}}
<main class="auth">
  <h1>TaskMind</h1>
  <h2>Sign in</h2>
  {{if .Notice}}<p class="notice">{{.Notice}}</p>{{end}}
  {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
  <form method="post" action="/login">
    <label>Email <input type="email" name="email" value="{{.Email}}" required></label>
    <label>Password <input type="password" name="password" required></label>
    <button type="submit">Sign in</button>
  </form>
  <p>No account yet? <a href="/register">Create one</a></p>
</main>
{{template "foot" .}}{{end}}

{{define "register"}}{{template "head" .}}
<main class="auth">
  <h1>TaskMind</h1>
  <h2>Create account</h2>
  {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
  <form method="post" action="/register">
    <label>Username <input type="text" name="username" value="{{.Username}}" required></label>
    <label>Email <input type="email" name="email" value="{{.Email}}" required></label>
    <label>Password <input type="password" name="password" required></label>
    <label>Confirm password <input type="password" name="confirmPassword" required></label>
    <button type="submit">Register</button>
  </form>
  <p>Already registered? <a href="/login">Sign in</a></p>
</main>
{{template "foot" .}}{{end}}

{{define "loading"}}{{template "head" .}}
<main class="loading">
  <p>Signing in…</p>
  <meta http-equiv="refresh" content="1">
</main>
{{template "foot" .}}{{end}}

{{define "dashboard"}}{{template "head" .}}
{{$today := .Board.Today}}{{$return := .Return}}
<header>
  <h1>TaskMind</h1>
  <span class="user">{{.Profile.DisplayName}}</span>
  <form method="post" action="/refresh"><input type="hidden" name="return" value="{{$return}}"><button type="submit">Refresh</button></form>
  <form method="post" action="/logout"><button type="submit">Sign out</button></form>
</header>
{{if .Notice}}<p class="notice">{{.Notice}}</p>{{end}}
<section class="stats">
  <div><strong>{{.Board.Stats.Total}}</strong> total</div>
  <div><strong>{{.Board.Stats.Completed}}</strong> completed</div>
  <div><strong>{{.Board.Stats.Pending}}</strong> pending</div>
  <div><strong>{{.Board.Stats.CompletionRate}}%</strong> done</div>
  <div><strong>{{.Board.Stats.Overdue}}</strong> overdue</div>
  <div><strong>{{.Board.Stats.DueToday}}</strong> due today</div>
</section>
<aside>
  <h3>Projects</h3>
  <ul>{{range .Board.Groups.Projects}}<li>{{.Name}} ({{.Completed}}/{{.Total}})</li>{{end}}</ul>
  <h3>Tags</h3>
  <ul>{{range .Board.Groups.Tags}}<li>#{{.}}</li>{{else}}<li>No tags</li>{{end}}</ul>
</aside>
<section class="filters">
  <form method="get" action="/dashboard">
    <input type="search" name="q" value="{{.Board.Criteria.Search}}" placeholder="Search tasks">
    <select name="status">
      {{range .Statuses}}<option value="{{.}}"{{if eq . $.Board.Criteria.Status}} selected{{end}}>{{.}}</option>{{end}}
    </select>
    <select name="adv_status">
      <option value="">any status</option>
      {{range .AdvancedStatuses}}<option value="{{.}}"{{if eq . $.Board.Criteria.AdvancedStatus}} selected{{end}}>{{.}}</option>{{end}}
    </select>
    <select name="priority">
      <option value="">any priority</option>
      {{range .Priorities}}<option value="{{.}}"{{if eq . $.Board.Criteria.Priority}} selected{{end}}>{{.}}</option>{{end}}
    </select>
    <select name="due">
      <option value="">any due date</option>
      {{range .DueBuckets}}<option value="{{.}}"{{if eq . $.Board.Criteria.Due}} selected{{end}}>{{.}}</option>{{end}}
    </select>
    <button type="submit">Apply</button>
  </form>
</section>
<section class="create">
  <h3>New task</h3>
  <form method="post" action="/tasks">
    <input type="hidden" name="return" value="{{$return}}">
    <input type="text" name="title" placeholder="Title" required>
    <textarea name="description" placeholder="Description" required></textarea>
    <input type="date" name="dueDate">
    <select name="priority">
      {{range .Priorities}}<option value="{{.}}"{{if eq (printf "%s" .) "medium"}} selected{{end}}>{{.}}</option>{{end}}
    </select>
    <button type="submit">Add task</button>
  </form>
</section>
<section class="tasks">
  {{range .Board.Visible}}
  <article class="task{{if .Completed}} done{{end}}{{if isOverdue . $today}} overdue{{end}}">
    <form method="post" action="/tasks/{{.ID}}/toggle">
      <input type="hidden" name="return" value="{{$return}}">
      <button type="submit">{{if .Completed}}☑{{else}}☐{{end}}</button>
    </form>
    <h4>{{priorityIcon .Priority}} {{.Title}}</h4>
    <p>{{.Description}}</p>
    <p class="due">{{dueLabel . $today}}</p>
    {{if .Project}}<p class="project">{{.Project}}</p>{{end}}
    {{if .Tags}}<p class="tags">{{range .Tags}}#{{.}} {{end}}</p>{{end}}
    <details>
      <summary>Edit</summary>
      <form method="post" action="/tasks/{{.ID}}">
        <input type="hidden" name="return" value="{{$return}}">
        <input type="text" name="title" value="{{.Title}}" required>
        <textarea name="description" required>{{.Description}}</textarea>
        <input type="date" name="dueDate" value="{{formatDate .DueDate}}">
        <select name="priority">
          {{$p := .Priority}}{{range $.Priorities}}<option value="{{.}}"{{if eq . $p}} selected{{end}}>{{.}}</option>{{end}}
        </select>
        <button type="submit">Save</button>
      </form>
    </details>
    <form method="post" action="/tasks/{{.ID}}/delete">
      <input type="hidden" name="return" value="{{$return}}">
      <button type="submit">Delete</button>
    </form>
  </article>
  {{else}}
  <p class="empty">No tasks match the current filters.</p>
  {{end}}
</section>
{{template "foot" .}}{{end}}
`))

// render adds the shared layout data and writes the named page.
func (s *Server) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Stylesheet"] = s.stylesheet
	if _, ok := data["Profile"]; !ok {
		data["Profile"] = s.session.Profile()
	}
	c.HTML(status, name, data)
}

// handleDashboardPage renders the task list for the filters in the query string.
func (s *Server) handleDashboardPage(c *gin.Context) {
	var q criteriaQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		// unknown filter values fall back to their defaults in ParseCriteria
		s.logger.Debug("ignoring malformed dashboard query", slog.String("error", err.Error()))
	}

	notice := c.Query("notice")
	if err := s.ensureLoaded(c); err != nil {
		if s.session.View() != session.ViewDashboard {
			s.redirectDashboard(c, "load tasks", err)
			return
		}
		notice = apperr.Notice("load tasks", err)
	}

	s.render(c, http.StatusOK, "dashboard", gin.H{
		"Title":            "Dashboard",
		"Board":            s.tasks.Dashboard(q.criteria()),
		"Return":           q.values().Encode(),
		"Notice":           notice,
		"Statuses":         []models.StatusFilter{models.StatusAll, models.StatusCompleted, models.StatusPending},
		"AdvancedStatuses": []models.StatusFilter{models.StatusCompleted, models.StatusPending},
		"Priorities":       []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh},
		"DueBuckets":       []models.DueBucket{models.DueToday, models.DueWeek, models.DueOverdue},
	})
}
