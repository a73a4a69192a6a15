package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"taskmind/internal/apperr"
	"taskmind/internal/models"
	"taskmind/internal/session"
)

type taskRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	DueDate     string `json:"dueDate" form:"dueDate"`
	Priority    string `json:"priority" form:"priority"`
}

// input converts the request into a task input. Required fields are checked
// by the task service.
func (r taskRequest) input() (models.TaskInput, error) {
	due, err := models.ParseDate(r.DueDate)
	if err != nil {
		return models.TaskInput{}, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	priority := models.Priority(r.Priority)
	if p, ok := models.ParsePriority(r.Priority); ok {
		priority = p
	}
	return models.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     due,
		Priority:    priority,
	}, nil
}

type criteriaQuery struct {
	Search         string `form:"q"`
	Status         string `form:"status"`
	AdvancedStatus string `form:"adv_status"`
	Priority       string `form:"priority"`
	Due            string `form:"due"`
}

func (q criteriaQuery) criteria() models.Criteria {
	return models.ParseCriteria(q.Search, q.Status, q.AdvancedStatus, q.Priority, q.Due)
}

func (q criteriaQuery) values() url.Values {
	v := url.Values{}
	for key, val := range map[string]string{
		"q": q.Search, "status": q.Status, "adv_status": q.AdvancedStatus,
		"priority": q.Priority, "due": q.Due,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}
	return v
}

// ensureLoaded fetches the task list the first time the dashboard is used in a session.
func (s *Server) ensureLoaded(c *gin.Context) error {
	if s.tasks.Collection().Loaded() {
		return nil
	}
	return s.tasks.Refresh(c.Request.Context())
}

// handleListTasks returns the visible tasks for the criteria in the query string.
func (s *Server) handleListTasks(c *gin.Context) {
	var q criteriaQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.respondError(c, "load tasks", bindError(err))
		return
	}
	if err := s.ensureLoaded(c); err != nil {
		s.respondError(c, "load tasks", err)
		return
	}
	d := s.tasks.Dashboard(q.criteria())
	respondSuccess(c, http.StatusOK, gin.H{"tasks": d.Visible, "criteria": d.Criteria, "total": d.Stats.Total})
}

// handleStats returns the statistics of the full collection.
func (s *Server) handleStats(c *gin.Context) {
	if err := s.ensureLoaded(c); err != nil {
		s.respondError(c, "load tasks", err)
		return
	}
	respondSuccess(c, http.StatusOK, s.tasks.Dashboard(models.Criteria{}).Stats)
}

// handleGroups returns the projects and tags of the collection.
func (s *Server) handleGroups(c *gin.Context) {
	if err := s.ensureLoaded(c); err != nil {
		s.respondError(c, "load tasks", err)
		return
	}
	respondSuccess(c, http.StatusOK, s.tasks.Dashboard(models.Criteria{}).Groups)
}

// handleRefresh reloads the collection from the task service.
func (s *Server) handleRefresh(c *gin.Context) {
	if err := s.tasks.Refresh(c.Request.Context()); err != nil {
		s.respondError(c, "load tasks", err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"total": s.tasks.Collection().Len()})
}

// handleCreateTask creates a task from a JSON body.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, "add task", bindError(err))
		return
	}
	in, err := req.input()
	if err != nil {
		s.respondError(c, "add task", err)
		return
	}
	task, err := s.tasks.Create(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, "add task", err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

// handleUpdateTask saves every editable field of a task.
func (s *Server) handleUpdateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, "update task", bindError(err))
		return
	}
	in, err := req.input()
	if err != nil {
		s.respondError(c, "update task", err)
		return
	}
	task, err := s.tasks.SaveEdit(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		s.respondError(c, "update task", err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleToggleTask flips the completion flag.
func (s *Server) handleToggleTask(c *gin.Context) {
	if err := s.ensureLoaded(c); err != nil {
		s.respondError(c, "load tasks", err)
		return
	}
	task, err := s.tasks.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, "update task", err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task.
func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, "delete task", err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleRefreshForm reloads the collection from the dashboard button.
func (s *Server) handleRefreshForm(c *gin.Context) {
	err := s.tasks.Refresh(c.Request.Context())
	s.redirectDashboard(c, "load tasks", err)
}

// handleCreateTaskForm creates a task from the dashboard form.
func (s *Server) handleCreateTaskForm(c *gin.Context) {
	var req taskRequest
	err := c.ShouldBind(&req)
	var in models.TaskInput
	if err == nil {
		in, err = req.input()
	} else {
		err = bindError(err)
	}
	if err == nil {
		_, err = s.tasks.Create(c.Request.Context(), in)
	}
	s.redirectDashboard(c, "add task", err)
}

// handleEditTaskForm saves the inline edit form of a task.
func (s *Server) handleEditTaskForm(c *gin.Context) {
	var req taskRequest
	err := c.ShouldBind(&req)
	var in models.TaskInput
	if err == nil {
		in, err = req.input()
	} else {
		err = bindError(err)
	}
	if err == nil {
		_, err = s.tasks.SaveEdit(c.Request.Context(), c.Param("id"), in)
	}
	s.redirectDashboard(c, "update task", err)
}

// handleToggleTaskForm flips the completion flag from the task checkbox.
func (s *Server) handleToggleTaskForm(c *gin.Context) {
	if err := s.ensureLoaded(c); err != nil {
		s.redirectDashboard(c, "load tasks", err)
		return
	}
	_, err := s.tasks.Toggle(c.Request.Context(), c.Param("id"))
	s.redirectDashboard(c, "update task", err)
}

// handleDeleteTaskForm removes a task from its delete button.
func (s *Server) handleDeleteTaskForm(c *gin.Context) {
	err := s.tasks.Delete(c.Request.Context(), c.Param("id"))
	s.redirectDashboard(c, "delete task", err)
}

// redirectDashboard returns to the dashboard with the filters the form was
// submitted from, adding a notice when err is set. A rejected credential has
// already ended the session, so that case lands on the login page.
func (s *Server) redirectDashboard(c *gin.Context, action string, err error) {
	values, parseErr := url.ParseQuery(c.PostForm("return"))
	if parseErr != nil {
		values = url.Values{}
	}
	values.Del("notice")
	if err != nil {
		s.logger.Warn("dashboard action failed", slog.String("action", action), slog.String("error", err.Error()))
		values.Set("notice", apperr.Notice(action, err))
	}

	target := "/dashboard"
	if s.session.View() != session.ViewDashboard {
		target = "/login"
		values = url.Values{"notice": values["notice"]}
		if err == nil {
			values = url.Values{}
		}
	}
	if encoded := values.Encode(); encoded != "" {
		target += "?" + encoded
	}
	c.Redirect(http.StatusSeeOther, target)
}
