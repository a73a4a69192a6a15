package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskmind/internal/apperr"
	"taskmind/internal/session"
	"taskmind/internal/tasks"
)

// Server serves the TaskMind dashboard pages and its JSON API.
type Server struct {
	engine     *gin.Engine
	session    *session.Manager
	tasks      *tasks.Service
	logger     *slog.Logger
	staticDir  string
	stylesheet string
}

// New constructs the HTTP server with routes and middleware configured.
func New(sess *session.Manager, svc *tasks.Service, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api/healthz", "/assets", "/favicon.ico"))
	router.SetHTMLTemplate(pageTemplates)

	srv := &Server{
		engine:    router,
		session:   sess,
		tasks:     svc,
		logger:    logger,
		staticDir: staticDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all page, API and static handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/login", s.handleLoginPage)
	s.engine.POST("/login", s.handleLoginForm)
	s.engine.GET("/register", s.handleRegisterPage)
	s.engine.POST("/register", s.handleRegisterForm)
	s.engine.POST("/logout", s.handleLogoutForm)

	pages := s.engine.Group("", s.requireDashboardPage)
	{
		pages.GET("/dashboard", s.handleDashboardPage)
		pages.POST("/refresh", s.handleRefreshForm)
		pages.POST("/tasks", s.handleCreateTaskForm)
		pages.POST("/tasks/:id", s.handleEditTaskForm)
		pages.POST("/tasks/:id/toggle", s.handleToggleTaskForm)
		pages.POST("/tasks/:id/delete", s.handleDeleteTaskForm)
	}

	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.GET("/session", s.handleSession)

		auth := api.Group("/auth")
		{
			auth.POST("/login", s.handleLogin)
			auth.POST("/register", s.handleRegister)
			auth.POST("/logout", s.handleLogout)
		}

		authed := api.Group("", s.requireDashboardJSON)
		{
			authed.POST("/refresh", s.handleRefresh)
			authed.GET("/tasks", s.handleListTasks)
			authed.POST("/tasks", s.handleCreateTask)
			authed.PUT("/tasks/:id", s.handleUpdateTask)
			authed.POST("/tasks/:id/toggle", s.handleToggleTask)
			authed.DELETE("/tasks/:id", s.handleDeleteTask)
			authed.GET("/stats", s.handleStats)
			authed.GET("/groups", s.handleGroups)
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleIndex dispatches on the session view.
func (s *Server) handleIndex(c *gin.Context) {
	switch view := s.session.View(); view {
	case session.ViewLoggedOut:
		c.Redirect(http.StatusSeeOther, "/login")
	case session.ViewLoggingIn:
		s.render(c, http.StatusOK, "loading", gin.H{"Title": "Signing in"})
	case session.ViewDashboard:
		c.Redirect(http.StatusSeeOther, "/dashboard")
	default:
		s.respondError(c, "open page", fmt.Errorf("unknown view %d", view))
	}
}

// requireDashboardPage sends visitors without a session back to the index.
func (s *Server) requireDashboardPage(c *gin.Context) {
	if s.session.View() != session.ViewDashboard {
		c.Redirect(http.StatusSeeOther, "/")
		c.Abort()
		return
	}
	c.Next()
}

// requireDashboardJSON rejects API calls without a session.
func (s *Server) requireDashboardJSON(c *gin.Context) {
	if s.session.View() != session.ViewDashboard {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	c.Next()
}

// respondError logs the error and returns a JSON payload with a user-facing notice.
func (s *Server) respondError(c *gin.Context, action string, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	} else {
		s.logger.Warn("request rejected", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": apperr.Notice(action, err)})
}

// respondSuccess writes payload as JSON, or only the status when payload is nil.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
