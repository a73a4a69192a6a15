package server

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// stylesheetName is linked from every page when present in the assets directory.
const stylesheetName = "taskmind.css"

// mountStatic serves optional assets (stylesheets, icons) from the configured
// directory and installs the fallback for unknown routes.
func (s *Server) mountStatic() {
	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		c.Redirect(http.StatusSeeOther, "/")
	})

	if s.staticDir == "" {
		return
	}

	info, err := os.Stat(s.staticDir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing", slog.String("path", s.staticDir), slog.Any("error", err))
		return
	}

	assetsDir := filepath.Join(s.staticDir, "assets")
	if _, err := os.Stat(assetsDir); err == nil {
		s.engine.StaticFS("/assets", gin.Dir(assetsDir, false))
		if _, err := os.Stat(filepath.Join(assetsDir, stylesheetName)); err == nil {
			s.stylesheet = "/assets/" + stylesheetName
		}
	}

	favicon := filepath.Join(s.staticDir, "favicon.ico")
	if _, err := os.Stat(favicon); err == nil {
		s.engine.StaticFile("/favicon.ico", favicon)
	}
}
