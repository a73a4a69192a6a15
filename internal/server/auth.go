package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"taskmind/internal/apperr"
	"taskmind/internal/session"
)

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type registerRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Confirm  string `json:"confirmPassword" form:"confirmPassword"`
}

// sessionResponse describes the session for API clients.
type sessionResponse struct {
	View     session.View `json:"view"`
	Username string       `json:"username,omitempty"`
	Email    string       `json:"email,omitempty"`
}

func (s *Server) currentSession() sessionResponse {
	p := s.session.Profile()
	return sessionResponse{View: s.session.View(), Username: p.Username, Email: p.Email}
}

// handleSession reports the current view and profile.
func (s *Server) handleSession(c *gin.Context) {
	respondSuccess(c, http.StatusOK, s.currentSession())
}

// handleLogin signs in from a JSON body.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, "sign in", bindError(err))
		return
	}
	if _, err := s.session.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		s.respondError(c, "sign in", authError(err))
		return
	}
	respondSuccess(c, http.StatusOK, s.currentSession())
}

// handleRegister creates an account from a JSON body.
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, "register", bindError(err))
		return
	}
	confirm := req.Confirm
	if confirm == "" {
		// API clients may omit the confirmation field
		confirm = req.Password
	}
	if _, err := s.session.Register(c.Request.Context(), req.Username, req.Email, req.Password, confirm); err != nil {
		s.respondError(c, "register", authError(err))
		return
	}
	respondSuccess(c, http.StatusCreated, s.currentSession())
}

// handleLogout ends the session.
func (s *Server) handleLogout(c *gin.Context) {
	if err := s.session.Logout(c.Request.Context()); err != nil {
		s.respondError(c, "sign out", err)
		return
	}
	respondSuccess(c, http.StatusOK, s.currentSession())
}

// handleLoginPage renders the login form, or skips it when already signed in.
func (s *Server) handleLoginPage(c *gin.Context) {
	if s.session.View() == session.ViewDashboard {
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}
	s.render(c, http.StatusOK, "login", gin.H{"Title": "Sign in", "Notice": c.Query("notice"), "Email": ""})
}

// handleLoginForm signs in from the login form.
func (s *Server) handleLoginForm(c *gin.Context) {
	var req loginRequest
	err := c.ShouldBind(&req)
	if err != nil {
		err = bindError(err)
	} else {
		_, err = s.session.Login(c.Request.Context(), req.Email, req.Password)
	}
	if err != nil {
		s.render(c, apperr.Status(authError(err)), "login", gin.H{
			"Title": "Sign in",
			"Error": apperr.Notice("sign in", authError(err)),
			"Email": req.Email,
		})
		return
	}
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// handleRegisterPage renders the registration form.
func (s *Server) handleRegisterPage(c *gin.Context) {
	if s.session.View() == session.ViewDashboard {
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}
	s.render(c, http.StatusOK, "register", gin.H{"Title": "Create account", "Username": "", "Email": ""})
}

// handleRegisterForm creates an account from the registration form.
func (s *Server) handleRegisterForm(c *gin.Context) {
	var req registerRequest
	err := c.ShouldBind(&req)
	if err != nil {
		err = bindError(err)
	} else {
		_, err = s.session.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.Confirm)
	}
	if err != nil {
		s.render(c, apperr.Status(authError(err)), "register", gin.H{
			"Title":    "Create account",
			"Error":    apperr.Notice("register", authError(err)),
			"Username": req.Username,
			"Email":    req.Email,
		})
		return
	}
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// handleLogoutForm ends the session from the dashboard button.
func (s *Server) handleLogoutForm(c *gin.Context) {
	notice := ""
	if err := s.session.Logout(c.Request.Context()); err != nil {
		s.logger.Error("logout failed", slog.String("error", err.Error()))
		notice = apperr.Notice("sign out", err)
	}
	target := "/login"
	if notice != "" {
		target += "?notice=" + url.QueryEscape(notice)
	}
	c.Redirect(http.StatusSeeOther, target)
}

// bindError turns a binding failure into a validation error.
func bindError(error) error {
	return fmt.Errorf("%w: Please fill in every field", apperr.ErrValidation)
}

// authError keeps the "session ended" wording for dashboard calls only: a
// rejected login means wrong credentials.
func authError(err error) error {
	if errors.Is(err, apperr.ErrUnauthorized) {
		return fmt.Errorf("%w: Invalid email or password", apperr.ErrValidation)
	}
	if errors.Is(err, session.ErrBusy) || errors.Is(err, session.ErrSignInCancelled) {
		return fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}
	return err
}
