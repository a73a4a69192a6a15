package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Error kinds surfaced by the client. Callers wrap them with fmt.Errorf("...: %w")
// and inspect them with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNetwork      = errors.New("network error")
	ErrServer       = errors.New("server error")
	ErrNotFound     = errors.New("not found")
)

// Status maps an error to the HTTP status used by the local presentation server.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrServer):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Notice renders a short user-facing message for err.
func Notice(action string, err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrValidation):
		// validation messages are already written for the user
		msg := err.Error()
		if i := strings.Index(msg, ErrValidation.Error()+": "); i >= 0 {
			msg = msg[i+len(ErrValidation.Error())+2:]
		}
		return msg
	case errors.Is(err, ErrUnauthorized):
		return "Your session has ended, please sign in again"
	case errors.Is(err, ErrNetwork):
		return "Failed to " + action + ": the task service is unreachable"
	case errors.Is(err, ErrNotFound):
		return "Failed to " + action + ": task not found"
	default:
		return "Failed to " + action
	}
}
