// Package fakeapi is an in-process stand-in for the remote TaskMind API used by tests.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"taskmind/internal/models"
)

// DefaultToken is the bearer credential issued on login unless Server.IssuedToken is changed.
const DefaultToken = "fake-token"

// Request records one call received by the fake.
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          string
}

type account struct {
	username string
	password string
}

// Server serves the auth and to-do endpoints from memory.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	prefix   string
	accounts map[string]account
	tasks    []models.Task
	nextID   int
	failures map[string]int
	requests []Request

	// IssuedToken is returned by login and is the only token accepted on to-do calls.
	IssuedToken string
	// OmitUser drops the user object from auth responses.
	OmitUser bool
	// TokenOnRegister makes registration open a session directly.
	TokenOnRegister bool
}

// New starts a fake serving the to-do endpoints under prefix. It is closed on test cleanup.
func New(t testing.TB, prefix string) *Server {
	t.Helper()
	s := &Server{
		prefix:          strings.TrimRight(prefix, "/"),
		accounts:        map[string]account{},
		failures:        map[string]int{},
		IssuedToken:     DefaultToken,
		TokenOnRegister: true,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// AddUser registers an account directly.
func (s *Server) AddUser(username, email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = account{username: username, password: password}
}

// Seed appends tasks to the remote collection.
func (s *Server) Seed(tasks ...models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = s.allocateID()
		} else if n, err := strconv.Atoi(strings.TrimPrefix(t.ID, "t")); err == nil && strings.HasPrefix(t.ID, "t") && n > s.nextID {
			s.nextID = n
		}
		s.tasks = append(s.tasks, t)
	}
}

// allocateID returns the next free "t<N>" identifier.
func (s *Server) allocateID() string {
	for {
		s.nextID++
		id := fmt.Sprintf("t%d", s.nextID)
		if s.index(id) < 0 {
			return id
		}
	}
}

// Tasks returns a copy of the remote collection.
func (s *Server) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Task(nil), s.tasks...)
}

// FailNext makes the next call of op ("list", "create", "update", "delete",
// "login" or "register") answer with status.
func (s *Server) FailNext(op string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = status
}

// Requests returns every call received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if r.Body != nil {
		dec := json.NewDecoder(r.Body)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil {
			body = raw
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
		Body:          string(body),
	})

	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && path == "/api/auth/register":
		s.register(w, body)
	case r.Method == http.MethodPost && path == "/api/auth/login":
		s.login(w, body)
	case strings.HasPrefix(path, s.prefix+"/"):
		if r.Header.Get("Authorization") != "Bearer "+s.IssuedToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
			return
		}
		s.todo(w, r.Method, strings.TrimPrefix(path, s.prefix+"/"), body)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "endpoint not found"})
	}
}

func (s *Server) failure(w http.ResponseWriter, op string) bool {
	status, ok := s.failures[op]
	if !ok {
		return false
	}
	delete(s.failures, op)
	writeJSON(w, status, map[string]string{"message": op + " failed"})
	return true
}

func (s *Server) register(w http.ResponseWriter, body []byte) {
	if s.failure(w, "register") {
		return
	}
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid payload"})
		return
	}
	if _, exists := s.accounts[req.Email]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "user already exists"})
		return
	}
	s.accounts[req.Email] = account{username: req.Username, password: req.Password}

	resp := map[string]any{"message": "registered"}
	if s.TokenOnRegister {
		resp["token"] = s.IssuedToken
	}
	if !s.OmitUser {
		resp["user"] = models.Profile{Username: req.Username, Email: req.Email}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) login(w http.ResponseWriter, body []byte) {
	if s.failure(w, "login") {
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.Unmarshal(body, &req)
	acc, ok := s.accounts[req.Email]
	if !ok || acc.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}
	resp := map[string]any{"token": s.IssuedToken}
	if !s.OmitUser {
		resp["user"] = models.Profile{Username: acc.username, Email: req.Email}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) todo(w http.ResponseWriter, method, rest string, body []byte) {
	switch {
	case method == http.MethodGet && rest == "getToDo":
		if s.failure(w, "list") {
			return
		}
		out := s.tasks
		if out == nil {
			out = []models.Task{}
		}
		writeJSON(w, http.StatusOK, out)
	case method == http.MethodPost && rest == "saveToDo":
		if s.failure(w, "create") {
			return
		}
		s.create(w, body)
	case method == http.MethodPut && strings.HasPrefix(rest, "updateToDo/"):
		if s.failure(w, "update") {
			return
		}
		s.update(w, strings.TrimPrefix(rest, "updateToDo/"), body)
	case method == http.MethodDelete && strings.HasPrefix(rest, "deleteToDo/"):
		if s.failure(w, "delete") {
			return
		}
		s.delete(w, strings.TrimPrefix(rest, "deleteToDo/"))
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "endpoint not found"})
	}
}

func (s *Server) create(w http.ResponseWriter, body []byte) {
	var task models.Task
	if err := json.Unmarshal(body, &task); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	task.ID = s.allocateID()
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	now := time.Now().UTC()
	task.CreatedAt = &now
	s.tasks = append(s.tasks, task)
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) update(w http.ResponseWriter, id string, body []byte) {
	idx := s.index(id)
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "todo not found"})
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	task := s.tasks[idx]
	if v, ok := fields["title"]; ok {
		_ = json.Unmarshal(v, &task.Title)
	}
	if v, ok := fields["description"]; ok {
		_ = json.Unmarshal(v, &task.Description)
	}
	if v, ok := fields["priority"]; ok {
		_ = json.Unmarshal(v, &task.Priority)
	}
	if v, ok := fields["completed"]; ok {
		_ = json.Unmarshal(v, &task.Completed)
	}
	if v, ok := fields["dueDate"]; ok {
		var raw *string
		_ = json.Unmarshal(v, &raw)
		task.DueDate = nil
		if raw != nil {
			due, err := models.ParseDate(*raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
				return
			}
			task.DueDate = due
		}
	}
	s.tasks[idx] = task
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) delete(w http.ResponseWriter, id string) {
	idx := s.index(id)
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "todo not found"})
		return
	}
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted Successfully"})
}

func (s *Server) index(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
