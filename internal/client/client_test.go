package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmind/internal/apperr"
	"taskmind/internal/client/fakeapi"
	"taskmind/internal/models"
)

func newTestClient(t *testing.T, prefix string, token string) (*Client, *fakeapi.Server) {
	t.Helper()
	api := fakeapi.New(t, prefix)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(api.URL, prefix, 5*time.Second, func() string { return token }, logger)
	return c, api
}

func TestClient_MissingCredentialSendsNothing(t *testing.T) {
	c, api := newTestClient(t, "/api/todo", "")
	ctx := context.Background()

	_, err := c.ListTasks(ctx)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = c.CreateTask(ctx, models.TaskInput{Title: "a", Description: "b"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = c.UpdateTask(ctx, "t1", models.TaskPatch{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.ErrorIs(t, c.DeleteTask(ctx, "t1"), apperr.ErrUnauthorized)

	assert.Empty(t, api.Requests())
}

func TestClient_CRUDRoundTrip(t *testing.T) {
	c, api := newTestClient(t, "/api/todo", fakeapi.DefaultToken)
	ctx := context.Background()

	tasks, err := c.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	due := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	created, err := c.CreateTask(ctx, models.TaskInput{Title: "Buy milk", Description: "2 litres", DueDate: &due, Priority: models.PriorityHigh})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "2026-10-20", models.FormatDate(created.DueDate))
	assert.NotNil(t, created.CreatedAt)

	done := true
	updated, err := c.UpdateTask(ctx, created.ID, models.TaskPatch{Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Buy milk", updated.Title)

	require.NoError(t, c.DeleteTask(ctx, created.ID))
	assert.Empty(t, api.Tasks())

	reqs := api.Requests()
	require.Len(t, reqs, 4)
	assert.Equal(t, "/api/todo/getToDo", reqs[0].Path)
	assert.Equal(t, "/api/todo/saveToDo", reqs[1].Path)
	assert.Equal(t, "/api/todo/updateToDo/"+created.ID, reqs[2].Path)
	assert.JSONEq(t, `{"completed":true}`, reqs[2].Body)
	assert.Equal(t, http.MethodDelete, reqs[3].Method)
	for _, r := range reqs {
		assert.Equal(t, "Bearer "+fakeapi.DefaultToken, r.Authorization)
		assert.NotEmpty(t, r.RequestID)
	}
}

func TestClient_BarePrefix(t *testing.T) {
	c, api := newTestClient(t, "", fakeapi.DefaultToken)
	api.Seed(models.Task{Title: "a", Description: "b"})

	tasks, err := c.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "/getToDo", api.Requests()[0].Path)
}

func TestClient_ErrorKinds(t *testing.T) {
	c, api := newTestClient(t, "/api/todo", fakeapi.DefaultToken)
	ctx := context.Background()

	api.FailNext("list", http.StatusInternalServerError)
	_, err := c.ListTasks(ctx)
	assert.ErrorIs(t, err, apperr.ErrServer)
	assert.Contains(t, err.Error(), "list failed")

	_, err = c.UpdateTask(ctx, "missing", models.TaskPatch{})
	assert.ErrorIs(t, err, apperr.ErrServer)

	rejected := New(api.URL, "/api/todo", time.Second, func() string { return "stale" }, nil)
	_, err = rejected.ListTasks(ctx)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, "/api/todo", time.Second, func() string { return "tok" }, nil)
	_, err := c.ListTasks(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrNetwork), "got %v", err)
}

func TestClient_NonArrayListIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"no todos"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second, func() string { return "tok" }, nil)
	tasks, err := c.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestClient_CreateWithoutIDIsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"title":"a"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second, func() string { return "tok" }, nil)
	_, err := c.CreateTask(context.Background(), models.TaskInput{Title: "a", Description: "b"})
	assert.ErrorIs(t, err, apperr.ErrServer)
}

func TestClient_LoginAndRegister(t *testing.T) {
	c, api := newTestClient(t, "/api/todo", "")
	ctx := context.Background()

	res, err := c.Register(ctx, "ada", "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, fakeapi.DefaultToken, res.Token)
	require.NotNil(t, res.User)
	assert.Equal(t, "ada", res.User.Username)

	res, err = c.Login(ctx, "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, fakeapi.DefaultToken, res.Token)

	_, err = c.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Contains(t, err.Error(), "Invalid credentials")

	_, err = c.Register(ctx, "ada", "ada@example.com", "pw")
	assert.ErrorIs(t, err, apperr.ErrServer)

	for _, r := range api.Requests() {
		assert.Empty(t, r.Authorization)
	}
}

func TestClient_FlatAuthResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"abc","username":"ada","email":"ada@example.com"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second, nil, nil)
	res, err := c.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Equal(t, models.Profile{Username: "ada", Email: "ada@example.com"}, *res.User)
}
