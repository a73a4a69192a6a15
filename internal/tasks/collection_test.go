package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmind/internal/apperr"
	"taskmind/internal/models"
)

type stubLister struct {
	tasks []models.Task
	err   error
	calls atomic.Int32
	gate  chan struct{}
}

func (s *stubLister) ListTasks(ctx context.Context) ([]models.Task, error) {
	s.calls.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.tasks, s.err
}

func TestCollection_LoadReplacesEverything(t *testing.T) {
	src := &stubLister{tasks: []models.Task{{ID: "a"}, {ID: "b"}}}
	c := NewCollection(src, nil)
	c.Add(models.Task{ID: "stale"})

	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, []string{"a", "b"}, ids(c.Snapshot()))
	assert.True(t, c.Loaded())
}

func TestCollection_FailedLoadKeepsState(t *testing.T) {
	src := &stubLister{err: errors.New("down")}
	c := NewCollection(src, nil)
	c.Add(models.Task{ID: "kept"})

	assert.Error(t, c.Load(context.Background()))
	assert.Equal(t, []string{"kept"}, ids(c.Snapshot()))
	assert.False(t, c.Loaded())
}

func TestCollection_ConcurrentLoadsShareOneCall(t *testing.T) {
	src := &stubLister{tasks: []models.Task{{ID: "a"}}, gate: make(chan struct{})}
	c := NewCollection(src, nil)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Load(context.Background()))
		}()
	}
	// let the goroutines pile up behind the first call
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.LessOrEqual(t, src.calls.Load(), int32(5))
	assert.GreaterOrEqual(t, src.calls.Load(), int32(1))
	assert.Equal(t, 1, c.Len())
}

func TestCollection_LoadAfterResetIsDiscarded(t *testing.T) {
	src := &stubLister{tasks: []models.Task{{ID: "a"}}, gate: make(chan struct{})}
	c := NewCollection(src, nil)

	done := make(chan error)
	go func() { done <- c.Load(context.Background()) }()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	c.Reset()
	close(src.gate)

	require.NoError(t, <-done)
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Loaded())
}

func TestCollection_CancelledCallerLeavesSharedLoadRunning(t *testing.T) {
	src := &stubLister{tasks: []models.Task{{ID: "a"}}, gate: make(chan struct{})}
	c := NewCollection(src, nil)

	first, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() { firstDone <- c.Load(first) }()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	secondDone := make(chan error, 1)
	go func() { secondDone <- c.Load(context.Background()) }()
	// let the second caller join the in-flight load
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	err := <-firstDone
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, apperr.ErrNetwork)

	close(src.gate)
	require.NoError(t, <-secondDone)
	assert.Equal(t, []string{"a"}, ids(c.Snapshot()))
	assert.True(t, c.Loaded())
}

func TestCollection_AddPreservesOrder(t *testing.T) {
	c := NewCollection(&stubLister{}, nil)
	c.Add(models.Task{ID: "1"})
	c.Add(models.Task{ID: "2"})
	c.Add(models.Task{ID: "3"})
	assert.Equal(t, []string{"1", "2", "3"}, ids(c.Snapshot()))

	c.Add(models.Task{ID: "2", Title: "again"})
	assert.Equal(t, []string{"1", "2", "3"}, ids(c.Snapshot()))
	got, ok := c.Get("2")
	require.True(t, ok)
	assert.Equal(t, "again", got.Title)
}

func TestCollection_ReplaceUnknownIsNoop(t *testing.T) {
	c := NewCollection(&stubLister{}, nil)
	c.Add(models.Task{ID: "1", Title: "one"})
	before := c.Snapshot()

	assert.False(t, c.Replace(models.Task{ID: "404", Title: "ghost"}))
	assert.Equal(t, before, c.Snapshot())

	assert.True(t, c.Replace(models.Task{ID: "1", Title: "uno"}))
	got, _ := c.Get("1")
	assert.Equal(t, "uno", got.Title)
}

func TestCollection_AddRemoveRoundTrip(t *testing.T) {
	c := NewCollection(&stubLister{}, nil)
	c.Add(models.Task{ID: "1"})
	c.Add(models.Task{ID: "2"})
	before := c.Snapshot()

	c.Add(models.Task{ID: "3", Title: "temp"})
	assert.True(t, c.Remove("3"))
	assert.Equal(t, before, c.Snapshot())

	assert.False(t, c.Remove("3"))
	assert.Equal(t, before, c.Snapshot())
}

func TestCollection_SnapshotIsACopy(t *testing.T) {
	c := NewCollection(&stubLister{}, nil)
	c.Add(models.Task{ID: "1", Title: "one"})

	snap := c.Snapshot()
	snap[0].Title = "mutated"

	got, _ := c.Get("1")
	assert.Equal(t, "one", got.Title)
}
