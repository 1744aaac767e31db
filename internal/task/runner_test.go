package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/portrait-generator/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              4,
		StuckTaskAge:           time.Hour,
		StuckTaskCheckInterval: time.Hour,
	}
}

func waitForStatus(t *testing.T, store *MemoryStore, id uuid.UUID, want TaskStatus) *Record {
	t.Helper()
	var rec *Record
	require.Eventually(t, func() bool {
		got, err := store.GetTask(context.Background(), id)
		if err != nil {
			return false
		}
		rec = got
		return got.Status == want
	}, 2*time.Second, 10*time.Millisecond)
	return rec
}

func TestRunnerExecutesSubmittedTasks(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	runner := NewTaskRunner(store, factoryFunc(nil), testConfig(), logger.Discard())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	ok := newStubTask(nil)
	failing := newStubTask(func(context.Context) error { return errors.New("render failed") })
	withResult := &resultStubTask{stubTask: newStubTask(nil), result: []byte(`{"total":2}`)}

	ctx := context.Background()
	require.NoError(t, runner.Submit(ctx, ok))
	require.NoError(t, runner.Submit(ctx, failing))
	require.NoError(t, runner.Submit(ctx, withResult))

	waitForStatus(t, store, ok.ID(), TaskStatusCompleted)

	rec := waitForStatus(t, store, failing.ID(), TaskStatusFailed)
	assert.Equal(t, "render failed", rec.Error)

	rec = waitForStatus(t, store, withResult.ID(), TaskStatusCompleted)
	assert.JSONEq(t, `{"total":2}`, string(rec.Result))
}

func TestRunnerErrorHandler(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	runner := NewTaskRunner(store, factoryFunc(nil), testConfig(), logger.Discard())
	failed := make(chan error, 1)
	runner.SetErrorHandler(func(_ Task, err error) { failed <- err })
	require.NoError(t, runner.Start())
	defer runner.Stop()

	require.NoError(t, runner.Submit(context.Background(), newStubTask(func(context.Context) error {
		return errors.New("boom")
	})))

	select {
	case err := <-failed:
		assert.EqualError(t, err, "boom")
	case <-time.After(2 * time.Second):
		t.Fatal("error handler was not called")
	}
}

func TestRunnerSubmitQueueFull(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	cfg := testConfig()
	cfg.QueueSize = 1
	runner := NewTaskRunner(store, factoryFunc(nil), cfg, logger.Discard())

	ctx := context.Background()
	require.NoError(t, runner.Submit(ctx, newStubTask(nil)))

	overflow := newStubTask(nil)
	err := runner.Submit(ctx, overflow)
	require.ErrorIs(t, err, ErrQueueFull)

	rec, err := store.GetTask(ctx, overflow.ID())
	require.NoError(t, err)
	assert.Equal(t, TaskStatusFailed, rec.Status)
}

func TestRunnerRecover(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	pending := newStubTask(nil)
	interrupted := newStubTask(nil)
	broken := newStubTask(nil)
	broken.payload = []byte(`"broken"`)
	for _, task := range []*stubTask{pending, interrupted, broken} {
		require.NoError(t, store.SaveTask(ctx, task))
	}
	require.NoError(t, store.UpdateTaskStatus(ctx, interrupted.ID(), TaskStatusProcessing, ""))

	done := make(chan uuid.UUID, 3)
	rebuild := stubFactory(done)
	factory := factoryFunc(func(rec Record) (Task, error) {
		if string(rec.Payload) == `"broken"` {
			return nil, errors.New("cannot decode payload")
		}
		return rebuild(rec)
	})

	runner := NewTaskRunner(store, factory, testConfig(), logger.Discard())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	waitForStatus(t, store, pending.ID(), TaskStatusCompleted)
	waitForStatus(t, store, interrupted.ID(), TaskStatusCompleted)

	rec := waitForStatus(t, store, broken.ID(), TaskStatusFailed)
	assert.Equal(t, "cannot decode payload", rec.Error)

	ran := map[uuid.UUID]bool{<-done: true, <-done: true}
	assert.True(t, ran[pending.ID()])
	assert.True(t, ran[interrupted.ID()])
}

func TestRunnerStopLeavesInterruptedTaskProcessing(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	runner := NewTaskRunner(store, factoryFunc(nil), testConfig(), logger.Discard())
	require.NoError(t, runner.Start())

	started := make(chan struct{})
	blocking := newStubTask(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, runner.Submit(context.Background(), blocking))

	<-started
	runner.Stop()

	rec, err := store.GetTask(context.Background(), blocking.ID())
	require.NoError(t, err)
	assert.Equal(t, TaskStatusProcessing, rec.Status)
}

func TestRunnerResetStuckTasks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now().UTC()
	store.now = func() time.Time { return now }

	stuck := newStubTask(nil)
	require.NoError(t, store.SaveTask(ctx, stuck))
	require.NoError(t, store.UpdateTaskStatus(ctx, stuck.ID(), TaskStatusProcessing, ""))
	now = now.Add(2 * time.Hour)

	done := make(chan uuid.UUID, 1)
	runner := NewTaskRunner(store, stubFactory(done), testConfig(), logger.Discard())
	runner.resetStuckTasks()

	rec, err := store.GetTask(ctx, stuck.ID())
	require.NoError(t, err)
	assert.Equal(t, TaskStatusPending, rec.Status)
	assert.Equal(t, "Reset after being stuck in processing state", rec.Error)
	assert.Equal(t, 1, runner.queue.Len())
}

func TestRunnerGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	runner := NewTaskRunner(store, factoryFunc(nil), testConfig(), logger.Discard())

	task := newStubTask(nil)
	require.NoError(t, store.SaveTask(ctx, task))

	rec, err := runner.Get(ctx, task.ID().String())
	require.NoError(t, err)
	assert.Equal(t, task.ID(), rec.ID)

	_, err = runner.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidTaskID)

	_, err = runner.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
