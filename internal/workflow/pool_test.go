package workflow_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"vibe2apk/internal/queue"
	"vibe2apk/internal/stage"
	"vibe2apk/internal/workflow"
)

func newStore(t *testing.T) *queue.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return queue.New(rdb)
}

func newTask(id string) *queue.Task {
	return &queue.Task{
		ID:         id,
		Kind:       queue.KindHTML,
		AppName:    "TestApp",
		AppID:      "com.vibecoding.testapp",
		UploadPath: "/uploads/" + id,
		OutputDir:  "/builds/" + id,
		CreatedAt:  time.Now(),
	}
}

type fakeHandler struct {
	prepareErr error
	execResult queue.Result
	execErr    error
	panicOn    bool
	calls      int32
}

func (h *fakeHandler) Prepare(ctx context.Context, task *queue.Task) error {
	return h.prepareErr
}

func (h *fakeHandler) Execute(ctx context.Context, task *queue.Task, report stage.Report) (queue.Result, error) {
	atomic.AddInt32(&h.calls, 1)
	if h.panicOn {
		panic("boom")
	}
	report(50, "halfway")
	return h.execResult, h.execErr
}

func (h *fakeHandler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("fake")
}

func waitForStatus(t *testing.T, store *queue.Store, id string, want queue.Status) *queue.Task {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		task, err := store.Get(context.Background(), id)
		require.NoError(t, err)
		if task.Status == want {
			return task
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s did not reach status %s", id, want)
	return nil
}

func TestPoolProcessesSuccessfulBuild(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := &fakeHandler{execResult: queue.Result{Success: true, ArtifactPath: "/builds/t1/App--t1.apk"}}
	pool := workflow.NewPool(store, func(queue.Kind) (stage.Handler, error) { return handler, nil }, nil, 1)
	require.NoError(t, pool.Start(ctx))
	defer pool.Stop()

	_, err := store.Enqueue(ctx, newTask("t1"))
	require.NoError(t, err)

	task := waitForStatus(t, store, "t1", queue.StatusCompleted)
	require.True(t, task.Result.Success)
	require.Equal(t, "/builds/t1/App--t1.apk", task.Result.ArtifactPath)
	require.Equal(t, int32(1), atomic.LoadInt32(&handler.calls))
}

func TestPoolCollapsesLogicalFailureToCompleted(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := &fakeHandler{execResult: queue.Result{Success: false, Error: "gradle build failed"}}
	pool := workflow.NewPool(store, func(queue.Kind) (stage.Handler, error) { return handler, nil }, nil, 1)
	require.NoError(t, pool.Start(ctx))
	defer pool.Stop()

	_, err := store.Enqueue(ctx, newTask("t2"))
	require.NoError(t, err)

	task := waitForStatus(t, store, "t2", queue.StatusCompleted)
	require.False(t, task.Result.Success)
	require.Equal(t, "gradle build failed", task.Result.Error)
}

func TestPoolMarksUnhandledExecuteErrorAsFailed(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := &fakeHandler{execErr: errors.New("crashed")}
	pool := workflow.NewPool(store, func(queue.Kind) (stage.Handler, error) { return handler, nil }, nil, 1)
	require.NoError(t, pool.Start(ctx))
	defer pool.Stop()

	_, err := store.Enqueue(ctx, newTask("t3"))
	require.NoError(t, err)

	task := waitForStatus(t, store, "t3", queue.StatusFailed)
	require.False(t, task.Result.Success)
}

func TestPoolRecoversFromHandlerPanic(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := &fakeHandler{panicOn: true}
	pool := workflow.NewPool(store, func(queue.Kind) (stage.Handler, error) { return handler, nil }, nil, 1)
	require.NoError(t, pool.Start(ctx))
	defer pool.Stop()

	_, err := store.Enqueue(ctx, newTask("t4"))
	require.NoError(t, err)

	waitForStatus(t, store, "t4", queue.StatusFailed)
}

func TestPoolStartTwiceErrors(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := &fakeHandler{execResult: queue.Result{Success: true}}
	pool := workflow.NewPool(store, func(queue.Kind) (stage.Handler, error) { return handler, nil }, nil, 1)
	require.NoError(t, pool.Start(ctx))
	defer pool.Stop()

	require.Error(t, pool.Start(ctx))
}

func TestPoolStopWaitsForInFlightBuild(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(1)
	slowHandler := stageFunc(func(c context.Context, task *queue.Task, report stage.Report) (queue.Result, error) {
		started.Done()
		<-release
		return queue.Result{Success: true}, nil
	})

	pool := workflow.NewPool(store, func(queue.Kind) (stage.Handler, error) { return slowHandler, nil }, nil, 1)
	require.NoError(t, pool.Start(ctx))

	_, err := store.Enqueue(ctx, newTask("t5"))
	require.NoError(t, err)
	started.Wait()

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned before in-flight build finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after build finished")
	}
}

// stageFunc adapts a plain function to stage.Handler for tests that only
// care about Execute's behavior.
type stageFunc func(ctx context.Context, task *queue.Task, report stage.Report) (queue.Result, error)

func (f stageFunc) Prepare(ctx context.Context, task *queue.Task) error { return nil }
func (f stageFunc) Execute(ctx context.Context, task *queue.Task, report stage.Report) (queue.Result, error) {
	return f(ctx, task, report)
}
func (f stageFunc) HealthCheck(ctx context.Context) stage.Health { return stage.Healthy("fake") }
