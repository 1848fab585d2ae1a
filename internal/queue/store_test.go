package queue_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"vibe2apk/internal/queue"
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
		ID:             id,
		Kind:           queue.KindHTML,
		AppName:        "TestApp",
		AppID:          "com.vibecoding.testapp",
		UploadPath:     "/uploads/" + id,
		OutputDir:      "/builds/" + id,
		CreatedAt:      time.Now(),
		RetentionHours: 2,
	}
}

func TestEnqueueIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	admitted, err := store.Enqueue(ctx, newTask("t1"))
	require.NoError(t, err)
	require.True(t, admitted)

	admitted, err = store.Enqueue(ctx, newTask("t1"))
	require.NoError(t, err)
	require.False(t, admitted, "resubmission with same id must be a no-op")

	_, total, err := store.QueuePosition(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestClaimIsFIFO(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for _, id := range []string{"a", "b", "c"} {
		_, err := store.Enqueue(ctx, newTask(id))
		require.NoError(t, err)
	}

	for _, want := range []string{"a", "b", "c"} {
		task, err := store.Claim(ctx, time.Minute)
		require.NoError(t, err)
		require.NotNil(t, task)
		require.Equal(t, want, task.ID)
		require.Equal(t, queue.StatusActive, task.Status)
	}

	task, err := store.Claim(ctx, time.Minute)
	require.NoError(t, err)
	require.Nil(t, task, "empty waiting list must yield nil, not an error")
}

func TestHeartbeatClampsAndNeverRegresses(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Enqueue(ctx, newTask("t1"))
	require.NoError(t, err)
	_, err = store.Claim(ctx, time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Heartbeat(ctx, "t1", queue.Progress{Message: "installing", Percent: 40}, time.Minute))
	task, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, 40, task.Progress.Percent)

	// A later heartbeat reporting a lower percent (sub-stage transition) must not
	// regress the value observed by status pollers.
	require.NoError(t, store.Heartbeat(ctx, "t1", queue.Progress{Message: "bundling", Percent: 10}, time.Minute))
	task, err = store.Get(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, 40, task.Progress.Percent)

	require.NoError(t, store.Heartbeat(ctx, "t1", queue.Progress{Message: "assembling", Percent: 200}, time.Minute))
	task, err = store.Get(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, 100, task.Progress.Percent)
}

func TestCompleteCollapsesIntoCompletedRegardlessOfSuccess(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Enqueue(ctx, newTask("t1"))
	require.NoError(t, err)
	_, err = store.Claim(ctx, time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Complete(ctx, "t1", queue.Result{Success: false, Error: "gradle exited 1"}))

	task, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, queue.StatusCompleted, task.Status)
	require.False(t, task.Result.Success)
	require.Equal(t, "gradle exited 1", task.Result.Error)
}

func TestFailSetsFailedStatus(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Enqueue(ctx, newTask("t1"))
	require.NoError(t, err)
	_, err = store.Claim(ctx, time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Fail(ctx, "t1", "panic: nil pointer"))

	task, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, queue.StatusFailed, task.Status)
	require.Equal(t, "panic: nil pointer", task.Result.Error)
}

func TestReclaimStaleFailsExpiredLeases(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Enqueue(ctx, newTask("t1"))
	require.NoError(t, err)
	_, err = store.Claim(ctx, -time.Second) // already expired
	require.NoError(t, err)

	reclaimed, err := store.ReclaimStale(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"t1"}, reclaimed)

	task, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, queue.StatusFailed, task.Status)
	require.Equal(t, "lease expired", task.Result.Error)
}

func TestCancelSemantics(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.ErrorIs(t, store.Cancel(ctx, "missing"), queue.ErrNotFound)

	_, err := store.Enqueue(ctx, newTask("waiting-task"))
	require.NoError(t, err)
	require.NoError(t, store.Cancel(ctx, "waiting-task"))
	_, err = store.Get(ctx, "waiting-task")
	require.ErrorIs(t, err, queue.ErrNotFound)

	_, err = store.Enqueue(ctx, newTask("active-task"))
	require.NoError(t, err)
	_, err = store.Claim(ctx, time.Minute)
	require.NoError(t, err)
	require.ErrorIs(t, store.Cancel(ctx, "active-task"), queue.ErrActiveConflict)

	task, err := store.Get(ctx, "active-task")
	require.NoError(t, err)
	require.Equal(t, queue.StatusActive, task.Status, "rejected cancel must leave the job unchanged")
}

func TestQueuePosition(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for _, id := range []string{"a", "b", "c"} {
		_, err := store.Enqueue(ctx, newTask(id))
		require.NoError(t, err)
	}

	pos, total, err := store.QueuePosition(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, 2, pos)
	require.Equal(t, 3, total)

	_, err = store.Claim(ctx, time.Minute) // claims "a"
	require.NoError(t, err)

	pos, total, err = store.QueuePosition(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, 1, pos)
	require.Equal(t, 3, total)
}

func TestCompleteKeepsRecordsBelowRetentionCap(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	// Five completions stay far below RetentionCap (1000) and well inside
	// CompletedRetention, so the retire path evicts nothing and every
	// record is still readable as completed.
	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		ids = append(ids, id)
		_, err := store.Enqueue(ctx, newTask(id))
		require.NoError(t, err)
		_, err = store.Claim(ctx, time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Complete(ctx, id, queue.Result{Success: true, ArtifactPath: "/x.apk"}))
	}

	for _, id := range ids {
		task, err := store.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, queue.StatusCompleted, task.Status)
	}
}

func TestAllowRateLimitsWithinWindow(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for i := 0; i < 3; i++ {
		allowed, _, err := store.Allow(ctx, "client-a", 3, time.Minute)
		require.NoError(t, err)
		require.True(t, allowed)
	}

	allowed, retryAfter, err := store.Allow(ctx, "client-a", 3, time.Minute)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Greater(t, retryAfter, time.Duration(0))

	allowed, _, err = store.Allow(ctx, "client-b", 3, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed, "distinct buckets must not share quota")
}
