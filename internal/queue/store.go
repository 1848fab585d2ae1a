package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the durable job queue, backed by a single Redis instance or
// cluster. All state-transition methods are safe for concurrent use by
// multiple worker and API processes sharing the same Redis backend.
type Store struct {
	rdb redis.UniversalClient
}

// New wraps an existing Redis client. The client's lifecycle (Close) is the
// caller's responsibility.
func New(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

// Ping verifies connectivity, used at startup to fail fast on misconfigured
// REDIS_URL.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Enqueue admits task if its id is new; re-submission with an already-known
// id is a no-op (admission idempotency) and returns admitted=false.
func (s *Store) Enqueue(ctx context.Context, task *Task) (admitted bool, err error) {
	task.Status = StatusWaiting
	raw, err := encodeTask(task)
	if err != nil {
		return false, fmt.Errorf("encode task: %w", err)
	}
	res, err := enqueueScript.Run(ctx, s.rdb, []string{taskKey(task.ID), waitingKey()}, raw, task.ID).Int64()
	if err != nil {
		return false, fmt.Errorf("enqueue script: %w", err)
	}
	return res == 1, nil
}

// Get returns the current record for id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Task, error) {
	raw, err := s.rdb.Get(ctx, taskKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return decodeTask(raw)
}

func (s *Store) save(ctx context.Context, task *Task) error {
	raw, err := encodeTask(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	return s.rdb.Set(ctx, taskKey(task.ID), raw, 0).Err()
}

// Claim atomically pops the next waiting task and marks it active under a
// fresh lease. It returns nil, nil when the waiting list is empty.
func (s *Store) Claim(ctx context.Context, leaseTTL time.Duration) (*Task, error) {
	deadline := time.Now().Add(leaseTTL)
	res, err := claimScript.Run(ctx, s.rdb, []string{waitingKey(), activeKey()}, deadline.UnixMilli()).Result()
	if err == redis.Nil || res == nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim script: %w", err)
	}
	id, ok := res.(string)
	if !ok {
		return nil, nil
	}

	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("claim: load %s: %w", id, err)
	}
	task.Status = StatusActive
	task.LeaseExpiresAt = deadline
	if err := s.save(ctx, task); err != nil {
		return nil, fmt.Errorf("claim: save %s: %w", id, err)
	}
	return task, nil
}

// Heartbeat writes a progress update and extends the lease, without
// changing state. Percent is clamped to [0, 100] and never allowed to
// regress below the previously recorded value, matching the "progress never
// goes backwards" invariant observed by status pollers.
func (s *Store) Heartbeat(ctx context.Context, id string, progress Progress, leaseTTL time.Duration) error {
	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	percent := ClampPercent(progress.Percent)
	if percent < task.Progress.Percent {
		percent = task.Progress.Percent
	}
	task.Progress = Progress{Message: progress.Message, Percent: percent}
	deadline := time.Now().Add(leaseTTL)
	task.LeaseExpiresAt = deadline
	if err := s.save(ctx, task); err != nil {
		return err
	}
	return s.rdb.ZAdd(ctx, activeKey(), redis.Z{Score: float64(deadline.UnixMilli()), Member: id}).Err()
}

// Complete records a terminal result — success or logical failure — and
// moves the job into the completed retention set. Per the state machine, a
// pipeline that ran to completion but reported success=false still lands
// here as StatusCompleted; only unhandled worker errors and lease expiry
// produce StatusFailed (see Fail).
func (s *Store) Complete(ctx context.Context, id string, result Result) error {
	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	task.Status = StatusCompleted
	task.Progress.Percent = 100
	task.Result = &result
	if err := s.save(ctx, task); err != nil {
		return err
	}
	return s.retire(ctx, id, completedKey(), time.Now().Add(CompletedRetention))
}

// Fail records an unhandled worker error or a stale-lease reclaim and moves
// the job into the failed retention set.
func (s *Store) Fail(ctx context.Context, id string, errMsg string) error {
	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	task.Status = StatusFailed
	task.Result = &Result{Success: false, Error: errMsg}
	if err := s.save(ctx, task); err != nil {
		return err
	}
	return s.retire(ctx, id, failedKey(), time.Now().Add(FailedRetention))
}

func (s *Store) retire(ctx context.Context, id, retentionKey string, expiresAt time.Time) error {
	evicted, err := retireScript.Run(ctx, s.rdb, []string{activeKey(), retentionKey}, id, expiresAt.UnixMilli(), RetentionCap).StringSlice()
	if err != nil {
		return fmt.Errorf("retire script: %w", err)
	}
	// Entries are scored by expiry time; prune the ones whose retention has
	// lapsed along with those the count cap evicted.
	expired, err := s.rdb.ZRangeByScore(ctx, retentionKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprint(time.Now().UnixMilli()),
	}).Result()
	if err != nil {
		return fmt.Errorf("retention expiry scan: %w", err)
	}
	for _, expiredID := range expired {
		if err := s.rdb.ZRem(ctx, retentionKey, expiredID).Err(); err != nil {
			return fmt.Errorf("retention expiry: %w", err)
		}
	}
	evicted = append(evicted, expired...)
	if len(evicted) == 0 {
		return nil
	}
	keys := make([]string, len(evicted))
	for i, evictedID := range evicted {
		keys[i] = taskKey(evictedID)
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// ReclaimStale finds active jobs whose lease has expired and fails them.
// Called periodically by the worker pool's sweeper; batchLimit bounds how
// many are processed per call to avoid a single reclaim pass blocking
// Redis for a long-idle backlog.
func (s *Store) ReclaimStale(ctx context.Context, batchLimit int) (reclaimed []string, err error) {
	res, err := reclaimScript.Run(ctx, s.rdb, []string{activeKey()}, time.Now().UnixMilli(), batchLimit).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("reclaim script: %w", err)
	}
	for _, id := range res {
		if failErr := s.Fail(ctx, id, "lease expired"); failErr != nil {
			return reclaimed, fmt.Errorf("reclaim %s: %w", id, failErr)
		}
		reclaimed = append(reclaimed, id)
	}
	return reclaimed, nil
}

// Cancel implements the DELETE contract: ErrActiveConflict if the job is
// active, ErrNotFound if it doesn't exist, nil (and full removal) otherwise.
func (s *Store) Cancel(ctx context.Context, id string) error {
	res, err := cancelScript.Run(ctx, s.rdb,
		[]string{taskKey(id), activeKey(), waitingKey(), completedKey(), failedKey()}, id).Int64()
	if err != nil {
		return fmt.Errorf("cancel script: %w", err)
	}
	switch res {
	case -1:
		return ErrNotFound
	case 0:
		return ErrActiveConflict
	default:
		return nil
	}
}

// QueuePosition returns the 1-based position of id within the first 100
// waiting entries (bounded scan), and the total of waiting+active jobs. A
// zero position means id isn't waiting (it may be active, terminal, or
// simply further back than the scan window).
func (s *Store) QueuePosition(ctx context.Context, id string) (position int, total int, err error) {
	ids, err := s.rdb.LRange(ctx, waitingKey(), 0, 99).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("queue position scan: %w", err)
	}
	for i, waitingID := range ids {
		if waitingID == id {
			position = i + 1
			break
		}
	}

	waitingTotal, err := s.rdb.LLen(ctx, waitingKey()).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("waiting length: %w", err)
	}
	activeTotal, err := s.rdb.ZCard(ctx, activeKey()).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("active cardinality: %w", err)
	}
	return position, int(waitingTotal + activeTotal), nil
}

// Allow implements a fixed-window rate limit keyed by bucket (typically the
// client IP or bearer token). It reports whether the caller is within max
// requests for the given window, and how many seconds remain until the
// window resets.
func (s *Store) Allow(ctx context.Context, bucket string, max int, window time.Duration) (allowed bool, retryAfter time.Duration, err error) {
	res, err := rateLimitScript.Run(ctx, s.rdb, []string{rateLimitKey(bucket)}, int64(window.Seconds()), max).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script: %w", err)
	}
	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("rate limit script: unexpected result %v", res)
	}
	count := toInt64(values[0])
	ttl := toInt64(values[1])
	if ttl < 0 {
		ttl = int64(window.Seconds())
	}
	return count <= int64(max), time.Duration(ttl) * time.Second, nil
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
