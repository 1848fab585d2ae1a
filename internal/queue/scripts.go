package queue

import "github.com/redis/go-redis/v9"

// enqueueScript admits a task exactly once per id: if the task record
// already exists it is a no-op (admission idempotency), otherwise it writes
// the record and appends the id to the waiting list.
//
// KEYS[1] = task key, KEYS[2] = waiting key
// ARGV[1] = task JSON, ARGV[2] = task id
// returns 1 if newly admitted, 0 if it already existed.
var enqueueScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('RPUSH', KEYS[2], ARGV[2])
return 1
`)

// claimScript atomically pops the next waiting id and marks it active with a
// lease deadline, enforcing the at-most-one-worker invariant.
//
// KEYS[1] = waiting key, KEYS[2] = active key
// ARGV[1] = lease deadline (unix ms)
// returns the claimed id, or false if the waiting list is empty.
var claimScript = redis.NewScript(`
local id = redis.call('LPOP', KEYS[1])
if not id then
  return false
end
redis.call('ZADD', KEYS[2], ARGV[1], id)
return id
`)

// retireScript moves an id out of the active set and into a retention ZSET
// scored by expiry time (completion time plus the set's retention), then
// evicts the lowest-scored entries beyond cap. It
// backs both Complete and Fail, which differ only in destination key,
// retention score, and cap.
//
// KEYS[1] = active key, KEYS[2] = retention key (completed or failed)
// ARGV[1] = task id, ARGV[2] = expiry time (unix ms), ARGV[3] = cap
// returns the array of evicted ids (their task records must be deleted by
// the caller).
var retireScript = redis.NewScript(`
redis.call('ZREM', KEYS[1], ARGV[1])
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[1])
local n = redis.call('ZCARD', KEYS[2])
local cap = tonumber(ARGV[3])
if n > cap then
  local evicted = redis.call('ZRANGE', KEYS[2], 0, n-cap-1)
  if #evicted > 0 then
    redis.call('ZREM', KEYS[2], unpack(evicted))
  end
  return evicted
end
return {}
`)

// reclaimScript finds active ids whose lease has expired and removes them
// from the active set in one round-trip. The caller is responsible for
// writing each task's terminal failure result and re-indexing it into the
// failed retention set (via retireScript) — reclaimScript only owns the
// active-set membership change, so it composes with retireScript instead of
// duplicating its cap-eviction logic.
//
// KEYS[1] = active key
// ARGV[1] = now (unix ms), ARGV[2] = batch limit
var reclaimScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
if #ids == 0 then
  return {}
end
redis.call('ZREM', KEYS[1], unpack(ids))
return ids
`)

// cancelScript implements the DELETE contract: rejects an active task,
// 404s a missing one, otherwise removes it from wherever it lives.
//
// KEYS[1] = task key, KEYS[2] = active key, KEYS[3] = waiting key,
// KEYS[4] = completed key, KEYS[5] = failed key
// ARGV[1] = task id
// returns 1 on success, 0 if active (conflict), -1 if missing.
var cancelScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
if redis.call('ZSCORE', KEYS[2], ARGV[1]) then
  return 0
end
redis.call('LREM', KEYS[3], 0, ARGV[1])
redis.call('ZREM', KEYS[4], ARGV[1])
redis.call('ZREM', KEYS[5], ARGV[1])
redis.call('DEL', KEYS[1])
return 1
`)

// rateLimitScript implements a fixed-window counter: increment, set the
// window expiry only on the first hit, and report whether the caller is
// over the limit plus the window's remaining seconds.
//
// KEYS[1] = rate limit key
// ARGV[1] = window seconds, ARGV[2] = max
// returns {count, ttlSeconds}
var rateLimitScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`)
