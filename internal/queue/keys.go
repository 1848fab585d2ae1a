package queue

// keyPrefix namespaces every Redis key vibe2apk owns, so the queue can share
// a Redis instance with other applications without collision.
const keyPrefix = "vibe2apk:"

func taskKey(id string) string { return keyPrefix + "task:" + id }

func waitingKey() string   { return keyPrefix + "waiting" }
func activeKey() string    { return keyPrefix + "active" }
func completedKey() string { return keyPrefix + "completed" }
func failedKey() string    { return keyPrefix + "failed" }

func rateLimitKey(bucket string) string { return keyPrefix + "ratelimit:" + bucket }
