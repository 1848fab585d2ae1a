package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"vibe2apk/internal/config"
	"vibe2apk/internal/queue"
)

// commandContext lazily loads config once per process invocation, matching
// the teacher's cmd/spindle commandContext.ensureConfig pattern (a
// sync.Once around config.Load rather than a package-level global).
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// openQueueStore parses cfg.RedisURL and constructs the shared queue.Store,
// the durable backend both the API and worker processes read and write.
func openQueueStore(cfg *config.Config) (*queue.Store, *redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	return queue.New(rdb), rdb, nil
}
