package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// RateLimit configures the POST /api/build/* admission quota.
type RateLimit struct {
	Max              int           `toml:"max"`
	AuthenticatedMax int           `toml:"authenticated_max"`
	Window           time.Duration `toml:"-"`
	WindowRaw        string        `toml:"window"`
	Enabled          bool          `toml:"enabled"`
}

// Config is vibe2apk's fully resolved runtime configuration.
type Config struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`

	BuildsDir  string `toml:"builds_dir"`
	UploadsDir string `toml:"uploads_dir"`

	RedisURL string `toml:"redis_url"`

	MaxFileSize int64 `toml:"max_file_size"`
	MaxIconSize int64 `toml:"max_icon_size"`

	RateLimit RateLimit `toml:"rate_limit"`

	WorkerConcurrency  int `toml:"worker_concurrency"`
	FileRetentionHours int `toml:"file_retention_hours"`

	MockBuild bool `toml:"mock_build"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	APIToken string `toml:"api_token"`

	MetricsEnabled bool          `toml:"metrics_enabled"`
	SweepInterval  time.Duration `toml:"-"`

	HeartbeatTick time.Duration `toml:"-"`
	HeartbeatMax  int           `toml:"-"`

	InstallTimeout time.Duration `toml:"-"`

	GradleVersion string `toml:"gradle_version"`
	GradleDistURL string `toml:"gradle_dist_url"`
}

// Load builds a Config by overlaying, in order: built-in defaults, an
// optional TOML file (configPath, or $VIBE2APK_CONFIG, or ./vibe2apk.toml if
// present), and finally environment variables. Environment variables always
// win, matching the "every option is read at startup" contract.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	if home != "" {
		cfg.UploadsDir = filepath.Join(os.TempDir(), defaultUploadsDir)
	} else {
		cfg.UploadsDir = filepath.Join(os.TempDir(), defaultUploadsDir)
	}

	path := resolveConfigPath(configPath)
	if path != "" {
		if data, readErr := os.ReadFile(path); readErr == nil {
			if decodeErr := toml.Unmarshal(data, &cfg); decodeErr != nil {
				return nil, fmt.Errorf("parse config file %q: %w", path, decodeErr)
			}
		} else if !os.IsNotExist(readErr) {
			return nil, fmt.Errorf("read config file %q: %w", path, readErr)
		}
	}

	applyEnv(&cfg)

	if err := cfg.resolveDurations(); err != nil {
		return nil, err
	}
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveConfigPath(configPath string) string {
	if strings.TrimSpace(configPath) != "" {
		return configPath
	}
	if env := strings.TrimSpace(os.Getenv("VIBE2APK_CONFIG")); env != "" {
		return env
	}
	if info, err := os.Stat("vibe2apk.toml"); err == nil && !info.IsDir() {
		return "vibe2apk.toml"
	}
	return ""
}

// applyEnv overlays the environment variable table from the spec onto cfg.
// Unrecognized environment variables are ignored; recognized ones override
// whatever the defaults/TOML file set.
func applyEnv(cfg *Config) {
	str(&cfg.Host, "HOST")
	intVal(&cfg.Port, "PORT")
	str(&cfg.BuildsDir, "BUILDS_DIR")
	str(&cfg.UploadsDir, "UPLOADS_DIR")
	str(&cfg.RedisURL, "REDIS_URL")
	int64Val(&cfg.MaxFileSize, "MAX_FILE_SIZE")
	intVal(&cfg.RateLimit.Max, "RATE_LIMIT_MAX")
	str(&cfg.RateLimit.WindowRaw, "RATE_LIMIT_WINDOW")
	boolVal(&cfg.RateLimit.Enabled, "RATE_LIMIT_ENABLED")
	intVal(&cfg.WorkerConcurrency, "WORKER_CONCURRENCY")
	intVal(&cfg.FileRetentionHours, "FILE_RETENTION_HOURS")
	boolVal(&cfg.MockBuild, "MOCK_BUILD")
	str(&cfg.LogLevel, "LOG_LEVEL")
	str(&cfg.APIToken, "API_TOKEN")
}

func str(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func intVal(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = parsed
		}
	}
}

func int64Val(dst *int64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			*dst = parsed
		}
	}
}

func boolVal(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = parsed
		}
	}
}

// resolveDurations parses free-form duration strings (e.g. RATE_LIMIT_WINDOW
// = "1 hour") into their time.Duration fields, falling back to defaults.
func (c *Config) resolveDurations() error {
	if c.RateLimit.WindowRaw == "" {
		c.RateLimit.Window = defaultRateLimitWindow
	} else {
		d, err := ParseLooseDuration(c.RateLimit.WindowRaw)
		if err != nil {
			return fmt.Errorf("parse rate_limit.window %q: %w", c.RateLimit.WindowRaw, err)
		}
		c.RateLimit.Window = d
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = defaultSweepInterval
	}
	if c.HeartbeatTick == 0 {
		c.HeartbeatTick = defaultHeartbeatTick
	}
	if c.HeartbeatMax == 0 {
		c.HeartbeatMax = defaultHeartbeatMax
	}
	if c.InstallTimeout == 0 {
		c.InstallTimeout = defaultInstallTimeout
	}
	return nil
}

// ParseLooseDuration accepts both Go duration syntax ("1h") and the spec's
// human phrasing ("1 hour", "30 minutes").
func ParseLooseDuration(raw string) (time.Duration, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if d, err := time.ParseDuration(strings.ReplaceAll(trimmed, " ", "")); err == nil {
		return d, nil
	}
	fields := strings.Fields(trimmed)
	if len(fields) == 2 {
		n, err := strconv.Atoi(fields[0])
		if err == nil {
			unit := strings.TrimSuffix(fields[1], "s")
			switch unit {
			case "second":
				return time.Duration(n) * time.Second, nil
			case "minute":
				return time.Duration(n) * time.Minute, nil
			case "hour":
				return time.Duration(n) * time.Hour, nil
			case "day":
				return time.Duration(n) * 24 * time.Hour, nil
			}
		}
	}
	return 0, fmt.Errorf("unrecognized duration %q", raw)
}

// resolvePaths makes BuildsDir and UploadsDir absolute, per the open
// question in the spec: the two roots' defaults disagree about relative vs.
// absolute, so both are resolved unconditionally at startup.
func (c *Config) resolvePaths() error {
	buildsAbs, err := filepath.Abs(c.BuildsDir)
	if err != nil {
		return fmt.Errorf("resolve builds dir: %w", err)
	}
	c.BuildsDir = buildsAbs

	uploadsAbs, err := filepath.Abs(c.UploadsDir)
	if err != nil {
		return fmt.Errorf("resolve uploads dir: %w", err)
	}
	c.UploadsDir = uploadsAbs
	return nil
}

// EnsureDirectories creates the builds and uploads roots.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.BuildsDir, c.UploadsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FileRetention returns the artifact retention window as a duration.
func (c *Config) FileRetention() time.Duration {
	return time.Duration(c.FileRetentionHours) * time.Hour
}

// MaskedRedisURL returns the Redis connection string with any embedded
// credentials replaced by "***", safe to place in log lines.
func MaskedRedisURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	at := strings.LastIndex(trimmed, "@")
	scheme := strings.Index(trimmed, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return trimmed
	}
	return trimmed[:scheme+3] + "***" + trimmed[at:]
}
