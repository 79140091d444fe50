package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults for values missing from the environment
const (
	DefaultDBPath                = "data/lingua.db"
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
	DefaultWordsPerSession       = 10
)

// Config is the runtime configuration of the application
type Config struct {
	TelegramToken string
	LogMode       string
	AdminUserIDs  map[int64]bool

	Database Database

	SchedulerEnabled      bool
	NotificationStartHour int
	NotificationEndHour   int
	WordsPerSession       int

	// Example sentences are generated only when OpenAIAPIKey is set
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
}

// Database selects the storage backend
type Database struct {
	Type string // "sqlite" or "postgres"
	Path string // SQLite file, ":memory:" allowed
	URL  string // Postgres DSN
}

// DSN returns the driver-specific data source name
func (d Database) DSN() string {
	if d.Type == "postgres" {
		return d.URL
	}
	return d.Path
}

// Load reads envFile (if it exists) and then the process environment.
// Malformed values fall back to defaults and are reported as warnings.
func Load(envFile string) (*Config, []string, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	var warnings []string
	warn := func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		LogMode:       getenv("LOG_MODE", "dev"),
		AdminUserIDs:  make(map[int64]bool),
		Database: Database{
			Type: strings.ToLower(getenv("DB_TYPE", "sqlite")),
			Path: getenv("DB_PATH", DefaultDBPath),
			URL:  os.Getenv("DATABASE_URL"),
		},
		SchedulerEnabled: os.Getenv("ENABLE_SCHEDULER") != "false",
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:      os.Getenv("OPENAI_MODEL"),
	}

	cfg.NotificationStartHour = hourOrDefault("NOTIFICATION_START_HOUR", DefaultNotificationStartHour, warn)
	cfg.NotificationEndHour = hourOrDefault("NOTIFICATION_END_HOUR", DefaultNotificationEndHour, warn)

	cfg.WordsPerSession = DefaultWordsPerSession
	if v := os.Getenv("WORDS_PER_SESSION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			warn("invalid WORDS_PER_SESSION %q, using %d", v, DefaultWordsPerSession)
		} else {
			cfg.WordsPerSession = n
		}
	}

	if ids := os.Getenv("ADMIN_USER_IDS"); ids != "" {
		for _, idStr := range strings.Split(ids, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				warn("invalid admin user ID %q", idStr)
				continue
			}
			cfg.AdminUserIDs[id] = true
		}
	}

	return cfg, warnings, nil
}

// OverrideDatabase applies command-line database settings on top of the
// environment. Empty values leave the loaded settings untouched.
func (c *Config) OverrideDatabase(dbType, dsn string) {
	if dbType != "" {
		c.Database.Type = strings.ToLower(dbType)
	}
	if dsn == "" {
		return
	}
	if c.Database.Type == "postgres" {
		c.Database.URL = dsn
	} else {
		c.Database.Path = dsn
	}
}

// Validate checks settings that have no sensible fallback. Call it after
// all overrides are applied.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required when DB_TYPE=postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.Database.Type)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func hourOrDefault(key string, def int, warn func(string, ...interface{})) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	h, err := strconv.Atoi(v)
	if err != nil || h < 0 || h > 23 {
		warn("invalid %s %q, using %d", key, v, def)
		return def
	}
	return h
}
