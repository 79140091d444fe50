package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/lingua/internal/config"
)

// ErrNotFound is returned when a required row does not exist
var ErrNotFound = errors.New("not found")

// Connect opens the configured database and makes sure the schema exists
func Connect(cfg config.Database) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Type {
	case "postgres":
		db, err = sqlx.Connect("postgres", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	case "sqlite", "":
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		db, err = sqlx.Connect("sqlite3", cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
		}

		// SQLite doesn't support multiple writers; one connection also keeps
		// an in-memory database alive for the lifetime of the pool.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func isPostgres(db sqlx.ExtContext) bool {
	return db.DriverName() == "postgres"
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	stmts := sqliteSchema
	if isPostgres(db) {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt.sql); err != nil {
			return fmt.Errorf("failed to create %s table: %w", stmt.table, err)
		}
	}
	return nil
}

type schemaStmt struct {
	table string
	sql   string
}

var sqliteSchema = []schemaStmt{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			notification_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			words_per_session INTEGER NOT NULL DEFAULT 10,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"topics", `
		CREATE TABLE IF NOT EXISTS topics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL
		)`},
	{"words", `
		CREATE TABLE IF NOT EXISTS words (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			word TEXT NOT NULL,
			translation TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			topic_id INTEGER NOT NULL REFERENCES topics(id),
			difficulty INTEGER NOT NULL DEFAULT 3,
			pronunciation TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE(word, topic_id)
		)`},
	{"user_words", `
		CREATE TABLE IF NOT EXISTS user_words (
			user_id INTEGER NOT NULL REFERENCES users(id),
			word_id INTEGER NOT NULL REFERENCES words(id),
			added_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, word_id)
		)`},
	{"user_progress", `
		CREATE TABLE IF NOT EXISTS user_progress (
			user_id INTEGER NOT NULL,
			word_id INTEGER NOT NULL,
			easiness_factor REAL NOT NULL DEFAULT 2.5,
			interval_days INTEGER NOT NULL DEFAULT 0,
			repetitions INTEGER NOT NULL DEFAULT 0,
			last_quality INTEGER NOT NULL DEFAULT 0,
			last_reviewed_at TIMESTAMP NOT NULL,
			next_review_date TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, word_id),
			FOREIGN KEY (user_id, word_id) REFERENCES user_words(user_id, word_id) ON DELETE CASCADE
		)`},
	{"user_streaks", `
		CREATE TABLE IF NOT EXISTS user_streaks (
			user_id INTEGER PRIMARY KEY REFERENCES users(id),
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_active_date TIMESTAMP,
			total_reviews INTEGER NOT NULL DEFAULT 0
		)`},
}

var postgresSchema = []schemaStmt{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			notification_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			words_per_session INTEGER NOT NULL DEFAULT 10,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`},
	{"topics", `
		CREATE TABLE IF NOT EXISTS topics (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL
		)`},
	{"words", `
		CREATE TABLE IF NOT EXISTS words (
			id BIGSERIAL PRIMARY KEY,
			word TEXT NOT NULL,
			translation TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			topic_id BIGINT NOT NULL REFERENCES topics(id),
			difficulty INTEGER NOT NULL DEFAULT 3,
			pronunciation TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE(word, topic_id)
		)`},
	{"user_words", `
		CREATE TABLE IF NOT EXISTS user_words (
			user_id BIGINT NOT NULL REFERENCES users(id),
			word_id BIGINT NOT NULL REFERENCES words(id),
			added_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, word_id)
		)`},
	{"user_progress", `
		CREATE TABLE IF NOT EXISTS user_progress (
			user_id BIGINT NOT NULL,
			word_id BIGINT NOT NULL,
			easiness_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
			interval_days INTEGER NOT NULL DEFAULT 0,
			repetitions INTEGER NOT NULL DEFAULT 0,
			last_quality INTEGER NOT NULL DEFAULT 0,
			last_reviewed_at TIMESTAMPTZ NOT NULL,
			next_review_date TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, word_id),
			FOREIGN KEY (user_id, word_id) REFERENCES user_words(user_id, word_id) ON DELETE CASCADE
		)`},
	{"user_streaks", `
		CREATE TABLE IF NOT EXISTS user_streaks (
			user_id BIGINT PRIMARY KEY REFERENCES users(id),
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_active_date TIMESTAMPTZ,
			total_reviews INTEGER NOT NULL DEFAULT 0
		)`},
}
