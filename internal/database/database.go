// Package database is the relational store backing every persisted
// entity in pkg/models: projects, generated files, tasks, chat history,
// error records, and the per-project agent context blob.
//
// Grounded on internal/database/database.go: same PostgreSQL-only
// connection setup, environment-variable defaults, and pool tuning:
// schema is initialized with idempotent `CREATE TABLE IF NOT EXISTS`
// statements rather than a migration runner, since the domain here has
// no legacy schema to migrate away from.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
)

// Database wraps a PostgreSQL connection pool.
type Database struct {
	db *sql.DB
}

// NewFromEnv opens a PostgreSQL connection using DATABASE_URL if set,
// else the discrete POSTGRES_* variables, and initializes the schema.
func NewFromEnv() (*Database, error) {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		host := envOr("POSTGRES_HOST", "localhost")
		port := envOr("POSTGRES_PORT", "5432")
		user := envOr("POSTGRES_USER", "appgen")
		password := envOr("POSTGRES_PASSWORD", "appgen")
		dbname := envOr("POSTGRES_DB", "appgen")
		sslmode := envOr("POSTGRES_SSLMODE", "disable")
		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgresql database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping postgresql database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	d := &Database{db: sqlDB}
	if err := d.initSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return d, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DB exposes the underlying pool for components (migrations, schema
// introspection tools) that need raw SQL access.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Close releases the connection pool.
func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS generated_files (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			content TEXT NOT NULL,
			language TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS generated_files_active_path_idx
			ON generated_files(project_id, path) WHERE is_active`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'todo',
			priority TEXT NOT NULL DEFAULT 'medium',
			order_index INTEGER NOT NULL DEFAULT 0,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS error_records (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			message TEXT NOT NULL,
			stack TEXT,
			file TEXT,
			line INTEGER,
			code_snippet TEXT,
			context JSONB,
			status TEXT NOT NULL DEFAULT 'open',
			attempt_count INTEGER NOT NULL DEFAULT 0,
			resolution_notes TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS agent_contexts (
			project_id TEXT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
			session_id TEXT,
			context_data JSONB NOT NULL DEFAULT '{}',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}
	return nil
}
