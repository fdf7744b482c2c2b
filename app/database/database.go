// Package database opens the configured SQL store and creates its schema.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vibast-solutions/ms-go-jobtracker/config"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		canonical_email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		reset_token_id VARCHAR(36) NULL,
		reset_token_used BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE KEY uq_users_canonical_email (canonical_email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS applications (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		company_name VARCHAR(100) NOT NULL,
		position VARCHAR(100) NOT NULL,
		company_email VARCHAR(255) NULL,
		location VARCHAR(100) NULL,
		salary VARCHAR(50) NULL,
		notes TEXT NULL,
		job_url VARCHAR(2048) NULL,
		status VARCHAR(50) NOT NULL DEFAULT 'pending',
		date_applied DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		KEY idx_applications_user_date (user_id, date_applied),
		CONSTRAINT fk_applications_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		canonical_email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		reset_token_id TEXT,
		reset_token_used BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		company_name TEXT NOT NULL,
		position TEXT NOT NULL,
		company_email TEXT,
		location TEXT,
		salary TEXT,
		notes TEXT,
		job_url TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		date_applied DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_user_date ON applications (user_id, date_applied)`,
}

// Open connects to the configured store. MySQL DSNs need parseTime=true so
// DATETIME columns scan into time.Time.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.Driver == config.DriverSQLite {
		// A single connection keeps the foreign_keys pragma and in-memory
		// databases consistent across queries.
		db.SetMaxOpenConns(1)
		if _, err = db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var statements []string
	switch driver {
	case config.DriverMySQL:
		statements = mysqlSchema
	case config.DriverSQLite:
		statements = sqliteSchema
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
