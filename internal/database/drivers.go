package database

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDialect implements Dialect for SQLite
type SQLiteDialect struct{}

// NewSQLiteDialect creates a new SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) DriverName() string { return "sqlite3" }

func (d *SQLiteDialect) RewriteQuery(query string) string {
	// SQLite uses ? placeholders, no rewrite needed
	return query
}

func (d *SQLiteDialect) SupportsLastInsertId() bool { return true }

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db)

	// WAL mode for better concurrency between the session and the saved panel
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return err
	}
	return nil
}

func (d *SQLiteDialect) MigrationsSubdir() string { return "sqlite" }

func (d *SQLiteDialect) UpsertStateQuery() string {
	return `INSERT OR REPLACE INTO app_state (name, value) VALUES (?, ?)`
}

func (d *SQLiteDialect) UpsertResultQuery() string {
	return `
		INSERT INTO check_results (paragraph_id, step_key, pass, marked_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(paragraph_id, step_key) DO UPDATE SET
			pass = excluded.pass, marked_at = excluded.marked_at
	`
}

// PostgresDialect implements Dialect for PostgreSQL
type PostgresDialect struct{}

// NewPostgresDialect creates a new PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) DriverName() string { return "postgres" }

func (d *PostgresDialect) RewriteQuery(query string) string {
	return rewritePlaceholdersToNumbered(query)
}

// PostgreSQL needs a RETURNING clause instead of LastInsertId
func (d *PostgresDialect) SupportsLastInsertId() bool { return false }

func (d *PostgresDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db)
	return nil
}

func (d *PostgresDialect) MigrationsSubdir() string { return "postgres" }

func (d *PostgresDialect) UpsertStateQuery() string {
	return `
		INSERT INTO app_state (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value
	`
}

func (d *PostgresDialect) UpsertResultQuery() string {
	return `
		INSERT INTO check_results (paragraph_id, step_key, pass, marked_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (paragraph_id, step_key) DO UPDATE SET
			pass = EXCLUDED.pass, marked_at = EXCLUDED.marked_at
	`
}

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string { return "mysql" }

func (d *MySQLDialect) RewriteQuery(query string) string {
	// MySQL uses ? placeholders like SQLite
	return query
}

func (d *MySQLDialect) SupportsLastInsertId() bool { return true }

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db)

	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1;"); err != nil {
		return err
	}
	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string { return "mysql" }

func (d *MySQLDialect) UpsertStateQuery() string {
	return `
		INSERT INTO app_state (name, value) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value)
	`
}

func (d *MySQLDialect) UpsertResultQuery() string {
	return `
		INSERT INTO check_results (paragraph_id, step_key, pass, marked_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE pass = VALUES(pass), marked_at = VALUES(marked_at)
	`
}

func configurePool(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
}
