package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect names the SQL flavour behind a DB
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

// DB is a database handle that knows its dialect
type DB struct {
	*sql.DB
	Dialect Dialect
}

// ConnectDB opens dsn. Postgres URLs and key=value strings go to lib/pq;
// anything else is a SQLite file path, created along with its directory
// if it doesn't exist.
func ConnectDB(dsn string) (*DB, error) {
	if isPostgres(dsn) {
		db, err := sql.Open(string(Postgres), dsn)
		if err != nil {
			return nil, err
		}
		return &DB{DB: db, Dialect: Postgres}, nil
	}

	// Expand tilde to home directory if present
	if strings.HasPrefix(dsn, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dsn = homeDir + dsn[1:]
	}

	if dsn != ":memory:" {
		dbDir := filepath.Dir(dsn)
		if dbDir != "." {
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open(string(SQLite), dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection also keeps :memory:
	// databases from splitting per connection.
	db.SetMaxOpenConns(1)
	return &DB{DB: db, Dialect: SQLite}, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// EnsureSchema creates the tables if they don't exist
func EnsureSchema(db *DB) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.Dialect == Postgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id ` + serial + `,
			owner TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			due_date TEXT NOT NULL,
			status TEXT NOT NULL,
			created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			lastmodified TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS tasks_owner ON tasks (owner)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			name TEXT NOT NULL,
			created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			local_id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			display_name TEXT NOT NULL,
			provider TEXT NOT NULL,
			disabled BOOLEAN NOT NULL DEFAULT FALSE,
			created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres
func rebind(db *DB, query string) string {
	if db.Dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
