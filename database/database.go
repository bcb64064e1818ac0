package database

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-poll/config"
)

// Dialect names the SQL driver in use. It doubles as the migrations subdirectory.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

// DialectOf picks the driver from a DB url: postgres:// and postgresql:// go to
// Postgres, anything else is taken as a SQLite file path.
func DialectOf(url string) Dialect {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return Postgres
	}
	return SQLite
}

func Open(cfg config.Config) (db *sql.DB, err error) {
	dialect := DialectOf(cfg.DBUrl)

	dsn := cfg.DBUrl
	if dialect == SQLite {
		// foreign_keys is a per-connection pragma, so it goes in the DSN
		// rather than in a one-off Exec. Write transactions take the write
		// lock on BEGIN so that two of them wait on each other instead of
		// failing with "database is locked" on their first write.
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=1&_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL"
	}

	db, err = sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping")
	}

	err = migrateDB(db, dialect)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	return db, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inClause renders "$n, $n+1, ..." for len(ids) arguments starting at $start.
func inClause(start int, ids []int64) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "$" + strconv.Itoa(start+i)
		args[i] = id
	}
	return strings.Join(marks, ", "), args
}

// rowLock is the clause that locks the rows a SELECT returns until the
// transaction ends. SQLite has none: its transactions begin IMMEDIATE and
// already exclude each other.
func rowLock(db *sql.DB) string {
	if _, ok := db.Driver().(*pq.Driver); ok {
		return " FOR NO KEY UPDATE"
	}
	return ""
}
