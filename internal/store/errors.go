package store

import (
	"errors"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an insert or update violates a unique key.
	ErrConflict = errors.New("duplicate value")
)

const (
	mysqlErrNoSuchTable   = 1146
	mysqlErrDuplicateKey  = 1062
	pgErrUndefinedTable   = "42P01"
	pgErrUniqueViolation  = "23505"
	sqliteNoSuchTableText = "no such table"
)

// IsTableMissing reports whether err was caused by querying a table that
// has not been created yet. Callers treat it as "infrastructure not ready"
// rather than as a failure.
func IsTableMissing(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrNoSuchTable
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUndefinedTable
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, sqliteNoSuchTableText) ||
		strings.Contains(msg, "doesn't exist") ||
		strings.Contains(msg, "unknown table")
}

// IsDatabaseError reports whether err originated in the database driver
// (as opposed to context cancellation or a programming error).
func IsDatabaseError(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysqldriver.MySQLError
	var pgErr *pgconn.PgError
	var liteErr *sqlite.Error
	return errors.As(err, &myErr) || errors.As(err, &pgErr) || errors.As(err, &liteErr) ||
		errors.Is(err, mysqldriver.ErrInvalidConn) || IsTableMissing(err)
}

// isUniqueViolation reports whether err is a unique-key violation.
func isUniqueViolation(err error) bool {
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrDuplicateKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
