package store

import (
	"errors"
	"fmt"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
)

type migration struct {
	sql string
	// session marks statements that provision admin_sessions, which may be
	// skipped for databases that predate session tracking.
	session bool
}

var migrations = []migration{
	{sql: `CREATE TABLE IF NOT EXISTS members (
		id {{pk}},
		name {{str}} NOT NULL,
		phone {{str}} NOT NULL DEFAULT '',
		email {{str}} NOT NULL DEFAULT '',
		created_at {{time}} NOT NULL
	)`},

	{sql: `CREATE TABLE IF NOT EXISTS admins (
		id {{pk}},
		login_id {{str}} NOT NULL UNIQUE,
		password_hash {{str}} NOT NULL,
		name {{str}} NOT NULL,
		admin_type {{str}} NOT NULL DEFAULT 'NORMAL',
		member_id BIGINT NULL,
		created_at {{time}} NOT NULL,
		updated_at {{time}} NOT NULL,
		deleted_at {{time}} NULL
	)`},

	{sql: `CREATE TABLE IF NOT EXISTS admin_login_logs (
		id {{pk}},
		admin_id BIGINT NOT NULL,
		success {{bool}} NOT NULL,
		ip_address {{str}} NOT NULL DEFAULT '',
		user_agent {{text}} NOT NULL,
		login_at {{time}} NOT NULL
	)`},

	{sql: `CREATE INDEX {{ifnotexists}} idx_admin_login_logs_admin_id ON admin_login_logs(admin_id)`},

	{session: true, sql: `CREATE TABLE IF NOT EXISTS admin_sessions (
		id {{pk}},
		admin_id BIGINT NOT NULL REFERENCES admins(id) ON DELETE CASCADE,
		token {{token}} NOT NULL UNIQUE,
		ip_address {{str}} NOT NULL DEFAULT '',
		user_agent {{text}} NOT NULL,
		created_at {{time}} NOT NULL,
		last_accessed_at {{time}} NOT NULL,
		expires_at {{time}} NOT NULL
	)`},

	{session: true, sql: `CREATE INDEX {{ifnotexists}} idx_admin_sessions_admin_id ON admin_sessions(admin_id)`},
	{session: true, sql: `CREATE INDEX {{ifnotexists}} idx_admin_sessions_expires_at ON admin_sessions(expires_at)`},
}

// replacer expands the column-type placeholders for a dialect.
func (d Dialect) replacer() *strings.Replacer {
	switch d {
	case DialectMySQL:
		return strings.NewReplacer(
			"{{pk}}", "BIGINT AUTO_INCREMENT PRIMARY KEY",
			"{{str}}", "VARCHAR(255)",
			"{{token}}", "VARCHAR(512)",
			"{{text}}", "TEXT",
			"{{time}}", "DATETIME(3)",
			"{{bool}}", "TINYINT(1)",
			"{{ifnotexists}}", "",
		)
	case DialectPostgres:
		return strings.NewReplacer(
			"{{pk}}", "BIGSERIAL PRIMARY KEY",
			"{{str}}", "VARCHAR(255)",
			"{{token}}", "VARCHAR(512)",
			"{{text}}", "TEXT",
			"{{time}}", "TIMESTAMPTZ",
			"{{bool}}", "BOOLEAN",
			"{{ifnotexists}}", "IF NOT EXISTS",
		)
	default:
		return strings.NewReplacer(
			"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
			"{{str}}", "TEXT",
			"{{token}}", "TEXT",
			"{{text}}", "TEXT",
			"{{time}}", "DATETIME",
			"{{bool}}", "INTEGER",
			"{{ifnotexists}}", "IF NOT EXISTS",
		)
	}
}

const mysqlErrDuplicateKeyName = 1061

func (s *Store) migrate(skipSessionTable bool) error {
	r := s.dialect.replacer()
	for _, m := range migrations {
		if m.session && skipSessionTable {
			continue
		}
		stmt := r.Replace(m.sql)
		if _, err := s.db.Exec(stmt); err != nil {
			// MySQL has no CREATE INDEX IF NOT EXISTS; an existing index is a no-op.
			var myErr *mysqldriver.MySQLError
			if errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateKeyName {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}
