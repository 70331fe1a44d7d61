package store

import (
	"fmt"
	"strings"
)

type dialect string

const (
	dialectSQLite   dialect = "sqlite"
	dialectPostgres dialect = "postgres"
	dialectMySQL    dialect = "mysql"
)

type tableDef struct {
	name    string
	columns []string
	indexes []indexDef
}

type indexDef struct {
	name    string
	columns string
}

// Column types are restricted to the subset understood by SQLite,
// PostgreSQL and MySQL alike: VARCHAR keys (MySQL cannot index TEXT
// without a length), BIGINT millisecond timestamps, TEXT payloads without
// defaults.
var schema = []tableDef{
	{
		name: "admin_credentials",
		columns: []string{
			"username VARCHAR(255) NOT NULL PRIMARY KEY",
			"password_hash VARCHAR(255) NOT NULL",
			"created_at BIGINT NOT NULL",
		},
	},
	{
		name: "admin_sessions",
		columns: []string{
			"token_hash VARCHAR(64) NOT NULL PRIMARY KEY",
			"id VARCHAR(36) NOT NULL UNIQUE",
			"admin_username VARCHAR(255) NOT NULL",
			"created_at BIGINT NOT NULL",
			"expires_at BIGINT NOT NULL",
			"last_accessed_at BIGINT NOT NULL",
			"ip_address VARCHAR(64) NOT NULL DEFAULT ''",
			"user_agent VARCHAR(512) NOT NULL DEFAULT ''",
			"FOREIGN KEY (admin_username) REFERENCES admin_credentials(username) ON DELETE CASCADE",
		},
		indexes: []indexDef{
			{name: "idx_admin_sessions_username", columns: "admin_username"},
			{name: "idx_admin_sessions_expires_at", columns: "expires_at"},
		},
	},
	{
		// No foreign keys: entries must stay insertable after the session
		// they reference has been purged.
		name: "admin_activity",
		columns: []string{
			"id VARCHAR(36) NOT NULL PRIMARY KEY",
			"session_id VARCHAR(36) NOT NULL DEFAULT ''",
			"admin_username VARCHAR(255) NOT NULL",
			"action VARCHAR(64) NOT NULL",
			"target_type VARCHAR(32) NOT NULL DEFAULT ''",
			"target_id VARCHAR(255) NOT NULL DEFAULT ''",
			"metadata TEXT NOT NULL",
			"occurred_at BIGINT NOT NULL",
		},
		indexes: []indexDef{
			{name: "idx_admin_activity_occurred_at", columns: "occurred_at"},
		},
	},
	{
		name: "users",
		columns: []string{
			"id VARCHAR(36) NOT NULL PRIMARY KEY",
			"username VARCHAR(255) NOT NULL UNIQUE",
			"created_at BIGINT NOT NULL",
		},
	},
	{
		name: "puzzles",
		columns: []string{
			"id VARCHAR(36) NOT NULL PRIMARY KEY",
			"title VARCHAR(255) NOT NULL",
			"brand VARCHAR(255) NOT NULL DEFAULT ''",
			"piece_count INTEGER NOT NULL DEFAULT 0",
			"status VARCHAR(16) NOT NULL DEFAULT 'pending'",
			"submitted_by VARCHAR(36) NOT NULL DEFAULT ''",
			"submitted_at BIGINT NOT NULL",
			"reviewed_by VARCHAR(255) NOT NULL DEFAULT ''",
			"reviewed_at BIGINT",
			"rejection_reason VARCHAR(1024) NOT NULL DEFAULT ''",
		},
		indexes: []indexDef{
			{name: "idx_puzzles_status", columns: "status"},
		},
	},
	{
		name: "feedback",
		columns: []string{
			"id VARCHAR(36) NOT NULL PRIMARY KEY",
			"user_id VARCHAR(36) NOT NULL DEFAULT ''",
			"message TEXT NOT NULL",
			"status VARCHAR(16) NOT NULL DEFAULT 'new'",
			"created_at BIGINT NOT NULL",
			"updated_at BIGINT NOT NULL",
		},
		indexes: []indexDef{
			{name: "idx_feedback_status", columns: "status"},
		},
	},
	{
		name: "completions",
		columns: []string{
			"id VARCHAR(36) NOT NULL PRIMARY KEY",
			"user_id VARCHAR(36) NOT NULL",
			"puzzle_id VARCHAR(36) NOT NULL",
			"completed_at BIGINT NOT NULL",
		},
	},
}

// migrationStatements renders the schema for one dialect. MySQL has no
// CREATE INDEX IF NOT EXISTS, so its indexes are declared inline.
func migrationStatements(d dialect) []string {
	var stmts []string
	for _, t := range schema {
		cols := append([]string(nil), t.columns...)
		if d == dialectMySQL {
			for _, idx := range t.indexes {
				cols = append(cols, fmt.Sprintf("INDEX %s (%s)", idx.name, idx.columns))
			}
		}
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.name, strings.Join(cols, ",\n\t"))
		if d == dialectMySQL {
			stmt += " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
		}
		stmts = append(stmts, stmt)

		if d != dialectMySQL {
			for _, idx := range t.indexes {
				stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", idx.name, t.name, idx.columns))
			}
		}
	}
	return stmts
}

func (s *Store) migrate() error {
	for _, m := range migrationStatements(s.dialect) {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
