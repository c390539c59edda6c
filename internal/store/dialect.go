package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// sqlDialect pairs an ent dialect with the database/sql driver name and the
// DDL that creates the store's tables on that database.
type sqlDialect struct {
	name       string
	driverName string
	ddl        []string
}

func dialectFor(driver string) (sqlDialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3", "":
		return sqlDialect{
			name:       dialect.SQLite,
			driverName: "sqlite",
			ddl: []string{
				`CREATE TABLE IF NOT EXISTS gate_kv (
					state_key TEXT PRIMARY KEY,
					payload TEXT NOT NULL,
					updated_at INTEGER NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS progress_events (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					sequence INTEGER NOT NULL UNIQUE,
					recorded_at INTEGER NOT NULL,
					course TEXT NOT NULL,
					kind TEXT NOT NULL,
					day INTEGER NOT NULL DEFAULT 0,
					subject TEXT NOT NULL DEFAULT '',
					detail TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE INDEX IF NOT EXISTS progress_events_course ON progress_events (course)`,
			},
		}, nil
	case "postgres", "postgresql":
		return sqlDialect{
			name:       dialect.Postgres,
			driverName: "postgres",
			ddl: []string{
				`CREATE TABLE IF NOT EXISTS gate_kv (
					state_key TEXT PRIMARY KEY,
					payload TEXT NOT NULL,
					updated_at BIGINT NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS progress_events (
					id BIGSERIAL PRIMARY KEY,
					sequence BIGINT NOT NULL UNIQUE,
					recorded_at BIGINT NOT NULL,
					course TEXT NOT NULL,
					kind TEXT NOT NULL,
					day INTEGER NOT NULL DEFAULT 0,
					subject TEXT NOT NULL DEFAULT '',
					detail TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE INDEX IF NOT EXISTS progress_events_course ON progress_events (course)`,
			},
		}, nil
	case "mysql":
		return sqlDialect{
			name:       dialect.MySQL,
			driverName: "mysql",
			ddl: []string{
				"CREATE TABLE IF NOT EXISTS `gate_kv` (" +
					"`state_key` VARCHAR(255) NOT NULL PRIMARY KEY," +
					"`payload` LONGTEXT NOT NULL," +
					"`updated_at` BIGINT NOT NULL)",
				"CREATE TABLE IF NOT EXISTS `progress_events` (" +
					"`id` BIGINT AUTO_INCREMENT PRIMARY KEY," +
					"`sequence` BIGINT NOT NULL UNIQUE," +
					"`recorded_at` BIGINT NOT NULL," +
					"`course` VARCHAR(255) NOT NULL," +
					"`kind` VARCHAR(64) NOT NULL," +
					"`day` INT NOT NULL DEFAULT 0," +
					"`subject` VARCHAR(255) NOT NULL DEFAULT ''," +
					"`detail` TEXT NOT NULL," +
					"INDEX `progress_events_course` (`course`))",
			},
		}, nil
	default:
		return sqlDialect{}, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// migrate creates the store tables if they do not exist.
func migrate(ctx context.Context, db *sql.DB, d sqlDialect) error {
	for _, stmt := range d.ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}
