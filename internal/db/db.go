package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/stravasync/stravasync/internal/logging"
)

// Options selects the backing database. DatabaseURL wins when both are set.
type Options struct {
	DatabaseURL string
	SQLitePath  string
}

// Open connects to Postgres when a DATABASE_URL is configured and to a local
// SQLite file otherwise. Foreign keys are enforced on both.
func Open(opts Options) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger:  logging.NewGormLogger(),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	if opts.DatabaseURL != "" {
		pgcfg, err := pgx.ParseConfig(opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
		}
		conn, err := gorm.Open(postgres.Open(opts.DatabaseURL), gcfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(20)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)

		logging.Info().Str("driver", "postgres").Str("host", pgcfg.Host).Str("database", pgcfg.Database).Msg("connected to database")
		return conn, nil
	}

	if opts.SQLitePath == "" {
		return nil, fmt.Errorf("no database configured: set DATABASE_URL or SQLITE_PATH")
	}
	conn, err := openSQLite(sqliteDSN(opts.SQLitePath), gcfg)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("driver", "sqlite").Str("path", opts.SQLitePath).Msg("connected to database")
	return conn, nil
}

// OpenMemory returns a private in-memory SQLite database.
func OpenMemory() (*gorm.DB, error) {
	return openSQLite("file::memory:?_pragma=foreign_keys(1)", &gorm.Config{
		Logger:  logging.NewGormLogger(),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
}

func openSQLite(dsn string, gcfg *gorm.Config) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(dsn), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps an
	// in-memory database alive for the lifetime of the pool.
	sqlDB.SetMaxOpenConns(1)
	return conn, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close releases the underlying connection pool.
func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
