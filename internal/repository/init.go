package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
)

// ConfigFrom maps the application database settings onto Config.
func ConfigFrom(c common.DatabaseConfig) Config {
	return Config{
		DSN:              c.DSN,
		MaxConns:         c.MaxConns,
		MinConns:         c.MinConns,
		MaxConnLifetime:  c.MaxConnLifetime,
		MaxConnIdleTime:  c.MaxConnIdleTime,
		DialTimeout:      c.DialTimeout,
		StatementTimeout: c.StatementTimeout,
	}
}

// DBResult is an opened, migrated database plus its cleanup.
type DBResult struct {
	DB      *DB
	Cleanup func()
}

// InitDatabase opens the configured database, or a private in-memory SQLite
// one when inmem is set, and applies the schema.
func InitDatabase(ctx context.Context, cfg common.DatabaseConfig, inmem bool, logger *slog.Logger) (*DBResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dbCfg := ConfigFrom(cfg)
	if inmem {
		dbCfg.DSN = InMemoryDSN
		logger.Info("using in-memory SQLite database")
	} else if dbCfg.DSN == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "database.dsn is required unless --inmem is set", common.ErrInvalidInput)
	}

	db, err := Open(ctx, dbCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := Migrate(ctx, db, logger); err != nil {
		Close(db, logger)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DBResult{DB: db, Cleanup: func() { Close(db, logger) }}, nil
}
