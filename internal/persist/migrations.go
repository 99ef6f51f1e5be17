package persist

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// gooseLogger routes goose output into the engine log.
type gooseLogger struct {
	log *zap.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Fatal(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Migrate applies all pending schema migrations and logs the version
// before and after.
func (db *DB) Migrate(ctx context.Context) error {
	goose.SetLogger(gooseLogger{log: db.log.Named("goose")})
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	from, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	to, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if to != from {
		db.log.Info("schema migrated", zap.Int64("from", from), zap.Int64("to", to))
	} else {
		db.log.Info("schema up to date", zap.Int64("version", to))
	}
	return nil
}
