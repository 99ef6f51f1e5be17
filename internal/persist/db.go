package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scenekit/engine/internal/config"
	"go.uber.org/zap"
)

// minPoolConns covers the persistence system's single writer plus one
// connection for restores and migrations running beside it.
const minPoolConns = 2

// DB wraps a pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

func NewDB(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	log.Info("database connected",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.Int32("min_conns", poolCfg.MinConns),
		zap.Duration("max_conn_idle_time", poolCfg.MaxConnIdleTime),
	)
	return &DB{Pool: pool, log: log}, nil
}

// poolConfig parses the DSN and sizes the pool. Snapshots and journal
// batches are written by one goroutine, so a small pool is enough; idle
// connections are released between snapshot intervals.
func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	maxConns := int32(cfg.MaxOpenConns)
	if maxConns < minPoolConns {
		maxConns = minPoolConns
	}
	minConns := int32(cfg.MaxIdleConns)
	if minConns < 0 {
		minConns = 0
	}
	if minConns > maxConns {
		minConns = maxConns
	}
	poolCfg.MaxConns = maxConns
	poolCfg.MinConns = minConns
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	return poolCfg, nil
}

func (db *DB) Close() {
	db.log.Debug("closing database pool", zap.Int32("total_conns", db.Pool.Stat().TotalConns()))
	db.Pool.Close()
}
