package storage

import (
	"context"
	"fmt"

	"veribuy/config"
)

// Open returns the KeyValue backend selected by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config) (KeyValue, error) {
	switch cfg.StorageDriver {
	case "sqlite":
		return NewSQLiteKV(ctx, cfg.SQLitePath)
	case "postgres":
		return NewPostgresKV(ctx, cfg.PostgresDSN())
	case "redis":
		return NewRedisKV(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "memory":
		return NewMemoryKV(), nil
	}
	return nil, fmt.Errorf("storage: unknown driver %q", cfg.StorageDriver)
}
