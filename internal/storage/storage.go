package storage

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("key not found")

// KV 外部键值存储的抽象（设置、统计、资金三条记录）
type KV interface {
	// Get 不存在时返回 ErrNotFound
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
}

// Options 选择后端
type Options struct {
	Driver string // memory | redis | postgres

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PostgresDSN string
}

// Open 按 driver 创建 KV；返回的 close 用于释放连接
func Open(ctx context.Context, opts Options) (KV, func() error, error) {
	switch opts.Driver {
	case "", "memory":
		return NewMemoryKV(), func() error { return nil }, nil

	case "redis":
		rdb, err := InitRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("redis init: %w", err)
		}
		return NewRedisKV(rdb), rdb.Close, nil

	case "postgres":
		db, err := InitPostgres(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres init: %w", err)
		}
		kv := NewPostgresKV(db)
		if err := kv.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}
		return kv, db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
}
