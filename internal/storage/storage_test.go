package storage

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 所有后端共用同一套行为
func exerciseKV(t *testing.T, kv KV) {
	ctx := context.Background()

	_, err := kv.Get(ctx, "bj:p1:settings")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(ctx, "bj:p1:settings", `{"showCount":true}`))
	v, err := kv.Get(ctx, "bj:p1:settings")
	require.NoError(t, err)
	assert.Equal(t, `{"showCount":true}`, v)

	// 覆盖写
	require.NoError(t, kv.Set(ctx, "bj:p1:settings", `{}`))
	v, _ = kv.Get(ctx, "bj:p1:settings")
	assert.Equal(t, `{}`, v)

	require.NoError(t, kv.Set(ctx, "bj:p1:bankroll", "10000"))
	require.NoError(t, kv.Del(ctx, "bj:p1:settings", "bj:p1:bankroll"))
	_, err = kv.Get(ctx, "bj:p1:bankroll")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, kv.Del(ctx))
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestRedisKV(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	exerciseKV(t, NewRedisKV(rdb))

	// 记录不过期
	kv := NewRedisKV(rdb)
	require.NoError(t, kv.Set(context.Background(), "bj:p2:stats", "{}"))
	assert.Equal(t, int64(0), int64(mr.TTL("bj:p2:stats")))
}

// 需要真实数据库: BJ_TEST_POSTGRES_DSN=postgres://... go test ./internal/storage
func TestPostgresKV(t *testing.T) {
	dsn := os.Getenv("BJ_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BJ_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := InitPostgres(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	kv := NewPostgresKV(db)
	require.NoError(t, kv.Migrate(ctx))
	exerciseKV(t, kv)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	kv, closeFn, err := Open(ctx, Options{Driver: "memory"})
	require.NoError(t, err)
	assert.NotNil(t, kv)
	assert.NoError(t, closeFn())

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	kv, closeFn, err = Open(ctx, Options{Driver: "redis", RedisAddr: mr.Addr()})
	require.NoError(t, err)
	exerciseKV(t, kv)
	assert.NoError(t, closeFn())

	_, _, err = Open(ctx, Options{Driver: "etcd"})
	assert.Error(t, err)
}
