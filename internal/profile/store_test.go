package profile

import (
	"context"
	"errors"
	"io"
	"testing"

	"BlackjackTrainer/internal/game/counting"
	"BlackjackTrainer/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = log.New(io.Discard)

// brokenKV 读写都失败
type brokenKV struct{}

func (brokenKV) Get(context.Context, string) (string, error) { return "", errors.New("boom") }
func (brokenKV) Set(context.Context, string, string) error    { return errors.New("boom") }
func (brokenKV) Del(context.Context, ...string) error         { return errors.New("boom") }

func TestDefaultsWhenMissing(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryKV(), "p1", quiet)

	assert.Equal(t, DefaultSettings(), s.LoadSettings(ctx))
	assert.Equal(t, Stats{}, s.LoadStats(ctx))
	assert.Equal(t, DefaultBankroll, s.LoadBankroll(ctx))

	d := DefaultSettings()
	assert.Equal(t, counting.HiLo, d.CountingSystem)
	assert.True(t, d.ShowCount)
	assert.True(t, d.ShowStrategyHints)
}

func TestDefaultsWhenMalformed(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, "bj:p1:settings", "{not json"))
	require.NoError(t, kv.Set(ctx, "bj:p1:stats", `{"handsPlayed":-4}`))
	require.NoError(t, kv.Set(ctx, "bj:p1:bankroll", "lots"))

	s := NewStore(kv, "p1", quiet)
	assert.Equal(t, DefaultSettings(), s.LoadSettings(ctx))
	assert.Equal(t, Stats{}, s.LoadStats(ctx))
	assert.Equal(t, DefaultBankroll, s.LoadBankroll(ctx))

	// 未知计数系统也算损坏
	require.NoError(t, kv.Set(ctx, "bj:p1:settings", `{"countingSystem":"Zen","showCount":false}`))
	assert.Equal(t, DefaultSettings(), s.LoadSettings(ctx))
}

func TestDefaultsWhenBackendFails(t *testing.T) {
	ctx := context.Background()
	s := NewStore(brokenKV{}, "p1", quiet)

	assert.Equal(t, DefaultSettings(), s.LoadSettings(ctx))
	assert.Equal(t, Stats{}, s.LoadStats(ctx))
	assert.Equal(t, DefaultBankroll, s.LoadBankroll(ctx))
	assert.Error(t, s.SaveBankroll(ctx, 1))
}

func TestRoundTripRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	kv := storage.NewRedisKV(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	s := NewStore(kv, "p42", quiet)

	settings := Settings{CountingSystem: counting.OmegaII, ShowCount: false, ShowStrategyHints: true}
	stats := Stats{HandsPlayed: 10, Wins: 4, Losses: 4, Pushes: 1, Blackjacks: 1, TotalProfit: -35}

	require.NoError(t, s.SaveSettings(ctx, settings))
	require.NoError(t, s.SaveStats(ctx, stats))
	require.NoError(t, s.SaveBankroll(ctx, 9965))

	assert.True(t, mr.Exists("bj:p42:settings"))
	assert.True(t, mr.Exists("bj:p42:stats"))
	raw, _ := mr.Get("bj:p42:bankroll")
	assert.Equal(t, "9965", raw)

	assert.Equal(t, settings, s.LoadSettings(ctx))
	assert.Equal(t, stats, s.LoadStats(ctx))
	assert.Equal(t, int64(9965), s.LoadBankroll(ctx))

	// 不同 profile 互不影响
	other := NewStore(kv, "p43", quiet)
	assert.Equal(t, DefaultBankroll, other.LoadBankroll(ctx))
}

func TestSettingsApply(t *testing.T) {
	ko := counting.KO
	off := false
	s := DefaultSettings().Apply(SettingsPatch{CountingSystem: &ko, ShowCount: &off})
	assert.Equal(t, counting.KO, s.CountingSystem)
	assert.False(t, s.ShowCount)
	assert.True(t, s.ShowStrategyHints)
}

func TestStatsAdd(t *testing.T) {
	s := Stats{HandsPlayed: 1, Wins: 1, TotalProfit: 10}.Add(Stats{HandsPlayed: 2, Losses: 1, Blackjacks: 1, TotalProfit: 5})
	assert.Equal(t, Stats{HandsPlayed: 3, Wins: 1, Losses: 1, Blackjacks: 1, TotalProfit: 15}, s)
	assert.InDelta(t, 33.33, s.WinRate(), 0.01)
	assert.Equal(t, 0.0, Stats{}.WinRate())
	assert.InDelta(t, 33.33, s.BlackjackRate(), 0.01)
	assert.Equal(t, 0.0, Stats{}.BlackjackRate())
}
