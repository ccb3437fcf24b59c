package manager

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"BlackjackTrainer/internal/game/counting"
	"BlackjackTrainer/internal/game/engine"
	"BlackjackTrainer/internal/game/table"
	"BlackjackTrainer/internal/profile"
	"BlackjackTrainer/internal/storage"
	"BlackjackTrainer/internal/websocket"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = log.New(io.Discard)

// mockHub 实现 HubInterface，记录消息
type mockHub struct {
	mu           sync.Mutex
	sent         map[string][]websocket.OutgoingMessage
	disconnected []string
}

func newMockHub() *mockHub {
	return &mockHub{sent: make(map[string][]websocket.OutgoingMessage)}
}

func (h *mockHub) SendToPlayer(id string, msg websocket.OutgoingMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent[id] = append(h.sent[id], msg)
}

func (h *mockHub) Connected(id string) bool { return true }

func (h *mockHub) Disconnect(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnected = append(h.disconnected, id)
}

func (h *mockHub) Close() {}

func (h *mockHub) last(id string) (websocket.OutgoingMessage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := h.sent[id]
	if len(msgs) == 0 {
		return websocket.OutgoingMessage{}, false
	}
	return msgs[len(msgs)-1], true
}

func (h *mockHub) count(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sent[id])
}

func newManager(t *testing.T, kv storage.KV, hub websocket.HubInterface, clock quartz.Clock) *GameManager {
	t.Helper()
	return NewGameManager(Options{
		Rules:       table.DefaultRules(),
		KV:          kv,
		Hub:         hub,
		Logger:      quiet,
		Clock:       clock,
		IdleTimeout: 10 * time.Minute,
		Seed:        42,
	})
}

func TestOpenAndState(t *testing.T) {
	mgr := newManager(t, storage.NewMemoryKV(), newMockHub(), quartz.NewMock(t))

	s := mgr.Open("")
	assert.NotEmpty(t, s.ID)
	assert.NotEmpty(t, s.ProfileID)
	assert.Equal(t, 1, mgr.Len())

	snap, err := mgr.State(s.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseBetting, snap.Phase)
	assert.Equal(t, profile.DefaultBankroll, snap.Bankroll)
	assert.Equal(t, engine.DefaultBet, snap.CurrentBet)

	_, err = mgr.State("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDoPushesState(t *testing.T) {
	hub := newMockHub()
	mgr := newManager(t, storage.NewMemoryKV(), hub, quartz.NewMock(t))
	s := mgr.Open("p1")

	snap, err := mgr.Do(s.ID, Command{Name: CmdBet, Amount: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(50), snap.CurrentBet)

	snap, err = mgr.Do(s.ID, Command{Name: CmdNewRound})
	require.NoError(t, err)
	assert.NotEqual(t, engine.PhaseBetting, snap.Phase)
	assert.Len(t, snap.PlayerHands[0].Cards, 2)

	msg, ok := hub.last(s.ID)
	require.True(t, ok)
	assert.Equal(t, EventState, msg.Event)
	pushed, ok := msg.Data.(engine.Snapshot)
	require.True(t, ok)
	assert.Equal(t, snap.Phase, pushed.Phase)
	assert.Equal(t, 2, hub.count(s.ID))

	_, err = mgr.Do(s.ID, Command{Name: "fold"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Equal(t, 2, hub.count(s.ID))

	_, err = mgr.Do("missing", Command{Name: CmdHit})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestProfilePersistsAcrossSessions(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	kv := storage.NewRedisKV(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	mgr := newManager(t, kv, newMockHub(), quartz.NewMock(t))

	s := mgr.Open("alice")
	off := false
	ko := counting.KO
	_, err = mgr.Do(s.ID, Command{Name: CmdSettings, Settings: &profile.SettingsPatch{ShowCount: &off, CountingSystem: &ko}})
	require.NoError(t, err)
	require.NoError(t, mgr.Close(s.ID))
	assert.ErrorIs(t, mgr.Close(s.ID), ErrSessionNotFound)

	again := mgr.Open("alice")
	snap, err := mgr.State(again.ID)
	require.NoError(t, err)
	assert.False(t, snap.Settings.ShowCount)
	assert.Equal(t, counting.KO, snap.Settings.CountingSystem)
	assert.True(t, mr.Exists("bj:alice:settings"))

	other := mgr.Open("bob")
	snap, _ = mgr.State(other.ID)
	assert.Equal(t, profile.DefaultSettings(), snap.Settings)
}

func TestHandlePlayerMessage(t *testing.T) {
	hub := newMockHub()
	mgr := newManager(t, storage.NewMemoryKV(), hub, quartz.NewMock(t))
	s := mgr.Open("p1")

	mgr.HandlePlayerMessage(websocket.IncomingMessage{From: s.ID, Event: CmdBet, Data: json.RawMessage(`{"amount":75}`)})
	msg, ok := hub.last(s.ID)
	require.True(t, ok)
	require.Equal(t, EventState, msg.Event)
	assert.Equal(t, int64(75), msg.Data.(engine.Snapshot).CurrentBet)

	mgr.HandlePlayerMessage(websocket.IncomingMessage{From: s.ID, Event: CmdBet})
	msg, _ = hub.last(s.ID)
	assert.Equal(t, "error", msg.Event)

	mgr.HandlePlayerMessage(websocket.IncomingMessage{From: s.ID, Event: "chat", Data: json.RawMessage(`"hi"`)})
	msg, _ = hub.last(s.ID)
	assert.Equal(t, "error", msg.Event)

	mgr.HandlePlayerMessage(websocket.IncomingMessage{From: s.ID, Event: CmdRules, Data: json.RawMessage(`{"numDecks":2}`)})
	msg, _ = hub.last(s.ID)
	require.Equal(t, EventState, msg.Event)
	assert.Equal(t, 2, msg.Data.(engine.Snapshot).Rules.NumDecks)
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	hub := newMockHub()
	mgr := newManager(t, storage.NewMemoryKV(), hub, clock)

	idle := mgr.Open("a")
	busy := mgr.Open("b")

	clock.Advance(6 * time.Minute).MustWait(ctx)
	_, err := mgr.Do(busy.ID, Command{Name: CmdHit})
	require.NoError(t, err)

	assert.Equal(t, 0, mgr.Sweep())

	clock.Advance(5 * time.Minute).MustWait(ctx)
	assert.Equal(t, 1, mgr.Sweep())

	_, err = mgr.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = mgr.Get(busy.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{idle.ID}, hub.disconnected)

	// State 不算活动
	clock.Advance(4 * time.Minute).MustWait(ctx)
	_, _ = mgr.State(busy.ID)
	clock.Advance(time.Minute).MustWait(ctx)
	assert.Equal(t, 1, mgr.Sweep())
	assert.Equal(t, 0, mgr.Len())
}

func TestRunSweeper(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mgr := NewGameManager(Options{
		Rules:       table.DefaultRules(),
		Hub:         newMockHub(),
		Logger:      quiet,
		Clock:       quartz.NewReal(),
		IdleTimeout: 20 * time.Millisecond,
	})
	mgr.Open("a")

	done := make(chan error, 1)
	go func() { done <- mgr.RunSweeper(ctx, 5*time.Millisecond) }()

	require.Eventually(t, func() bool { return mgr.Len() == 0 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

// 并发命令在同一会话上串行执行
func TestConcurrentCommands(t *testing.T) {
	mgr := newManager(t, storage.NewMemoryKV(), newMockHub(), quartz.NewReal())
	s := mgr.Open("p1")

	names := []string{CmdNewRound, CmdHit, CmdStand, CmdDouble, CmdSplit, CmdBet}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = mgr.Do(s.ID, Command{Name: names[(i+j)%len(names)], Amount: 20})
			}
		}(i)
	}
	wg.Wait()

	snap, err := mgr.State(s.ID)
	require.NoError(t, err)
	stats := snap.Stats
	assert.Equal(t, stats.HandsPlayed, stats.Wins+stats.Losses+stats.Pushes+stats.Blackjacks)
	assert.Equal(t, profile.DefaultBankroll+stats.TotalProfit, snap.Bankroll)
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand(CmdHit, []byte(`{"ignored":true}`))
	require.NoError(t, err)
	assert.Equal(t, Command{Name: CmdHit}, cmd)

	cmd, err = ParseCommand(CmdBet, []byte(`{"amount":120}`))
	require.NoError(t, err)
	assert.Equal(t, int64(120), cmd.Amount)

	_, err = ParseCommand(CmdBet, []byte(`{}`))
	assert.ErrorIs(t, err, ErrBadPayload)
	_, err = ParseCommand(CmdBet, nil)
	assert.ErrorIs(t, err, ErrBadPayload)

	cmd, err = ParseCommand(CmdRules, []byte(`{"lateSurrender":true,"numDecks":4}`))
	require.NoError(t, err)
	require.NotNil(t, cmd.Rules)
	assert.Equal(t, 4, *cmd.Rules.NumDecks)
	assert.True(t, *cmd.Rules.LateSurrender)
	assert.Nil(t, cmd.Rules.Penetration)

	cmd, err = ParseCommand(CmdSettings, []byte(`{"countingSystem":"Omega II"}`))
	require.NoError(t, err)
	assert.Equal(t, counting.OmegaII, *cmd.Settings.CountingSystem)

	_, err = ParseCommand(CmdSettings, []byte(`not json`))
	assert.ErrorIs(t, err, ErrBadPayload)

	_, err = ParseCommand("insurance", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}
