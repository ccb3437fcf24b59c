package manager

import (
	"context"
	"errors"
	"sync"
	"time"

	"BlackjackTrainer/internal/game/engine"
	"BlackjackTrainer/internal/game/table"
	"BlackjackTrainer/internal/profile"
	"BlackjackTrainer/internal/storage"
	"BlackjackTrainer/internal/websocket"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// EventState 每条命令之后推给客户端的快照
const EventState = "state"

// Session 一个玩家的一张桌子。engine 只在 mu 下访问。
type Session struct {
	ID        string
	ProfileID string

	mu       sync.Mutex
	engine   *engine.Engine
	lastSeen time.Time
}

type Options struct {
	Rules  table.Rules
	KV     storage.KV
	Hub    websocket.HubInterface
	Logger *log.Logger
	Clock  quartz.Clock
	// IdleTimeout 之后 Sweep 会回收会话；0 表示不回收
	IdleTimeout time.Duration
	// Seed 非 0 时所有会话用同一个种子（测试/复盘）
	Seed int64
}

// GameManager 管理所有会话
type GameManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session // session id → session

	rules  table.Rules
	kv     storage.KV
	hub    websocket.HubInterface
	logger *log.Logger
	clock  quartz.Clock
	idle   time.Duration
	seed   int64
}

func NewGameManager(opts Options) *GameManager {
	m := &GameManager{
		sessions: make(map[string]*Session),
		rules:    opts.Rules,
		kv:       opts.KV,
		hub:      opts.Hub,
		logger:   opts.Logger,
		clock:    opts.Clock,
		idle:     opts.IdleTimeout,
		seed:     opts.Seed,
	}
	if m.kv == nil {
		m.kv = storage.NewMemoryKV()
	}
	if m.logger == nil {
		m.logger = log.Default()
	}
	if m.clock == nil {
		m.clock = quartz.NewReal()
	}
	return m
}

// Open 为 profile 开一个新会话；profileID 为空时生成一个
func (m *GameManager) Open(profileID string) *Session {
	if profileID == "" {
		profileID = uuid.NewString()
	}
	store := profile.NewStore(m.kv, profileID, m.logger.With("profile", profileID))
	s := &Session{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		lastSeen:  m.clock.Now(),
	}
	s.engine = engine.New(engine.Options{
		Rules:  m.rules,
		Store:  store,
		Logger: m.logger.With("session", s.ID),
		Seed:   m.seed,
	})

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("session opened", "session", s.ID, "profile", profileID, "sessions", n)
	return s
}

func (m *GameManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close 结束会话并断开它的连接
func (m *GameManager) Close(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	if m.hub != nil {
		m.hub.Disconnect(id)
	}
	m.logger.Info("session closed", "session", id)
	return nil
}

// State 当前快照，不算一次活动
func (m *GameManager) State(id string) (engine.Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return engine.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot(), nil
}

// Do 串行执行一条命令，并把新快照推给该会话的连接
func (m *GameManager) Do(id string, cmd Command) (engine.Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return engine.Snapshot{}, err
	}

	s.mu.Lock()
	if err := apply(s.engine, cmd); err != nil {
		s.mu.Unlock()
		return engine.Snapshot{}, err
	}
	snap := s.engine.Snapshot()
	s.lastSeen = m.clock.Now()
	s.mu.Unlock()

	if m.hub != nil {
		m.hub.SendToPlayer(id, websocket.OutgoingMessage{Event: EventState, Data: snap})
	}
	return snap, nil
}

// HandlePlayerMessage 统一入口（来自 Hub.OnIncoming）
func (m *GameManager) HandlePlayerMessage(msg websocket.IncomingMessage) {
	cmd, err := ParseCommand(msg.Event, msg.Data)
	if err == nil {
		_, err = m.Do(msg.From, cmd)
	}
	if err != nil {
		m.logger.Debug("socket command rejected", "session", msg.From, "event", msg.Event, "err", err)
		if m.hub != nil {
			m.hub.SendToPlayer(msg.From, websocket.OutgoingMessage{
				Event: "error",
				Data:  map[string]any{"command": msg.Event, "error": err.Error()},
			})
		}
	}
}

// Sweep 回收空闲超时的会话，返回回收数量
func (m *GameManager) Sweep() int {
	if m.idle <= 0 {
		return 0
	}
	now := m.clock.Now()

	var expired []string
	m.mu.Lock()
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastSeen)
		s.mu.Unlock()
		if idle >= m.idle {
			delete(m.sessions, id)
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		if m.hub != nil {
			m.hub.Disconnect(id)
		}
		m.logger.Info("session expired", "session", id)
	}
	return len(expired)
}

// RunSweeper 按 interval 周期性 Sweep，直到 ctx 结束
func (m *GameManager) RunSweeper(ctx context.Context, interval time.Duration) error {
	if m.idle <= 0 || interval <= 0 {
		<-ctx.Done()
		return nil
	}
	w := m.clock.TickerFunc(ctx, interval, func() error {
		m.Sweep()
		return nil
	}, "sweeper")
	err := w.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Len 当前会话数
func (m *GameManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
