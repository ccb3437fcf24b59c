package websocket

import (
	"sync"

	"github.com/charmbracelet/log"
)

type HubInterface interface {
	SendToPlayer(sessionID string, msg OutgoingMessage)
	Connected(sessionID string) bool
	Disconnect(sessionID string)
	Close()
}

// Hub 每个会话最多一条连接；新连接顶掉旧连接
type Hub struct {
	clients    map[string]*Client // session id -> client
	register   chan *Client
	unregister chan *Client
	incoming   chan IncomingMessage
	OnIncoming func(IncomingMessage)
	quit       chan struct{}
	closeOnce  sync.Once
	mu         sync.RWMutex
	logger     *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan IncomingMessage),
		quit:       make(chan struct{}),
		logger:     logger,
	}
}

// Run 阻塞直到 Close
func (h *Hub) Run() {
	h.logger.Info("hub started")

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[c.Session]; ok && old != c {
				close(old.Send)
				h.logger.Debug("hub replaced connection", "session", c.Session)
			}
			h.clients[c.Session] = c
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("hub register", "session", c.Session, "clients", n)

		case c := <-h.unregister:
			h.drop(c)

		case req := <-h.incoming:
			// 交给游戏层；回推走 SendToPlayer，不经过 Run 循环
			if h.OnIncoming != nil {
				h.OnIncoming(req)
			}

		case <-h.quit:
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped")
			return
		}
	}
}

// drop 只移除仍然登记着的那条连接
func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.Session]; ok && cur == c {
		delete(h.clients, c.Session)
		close(c.Send)
		h.logger.Debug("hub unregister", "session", c.Session, "clients", len(h.clients))
	}
}

// SendToPlayer 非阻塞；发送队列满就丢弃，客户端下一条状态会覆盖
func (h *Hub) SendToPlayer(sessionID string, msg OutgoingMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[sessionID]
	if !ok {
		return
	}
	select {
	case c.Send <- msg:
	default:
		h.logger.Warn("send queue full, message dropped", "session", sessionID, "event", msg.Event)
	}
}

func (h *Hub) Connected(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[sessionID]
	return ok
}

// Disconnect 会话结束时踢掉对应连接
func (h *Hub) Disconnect(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[sessionID]; ok {
		delete(h.clients, sessionID)
		close(c.Send)
	}
}

func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.quit) })
}

// 下面两个给 Client 用，Hub 停止后不再阻塞
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

func (h *Hub) deliver(msg IncomingMessage) bool {
	select {
	case h.incoming <- msg:
		return true
	case <-h.quit:
		return false
	}
}
