package manager

import (
	"errors"
	"io"
	"net/http"
	"time"

	"BlackjackTrainer/internal/auth"
	"BlackjackTrainer/internal/game/counting"
	"BlackjackTrainer/internal/game/engine"
	"BlackjackTrainer/internal/game/strategy"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	mgr      *GameManager
	secret   []byte
	tokenTTL time.Duration
}

func NewHandler(mgr *GameManager, secret []byte, tokenTTL time.Duration) *Handler {
	return &Handler{mgr: mgr, secret: secret, tokenTTL: tokenTTL}
}

type OpenRequest struct {
	ProfileID string `json:"profileId"`
}

type OpenResponse struct {
	Token     string          `json:"token"`
	SessionID string          `json:"sessionId"`
	ProfileID string          `json:"profileId"`
	State     engine.Snapshot `json:"state"`
}

// Mount public 不需要鉴权；authed 已挂 JWT middleware
func (h *Handler) Mount(public, authed gin.IRoutes) {
	public.POST("/session", h.Open)
	public.GET("/strategy/chart", h.StrategyChart)
	public.GET("/counting/systems", h.CountingSystems)

	authed.GET("/game", h.State)
	authed.POST("/game/:command", h.Command)
	authed.DELETE("/session", h.Close)
}

// POST /session  body(可选): {profileId}
func (h *Handler) Open(c *gin.Context) {
	var req OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s := h.mgr.Open(req.ProfileID)

	token, err := auth.IssueToken(h.secret, s.ID, h.tokenTTL)
	if err != nil {
		_ = h.mgr.Close(s.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt generation failed"})
		return
	}
	state, _ := h.mgr.State(s.ID)
	c.JSON(http.StatusOK, OpenResponse{
		Token:     token,
		SessionID: s.ID,
		ProfileID: s.ProfileID,
		State:     state,
	})
}

// DELETE /session
func (h *Handler) Close(c *gin.Context) {
	if err := h.mgr.Close(c.GetString("session")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /game
func (h *Handler) State(c *gin.Context) {
	snap, err := h.mgr.State(c.GetString("session"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// POST /game/:command  body 视命令而定
func (h *Handler) Command(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd, err := ParseCommand(c.Param("command"), body)
	if err != nil {
		writeError(c, err)
		return
	}
	snap, err := h.mgr.Do(c.GetString("session"), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GET /strategy/chart
func (h *Handler) StrategyChart(c *gin.Context) {
	c.JSON(http.StatusOK, strategy.BuildChart())
}

// GET /counting/systems
func (h *Handler) CountingSystems(c *gin.Context) {
	c.JSON(http.StatusOK, counting.Systems())
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrUnknownCommand):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrBadPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
