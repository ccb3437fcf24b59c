package middleware

import (
	"net/http"
	"strings"

	"BlackjackTrainer/internal/auth"

	"github.com/gin-gonic/gin"
)

// JwtAuthMiddleware 从 Authorization: Bearer 或 ?token= 取 JWT，
// 校验后把 session id 放进 c.Set("session")。
// 浏览器的 WebSocket 握手带不了 header，所以允许 query。
func JwtAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c.GetHeader("Authorization"))
		if raw == "" {
			raw = c.Query("token")
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		session, err := auth.ParseToken(secret, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("session", session)
		c.Next()
	}
}

func bearer(h string) string {
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
