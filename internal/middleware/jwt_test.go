package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"BlackjackTrainer/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func router(secret []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JwtAuthMiddleware(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("session"))
	})
	return r
}

func TestJwtAuthMiddleware(t *testing.T) {
	secret := []byte("s3cret")
	r := router(secret)
	tok, err := auth.IssueToken(secret, "abc", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		query  string
		code   int
		body   string
	}{
		{name: "bearer", header: "Bearer " + tok, code: http.StatusOK, body: "abc"},
		{name: "lowercase scheme", header: "bearer " + tok, code: http.StatusOK, body: "abc"},
		{name: "query", query: "?token=" + tok, code: http.StatusOK, body: "abc"},
		{name: "missing", code: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer xyz", code: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + tok, code: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.code, w.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}
