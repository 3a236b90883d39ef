package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"captionmux/internal/logging"
)

// authMiddleware requires "Authorization: Bearer <token>" when token is set.
// Browsers cannot set headers on a websocket upgrade, so a token query
// parameter is accepted too.
func authMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		presented := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if presented == c.GetHeader("Authorization") {
			presented = c.Query("token")
		}
		if presented != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.logger.Debug("api request",
			logging.String(logging.FieldEventType, "api_request"),
			logging.String("method", c.Request.Method),
			logging.String("path", c.FullPath()),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(started)),
		)
	}
}
