package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/traxaero/interfaces/pkg/logger"
)

// AuditLog records operator write operations (POST/PUT/DELETE) on the
// admin API after they complete.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != "POST" && method != "PUT" && method != "DELETE" {
			c.Next()
			return
		}

		c.Next()

		logger.Info().
			Str("user", GetUsername(c)).
			Uint("user_id", GetUserID(c)).
			Str("method", method).
			Str("route", c.FullPath()).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("ip", c.ClientIP()).
			Msg("[Audit] Operator request")
	}
}
