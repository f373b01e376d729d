package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"veribuy/utils"
)

const requestIDHeader = "X-Request-Id"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		l := logger.With("request_id", c.GetString("request_id"))
		switch {
		case status >= 500:
			l.Error("%s %s -> %d (%v) %s", c.Request.Method, c.Request.URL.Path, status, time.Since(start), c.Errors.String())
		case status >= 400:
			l.Warn("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		default:
			l.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		}
	}
}
