package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"smartcart-backend/internal/apperr"
)

const logKey = "log"

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		entry := s.Log.WithFields(logrus.Fields{
			"http.method": c.Request.Method,
			"http.path":   c.Request.URL.Path,
		})
		c.Set(logKey, entry)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		s.Latency.Record(c.Request.Method+" "+route, elapsed)
		entry.WithFields(logrus.Fields{
			"http.status":   c.Writer.Status(),
			"http.duration": elapsed,
		}).Debug("request complete")
	}
}

func requestLog(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(logKey); ok {
		if l, ok := v.(logrus.FieldLogger); ok {
			return l
		}
	}
	return logrus.StandardLogger()
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error": msg} with the matching status. Server-side
// failures are logged; their detail stays out of the response.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := apperr.Message(err)
	if status >= http.StatusInternalServerError {
		requestLog(c).WithError(err).Error("request failed")
		msg = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
