package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/PtahSamora/titcha-studyroom/internal/repository"
)

// RateLimit returns a gin middleware limiting requests per client IP. This is
// coarse transport-level protection; the per-user ask-tutor budget lives in
// the service layer.
func RateLimit(stateRepo repository.StateRepository, maxRequests int, window time.Duration) gin.HandlerFunc {
	if stateRepo == nil {
		panic("StateRepository cannot be nil for RateLimit middleware")
	}
	if maxRequests <= 0 {
		panic("maxRequests must be positive for RateLimit middleware")
	}
	if window <= 0 {
		panic("window duration must be positive for RateLimit middleware")
	}

	return func(c *gin.Context) {
		key := "ratelimit:" + c.ClientIP()

		allowed, err := stateRepo.CheckRateLimit(c.Request.Context(), key, maxRequests, window)
		if err != nil {
			// Fail open: a redis hiccup should not take the API down.
			logrus.WithError(err).Error("RateLimit: counter check failed")
			c.Next()
			return
		}
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "code": "RATE_LIMIT", "message": "Too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
