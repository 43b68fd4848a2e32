package server

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/roomwatt/internal/observability/logger"
	"github.com/smallbiznis/roomwatt/internal/ratelimit"
	"go.uber.org/zap"
)

const rateLimitReasonDeviceRate = "device-rate"

// ReadingsRateLimit throttles reading submissions per device.
func (s *Server) ReadingsRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.readingLimit.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		deviceID := strings.TrimSpace(c.Param("deviceId"))
		result, err := s.readingLimit.AllowDevice(ctx, deviceID)
		if errors.Is(err, ratelimit.ErrInvalidDeviceID) {
			// The handler answers with its own validation error.
			c.Next()
			return
		}
		if err != nil {
			logger.FromContext(ctx).Warn("readings rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			logger.FromContext(ctx).Warn("readings rate limit exceeded",
				zap.String("device_id", deviceID),
				zap.String("reason", rateLimitReasonDeviceRate),
			)
			s.obsMetrics.RecordRateLimitDenied(ctx, c.FullPath(), rateLimitReasonDeviceRate)

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-Rate-Limited-Reason", rateLimitReasonDeviceRate)
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
