package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/studiobooks/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/studiobooks/internal/observability/metrics"
	"github.com/smallbiznis/studiobooks/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	rateLimitReasonTokenRate = "token-rate"
	rateLimitReasonNoKey     = "missing-key"
)

// publicRateLimit draws one token per request from the scope's bucket, keyed by
// org, hashed token and client IP. Limiter errors fail open.
func (s *Server) publicRateLimit(scope ratelimit.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.publicLimiter == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)
		orgID, token := publicInvoiceKey(c)
		key := publicInvoiceRateKey(orgID, token, c.ClientIP())
		if key == "" {
			denyPublicRateLimit(c, endpoint, rateLimitReasonNoKey, nil, s.obsMetrics)
			return
		}

		res, err := s.publicLimiter.Allow(ctx, scope, key)
		if err != nil {
			logger.FromContext(ctx).Warn("public rate limit check failed",
				zap.String("scope", string(scope)),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if res != nil && !res.Allowed {
			denyPublicRateLimit(c, endpoint, rateLimitReasonTokenRate, res, s.obsMetrics)
			return
		}
		if res != nil && res.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		}
		c.Next()
	}
}

func denyPublicRateLimit(c *gin.Context, endpoint, reason string, res *ratelimit.RateLimitResult, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("public rate limit exceeded",
		zap.String("reason", reason),
		zap.String("endpoint", endpoint),
	)
	recordRateLimitDenied(ctx, endpoint, reason, metrics)

	retryAfter := 1
	if res != nil && res.RetryAfter.Seconds() > 1 {
		retryAfter = int(res.RetryAfter.Seconds() + 0.5)
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrRateLimited)
}

func recordRateLimitDenied(ctx context.Context, endpoint, reason string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitDenied(ctx, endpoint, reason)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
