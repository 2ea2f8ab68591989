package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/studiobooks/internal/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Scope selects which public bucket a request draws from.
type Scope string

const (
	ScopeInvoice Scope = "invoice"
	ScopePayment Scope = "payment"
)

const keyPublic = "public:%s:%s"

const localIdleTTL = 30 * time.Minute

type limits struct {
	rate  float64
	burst int
}

// PublicLimiter throttles the unauthenticated invoice endpoints. It uses the
// shared Redis bucket when configured and per-process buckets otherwise.
type PublicLimiter struct {
	bucket *TokenBucket
	log    *zap.Logger
	limits map[Scope]limits
	now    func() time.Time

	mu    sync.Mutex
	local map[string]*localBucket
}

type localBucket struct {
	limiter *rate.Limiter
	last    time.Time
}

// NewRedisClient returns nil when rate limiting is disabled.
func NewRedisClient(cfg config.Config) (*redis.Client, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	}), nil
}

func NewPublicLimiter(cfg config.Config, client *redis.Client, log *zap.Logger) (*PublicLimiter, error) {
	limitCfg := cfg.RateLimit
	if limitCfg.PublicInvoiceRate <= 0 || limitCfg.PublicInvoiceBurst <= 0 {
		return nil, errors.New("public invoice rate limit must be positive")
	}
	if limitCfg.PublicPaymentRate <= 0 || limitCfg.PublicPaymentBurst <= 0 {
		return nil, errors.New("public payment rate limit must be positive")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &PublicLimiter{
		bucket: NewTokenBucket(client),
		log:    log.Named("ratelimit.public"),
		limits: map[Scope]limits{
			ScopeInvoice: {rate: limitCfg.PublicInvoiceRate, burst: limitCfg.PublicInvoiceBurst},
			ScopePayment: {rate: limitCfg.PublicPaymentRate, burst: limitCfg.PublicPaymentBurst},
		},
		now:   time.Now,
		local: map[string]*localBucket{},
	}, nil
}

// Allow draws one token for key in scope. Redis failures fail open to the local bucket.
func (l *PublicLimiter) Allow(ctx context.Context, scope Scope, key string) (*RateLimitResult, error) {
	if l == nil {
		return &RateLimitResult{Allowed: true}, nil
	}
	lim, ok := l.limits[scope]
	if !ok {
		return nil, fmt.Errorf("unknown rate limit scope %q", scope)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("rate limiter key is empty")
	}

	bucketKey := fmt.Sprintf(keyPublic, scope, key)
	if l.bucket != nil {
		res, err := l.bucket.Allow(ctx, bucketKey, lim.rate, lim.burst)
		if err == nil {
			return res, nil
		}
		l.log.Warn("redis rate limit failed, using local bucket", zap.String("scope", string(scope)), zap.Error(err))
	}
	return l.allowLocal(bucketKey, lim), nil
}

func (l *PublicLimiter) allowLocal(key string, lim limits) *RateLimitResult {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	b, ok := l.local[key]
	if !ok {
		b = &localBucket{limiter: rate.NewLimiter(rate.Limit(lim.rate), lim.burst)}
		l.local[key] = b
	}
	b.last = now

	allowed := b.limiter.AllowN(now, 1)
	return newResult(allowed, lim.burst, b.limiter.TokensAt(now), lim.rate, now)
}

func (l *PublicLimiter) sweep(now time.Time) {
	for key, b := range l.local {
		if now.Sub(b.last) > localIdleTTL {
			delete(l.local, key)
		}
	}
}
