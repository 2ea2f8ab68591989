package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/studiobooks/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLocalLimiter(t *testing.T) *PublicLimiter {
	t.Helper()
	cfg := config.Config{RateLimit: config.RateLimitConfig{
		PublicInvoiceRate:  1,
		PublicInvoiceBurst: 2,
		PublicPaymentRate:  1,
		PublicPaymentBurst: 1,
	}}
	limiter, err := NewPublicLimiter(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	return limiter
}

func TestLocalBucketDeniesAfterBurst(t *testing.T) {
	limiter := newLocalLimiter(t)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := limiter.Allow(ctx, ScopeInvoice, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := limiter.Allow(ctx, ScopeInvoice, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 2, res.Limit)
	assert.Equal(t, time.Second, res.RetryAfter)

	other, err := limiter.Allow(ctx, ScopeInvoice, "198.51.100.1")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "buckets are per key")

	now = now.Add(time.Second)
	res, err = limiter.Allow(ctx, ScopeInvoice, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "refilled after one second")
}

func TestScopesHaveSeparateBuckets(t *testing.T) {
	limiter := newLocalLimiter(t)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	res, err := limiter.Allow(ctx, ScopePayment, "ip")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, ScopePayment, "ip")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = limiter.Allow(ctx, ScopeInvoice, "ip")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestIdleLocalBucketsAreSwept(t *testing.T) {
	limiter := newLocalLimiter(t)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	_, err := limiter.Allow(context.Background(), ScopeInvoice, "a")
	require.NoError(t, err)
	require.Len(t, limiter.local, 1)

	now = now.Add(localIdleTTL + time.Minute)
	_, err = limiter.Allow(context.Background(), ScopeInvoice, "b")
	require.NoError(t, err)
	assert.Len(t, limiter.local, 1)
	assert.Contains(t, limiter.local, "public:invoice:b")
}

func TestAllowValidatesInput(t *testing.T) {
	limiter := newLocalLimiter(t)
	_, err := limiter.Allow(context.Background(), Scope("admin"), "ip")
	assert.Error(t, err)
	_, err = limiter.Allow(context.Background(), ScopeInvoice, " ")
	assert.Error(t, err)

	var nilLimiter *PublicLimiter
	res, err := nilLimiter.Allow(context.Background(), ScopeInvoice, "ip")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestNewPublicLimiterRejectsBadConfig(t *testing.T) {
	_, err := NewPublicLimiter(config.Config{}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestDisabledRedisClientIsNil(t *testing.T) {
	client, err := NewRedisClient(config.Config{})
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.Nil(t, NewLocker(client))
	assert.Nil(t, NewTokenBucket(client))
}

func TestNilLockerAcquireIsNoop(t *testing.T) {
	var locker *Locker
	release, err := locker.Acquire(context.Background(), "intent:pi_1", time.Second, time.Second)
	require.NoError(t, err)
	release()
	assert.False(t, locker.Enabled())
}
