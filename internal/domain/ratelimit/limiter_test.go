package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/checkin-lab/backend/pkg/clock"
	"github.com/checkin-lab/backend/pkg/errorx"
	"github.com/checkin-lab/backend/pkg/logger"
	"github.com/checkin-lab/backend/pkg/testutil"
	"github.com/checkin-lab/backend/pkg/xcontext"

	"github.com/stretchr/testify/require"
)

func newLimiterContext() context.Context {
	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, testutil.MockConfigs())
	ctx = xcontext.WithLogger(ctx, logger.NewSilence())
	ctx = xcontext.WithClock(ctx, clock.NewMock(testutil.MockTime))
	return ctx
}

func TestLimiter_Check_phoneHour(t *testing.T) {
	ctx := newLimiterContext()
	limiter := NewLimiter(NewMemoryStore())

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Check(ctx, "phone-a", "ip-a"))
	}

	err := limiter.Check(ctx, "phone-a", "ip-a")
	var rateErr errorx.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	require.Equal(t, DimensionPhoneHour, rateErr.Dimension)
	require.Equal(t, 3, rateErr.Limit)
	require.True(t, rateErr.RetryAfter > 0 && rateErr.RetryAfter <= time.Hour)
	require.Equal(t, testutil.MockTime.Add(rateErr.RetryAfter), rateErr.ResetAt)

	// A different phone from the same IP still passes.
	require.NoError(t, limiter.Check(ctx, "phone-b", "ip-a"))
}

func TestLimiter_Check_ipHour(t *testing.T) {
	ctx := newLimiterContext()
	limiter := NewLimiter(NewMemoryStore())

	// Ten distinct phones keep the per-phone counters low; the IP counter
	// trips on the eleventh request.
	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Check(ctx, fmt.Sprintf("phone-%d", i), "ip-a"))
	}

	err := limiter.Check(ctx, "phone-10", "ip-a")
	var rateErr errorx.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	require.Equal(t, DimensionIPHour, rateErr.Dimension)
	require.Equal(t, 10, rateErr.Limit)

	require.NoError(t, limiter.Check(ctx, "phone-10", "ip-b"))
}

func TestLimiter_Check_windowReset(t *testing.T) {
	ctx := newLimiterContext()
	limiter := NewLimiter(NewMemoryStore())

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Check(ctx, "phone-a", "ip-a"))
	}
	require.Error(t, limiter.Check(ctx, "phone-a", "ip-a"))

	xcontext.Clock(ctx).(*clock.Mock).Advance(time.Hour)
	require.NoError(t, limiter.Check(ctx, "phone-a", "ip-a"))
}

func TestLimiter_Check_phoneDay(t *testing.T) {
	ctx := newLimiterContext()
	limiter := NewLimiter(NewMemoryStore())

	// Drain the daily budget an hour at a time so the hourly window never
	// trips: 3+3+3+1 across four hours reaches the 10/day ceiling.
	mock := xcontext.Clock(ctx).(*clock.Mock)
	for hour := 0; hour < 3; hour++ {
		for i := 0; i < 3; i++ {
			require.NoError(t, limiter.Check(ctx, "phone-a", "ip-a"))
		}
		mock.Advance(time.Hour)
	}
	require.NoError(t, limiter.Check(ctx, "phone-a", "ip-a"))

	err := limiter.Check(ctx, "phone-a", "ip-a")
	var rateErr errorx.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	require.Equal(t, DimensionPhoneDay, rateErr.Dimension)
	require.Equal(t, 10, rateErr.Limit)
}

type failingStore struct{}

func (failingStore) IncrWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("store is down")
}

func TestLimiter_Check_failOpen(t *testing.T) {
	ctx := newLimiterContext()
	limiter := NewLimiter(failingStore{})

	// An unreachable counter store must not block code issuance.
	for i := 0; i < 20; i++ {
		require.NoError(t, limiter.Check(ctx, "phone-a", "ip-a"))
	}
}

func TestMemoryStore_IncrWithTTL(t *testing.T) {
	ctx := newLimiterContext()
	store := NewMemoryStore()

	count, ttl, err := store.IncrWithTTL(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	require.Equal(t, time.Minute, ttl)

	mock := xcontext.Clock(ctx).(*clock.Mock)
	mock.Advance(20 * time.Second)

	count, ttl, err = store.IncrWithTTL(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
	require.Equal(t, 40*time.Second, ttl)

	// Past the expiry the counter restarts with a fresh window.
	mock.Advance(time.Minute)
	count, ttl, err = store.IncrWithTTL(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	require.Equal(t, time.Minute, ttl)
}
