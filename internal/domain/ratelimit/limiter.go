// Package ratelimit enforces the multi-dimensional sliding-window limits on
// verification-code issuance. The limiter degrades open: when the counter
// store is unreachable the request is allowed and a warning is logged,
// availability being preferred over strictness for SMS.
package ratelimit

import (
	"context"
	"time"

	"github.com/checkin-lab/backend/config"
	"github.com/checkin-lab/backend/internal/common"
	"github.com/checkin-lab/backend/pkg/errorx"
	"github.com/checkin-lab/backend/pkg/xcontext"
)

// CounterStore is a counter with TTL. If the key does not exist it is set to 1
// with ttl=window; otherwise it is incremented and the remaining ttl returned.
type CounterStore interface {
	IncrWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

const (
	DimensionPhoneHour    = "phone_hour"
	DimensionPhoneDay     = "phone_day"
	DimensionIPHour       = "ip_hour"
	DimensionGlobalMinute = "global_minute"
)

type Limiter struct {
	store CounterStore
}

func NewLimiter(store CounterStore) *Limiter {
	return &Limiter{store: store}
}

type dimension struct {
	name string
	key  string
	cfg  config.LimitConfigs
}

// Check increments every dimension in order and denies on the first one whose
// post-increment count exceeds its limit. Earlier dimensions stay incremented;
// over-counting the rejected request is accepted for simplicity.
func (l *Limiter) Check(ctx context.Context, phoneHash, ip string) error {
	limits := xcontext.Configs(ctx).SmsLimits
	dimensions := []dimension{
		{DimensionPhoneHour, phoneHash, limits.PhoneHour},
		{DimensionPhoneDay, phoneHash, limits.PhoneDay},
		{DimensionIPHour, ip, limits.IPHour},
		{DimensionGlobalMinute, "all", limits.GlobalMinute},
	}

	for _, dim := range dimensions {
		key := common.RedisKeyRateLimit(dim.name, dim.key)
		count, ttl, err := l.store.IncrWithTTL(ctx, key, dim.cfg.Window)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Rate limit store failed, allowing request: %v", err)
			return nil
		}

		if count > int64(dim.cfg.Limit) {
			resetAt := xcontext.Clock(ctx).Now().Add(ttl)
			return errorx.NewRateLimit(dim.name, dim.cfg.Limit, ttl, resetAt)
		}
	}

	return nil
}
