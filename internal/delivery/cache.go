package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/pepsfoods/checkout-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// CachedQuoter fronts a Quoter with a short-lived Redis cache so repeated
// quotes for the same route during one checkout session don't re-hit the
// quoting function.
type CachedQuoter struct {
	inner Quoter
	redis *redis.Client
	ttl   time.Duration
	log   *logger.Logger
}

func NewCachedQuoter(inner Quoter, rdb *redis.Client, log *logger.Logger) *CachedQuoter {
	return &CachedQuoter{inner: inner, redis: rdb, ttl: 10 * time.Minute, log: log}
}

func (q *CachedQuoter) Quote(ctx context.Context, origin, destination Point) (decimal.Decimal, error) {
	key := fmt.Sprintf("delivery:quote:%.5f,%.5f:%.5f,%.5f", origin.Lat, origin.Lng, destination.Lat, destination.Lng)
	if cached, err := q.redis.Get(ctx, key).Result(); err == nil {
		if fee, perr := decimal.NewFromString(cached); perr == nil {
			return fee, nil
		}
	} else if err != redis.Nil {
		q.log.Warn("quote cache read failed", "key", key, "error", err)
	}

	fee, err := q.inner.Quote(ctx, origin, destination)
	if err != nil {
		return decimal.Zero, err
	}
	if err := q.redis.Set(ctx, key, fee.String(), q.ttl).Err(); err != nil {
		q.log.Warn("quote cache write failed", "key", key, "error", err)
	}
	return fee, nil
}
