package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const limitEventsTtl = 30 * 24 * time.Hour

type LimitEvents struct {
	cli redis.UniversalClient
}

func NewLimitEvents(cli redis.UniversalClient) LimitEvents {
	return LimitEvents{
		cli: cli,
	}
}

// Increment counts a rate-limit hit per rule type per day
func (r LimitEvents) Increment(ctx context.Context, rateLimitType string, today time.Time) (int64, error) {
	key := r.key(rateLimitType, today)
	value, err := r.cli.Incr(ctx, key).Result()
	if err != nil {
		return 0, errors.WithMessage(err, "incr")
	}

	if value == 1 {
		err := r.cli.ExpireNX(ctx, key, limitEventsTtl).Err()
		if err != nil {
			return 0, errors.WithMessage(err, "expire nx")
		}
	}

	return value, nil
}

func (r LimitEvents) key(rateLimitType string, today time.Time) string {
	y, m, d := today.Date()
	return fmt.Sprintf("rate_limit_hit:%s:%d-%d-%d", rateLimitType, y, m, d)
}
