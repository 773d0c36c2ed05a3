package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/json"
	"forum-gate-service/cache"
	"forum-gate-service/domain"
	"forum-gate-service/entity"
)

type UserCache struct {
	cache    *cache.Cache
	duration time.Duration
}

func NewUserCache(duration time.Duration) UserCache {
	return UserCache{
		duration: duration,
		cache:    cache.New(),
	}
}

func (r UserCache) Get(ctx context.Context, token string) (*entity.User, error) {
	data, ok := r.cache.Get(token)
	if !ok {
		return nil, domain.ErrAuthenticationCacheMiss
	}

	result := entity.User{}
	err := json.Unmarshal(data, &result)
	if err != nil {
		return nil, errors.WithMessage(err, "json unmarshal user")
	}

	return &result, nil
}

func (r UserCache) Set(ctx context.Context, token string, user entity.User) error {
	value, err := json.Marshal(user)
	if err != nil {
		return errors.WithMessage(err, "json marshal user")
	}

	r.cache.Set(token, value, r.duration)

	return nil
}
