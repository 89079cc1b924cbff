// Package redisdb keeps session tokens in Redis, shared by every web app instance.
package redisdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/gradebook/core"
)

const keyPrefix = "gradebook:token:"

type tokenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ core.TokenStore = (*tokenStore)(nil)

// Open connects to the Redis server at url (redis://host:port/db).
// Tokens expire after ttl of inactivity; zero keeps them until logout.
func Open(ctx context.Context, url string, ttl time.Duration) (core.TokenStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis url")
	}
	rdb := redis.NewClient(opts)
	if err = rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return NewTokenStore(rdb, ttl), nil
}

func NewTokenStore(rdb *redis.Client, ttl time.Duration) core.TokenStore {
	return &tokenStore{rdb: rdb, ttl: ttl}
}

func (s *tokenStore) Load(ctx context.Context, key string) (string, error) {
	token, err := s.rdb.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return "", core.ErrTokenNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "getting token")
	}
	if s.ttl > 0 {
		// best effort sliding expiry
		_ = s.rdb.Expire(ctx, keyPrefix+key, s.ttl).Err()
	}
	return token, nil
}

func (s *tokenStore) Save(ctx context.Context, key, token string) error {
	return errors.Wrap(s.rdb.Set(ctx, keyPrefix+key, token, s.ttl).Err(), "setting token")
}

func (s *tokenStore) Delete(ctx context.Context, key string) error {
	return errors.Wrap(s.rdb.Del(ctx, keyPrefix+key).Err(), "deleting token")
}

func (s *tokenStore) Close() error {
	return s.rdb.Close()
}
