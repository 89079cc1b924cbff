// Package storage picks the session token store configured for the app.
package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/storage/database"
	boltdb "github.com/trezcool/gradebook/storage/database/bolt"
	inmemdb "github.com/trezcool/gradebook/storage/database/inmem"
	redisdb "github.com/trezcool/gradebook/storage/database/redis"
	sqlxdb "github.com/trezcool/gradebook/storage/database/sqlx"
)

// NewTokenStore opens the token store selected by `session.driver`.
func NewTokenStore(ctx context.Context, conf *core.Config) (core.TokenStore, error) {
	switch conf.Session.Driver {
	case core.SessionDriverBolt, "":
		return boltdb.Open(conf.Session.BoltPath)
	case core.SessionDriverPostgres:
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		return sqlxdb.NewTokenStore(db), nil
	case core.SessionDriverRedis:
		return redisdb.Open(ctx, conf.Session.RedisURL, conf.Session.CookieMaxAge)
	case core.SessionDriverMemory:
		return inmemdb.NewTokenStore(), nil
	}
	return nil, errors.Errorf("unknown session driver %q", conf.Session.Driver)
}
