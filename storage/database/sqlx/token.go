// Package sqlxdb keeps session tokens in the Postgres `session_token` table.
package sqlxdb

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

const (
	loadQuery   = `SELECT token FROM session_token WHERE session_key = $1`
	deleteQuery = `DELETE FROM session_token WHERE session_key = $1`
	saveQuery   = `INSERT INTO session_token (session_key, token, updated_at) VALUES ($1, $2, now())
ON CONFLICT (session_key) DO UPDATE SET token = EXCLUDED.token, updated_at = EXCLUDED.updated_at`
)

type tokenStore struct {
	db *sqlx.DB
}

var _ core.TokenStore = (*tokenStore)(nil)

// NewTokenStore uses db, which must hold the `session_token` table (see database.Migrate).
func NewTokenStore(db *sqlx.DB) core.TokenStore {
	return &tokenStore{db: db}
}

func (s *tokenStore) Load(ctx context.Context, key string) (string, error) {
	var token string
	if err := s.db.GetContext(ctx, &token, loadQuery, key); err != nil {
		if err == sql.ErrNoRows {
			return "", core.ErrTokenNotFound
		}
		return "", errors.Wrap(err, "selecting token")
	}
	return token, nil
}

func (s *tokenStore) Save(ctx context.Context, key, token string) error {
	_, err := s.db.ExecContext(ctx, saveQuery, key, token)
	return errors.Wrap(err, "upserting token")
}

func (s *tokenStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, deleteQuery, key)
	return errors.Wrap(err, "deleting token")
}

func (s *tokenStore) Close() error {
	return s.db.Close()
}
