// Package boltdb keeps session tokens in a local bbolt file: the client's persistent storage.
package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/trezcool/gradebook/core"
)

var tokensBucket = []byte("Tokens")

type tokenStore struct {
	db *bbolt.DB
}

var _ core.TokenStore = (*tokenStore)(nil)

// Open opens (or creates) the bbolt file at path.
func Open(path string) (core.TokenStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "creating data dir")
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(tokensBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating tokens bucket")
	}
	return &tokenStore{db: db}, nil
}

func (s *tokenStore) Load(_ context.Context, key string) (string, error) {
	var token string
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(tokensBucket).Get([]byte(key))
		if v == nil {
			return core.ErrTokenNotFound
		}
		token = string(v) // v is only valid during the transaction
		return nil
	})
	return token, err
}

func (s *tokenStore) Save(_ context.Context, key, token string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(tokensBucket).Put([]byte(key), []byte(token))
	})
	return errors.Wrap(err, "saving token")
}

func (s *tokenStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(tokensBucket).Delete([]byte(key))
	})
	return errors.Wrap(err, "deleting token")
}

func (s *tokenStore) Close() error {
	return s.db.Close()
}
