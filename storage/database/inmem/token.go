// Package inmemdb keeps session tokens in memory. Tokens do not survive restarts;
// meant for tests and throwaway runs.
package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/gradebook/core"
)

type tokenStore struct {
	mutex sync.RWMutex
	table map[string]string
}

var _ core.TokenStore = (*tokenStore)(nil)

func NewTokenStore() core.TokenStore {
	return &tokenStore{table: make(map[string]string)}
}

func (s *tokenStore) Load(_ context.Context, key string) (string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if token, ok := s.table[key]; ok {
		return token, nil
	}
	return "", core.ErrTokenNotFound
}

func (s *tokenStore) Save(_ context.Context, key, token string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.table[key] = token
	return nil
}

func (s *tokenStore) Delete(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.table, key)
	return nil
}

func (s *tokenStore) Close() error {
	return nil
}
