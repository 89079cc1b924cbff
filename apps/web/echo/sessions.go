package echoweb

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/store"
)

// Sessions keeps the store of every logged in browser session, keyed by session id.
// The store of an anonymous session lives for one request only: it is kept once its login succeeds,
// or when it is rebuilt from a token persisted for that id.
type Sessions struct {
	backend store.Backend
	tokens  core.TokenStore
	logger  core.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*session
}

type session struct {
	store    *store.Store
	lastSeen time.Time
}

func NewSessions(backend store.Backend, tokens core.TokenStore, logger core.Logger) *Sessions {
	return &Sessions{
		backend: backend,
		tokens:  tokens,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*session),
	}
}

// Get returns the store of the session id.
func (ss *Sessions) Get(ctx context.Context, id string) (*store.Store, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if e, ok := ss.entries[id]; ok {
		e.lastSeen = ss.now()
		return e.store, nil
	}
	st, err := store.New(ctx, id, ss.backend, ss.tokens)
	if err != nil {
		return nil, errors.Wrapf(err, "opening session %s", id)
	}
	st.Subscribe(func(a store.Action, _ store.State) {
		ss.logger.Debug("dispatch: "+a.Type(), "session "+id)
	})
	if st.Authenticated() {
		ss.entries[id] = &session{store: st, lastSeen: ss.now()}
	}
	return st, nil
}

// Keep registers the store of a session that just logged in.
func (ss *Sessions) Keep(st *store.Store) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if e, ok := ss.entries[st.Key()]; ok && e.store == st {
		e.lastSeen = ss.now()
		return
	}
	ss.entries[st.Key()] = &session{store: st, lastSeen: ss.now()}
}

// Drop forgets the store of the session id. Its persisted token is left alone.
func (ss *Sessions) Drop(id string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.entries, id)
}

// Evict drops the stores not used for longer than maxIdle and returns how many were dropped.
// Their tokens stay persisted: a later request of the session rebuilds its store.
func (ss *Sessions) Evict(maxIdle time.Duration) int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	var n int
	deadline := ss.now().Add(-maxIdle)
	for id, e := range ss.entries {
		if e.lastSeen.Before(deadline) {
			delete(ss.entries, id)
			n++
		}
	}
	return n
}

// evictIdle runs Evict periodically until done is closed.
func (ss *Sessions) evictIdle(done <-chan struct{}, maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	every := maxIdle
	if every > time.Minute {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if n := ss.Evict(maxIdle); n > 0 {
				ss.logger.Debug("evicted idle sessions", map[string]interface{}{"count": n})
			}
		}
	}
}

func (ss *Sessions) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.entries)
}
