// Package store holds the client state of one session and the operations that change it.
//
// State only changes through Dispatch. Operations (Login, FetchAssignments...) dispatch a
// pending action, perform exactly one backend call, then dispatch the fulfilled or rejected
// action of the same request type. Nothing is retried.
package store

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/assignment"
)

// Backend is the REST API the store talks to.
type Backend interface {
	Login(ctx context.Context, username, password string) (string, error)
	ListAssignments(ctx context.Context, token string) ([]assignment.Assignment, error)
	GetAssignment(ctx context.Context, token string, id assignment.ID) (assignment.Assignment, error)
	GetSubmissionStatus(ctx context.Context, token string, assignmentID assignment.ID) (assignment.SubmissionStatus, error)
	ListSubmissions(ctx context.Context, token string, assignmentID assignment.ID) ([]assignment.Submission, error)
	Submit(ctx context.Context, token string, sub assignment.NewSubmission) error
	Grade(ctx context.Context, token string, in assignment.GradeInput) error
}

// Listener is called after every dispatched action with the resulting state.
type Listener func(a Action, s State)

// Store is the state container of one client session. It is safe for concurrent use:
// dispatches are serialized and readers get copies.
type Store struct {
	key     string
	backend Backend
	tokens  core.TokenStore

	mu        sync.Mutex
	state     State
	seq       uint64
	listeners map[int]Listener
	nextLstn  int
}

// New builds the store of the session identified by key, restoring its persisted token.
func New(ctx context.Context, key string, backend Backend, tokens core.TokenStore) (*Store, error) {
	token, err := tokens.Load(ctx, key)
	if err != nil && errors.Cause(err) != core.ErrTokenNotFound {
		return nil, errors.Wrap(err, "loading persisted token")
	}
	return &Store{
		key:     key,
		backend: backend,
		tokens:  tokens,
		state: State{
			Auth:        newAuthState(token),
			Assignments: newAssignmentsState(),
		},
		listeners: make(map[int]Listener),
	}, nil
}

// Key identifies the session whose state the store holds.
func (s *Store) Key() string {
	return s.key
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Authenticated is a shortcut for State().Auth.Authenticated.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Auth.Authenticated
}

func (s *Store) token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Auth.Token
}

// Dispatch applies the action and notifies listeners.
// Actions of requests started before the latest logout are ignored.
func (s *Store) Dispatch(a Action) {
	s.dispatch(a)
}

func (s *Store) dispatch(a Action) bool {
	s.mu.Lock()
	if !s.state.reduce(a) {
		s.mu.Unlock()
		return false
	}
	snapshot := s.state.clone()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(a, snapshot)
	}
	return true
}

// Subscribe registers l and returns the function removing it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextLstn
	s.nextLstn++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// ErrLoggedOut is returned by Login when the session was logged out while the request was in flight.
var ErrLoggedOut = errors.New("logged out before login completed")

// nextMeta returns the pending Meta of a new request.
func (s *Store) nextMeta() Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return Meta{Phase: Pending, Seq: s.seq}
}

func settled(m Meta, err error) Meta {
	if err != nil {
		return Meta{Phase: Rejected, Seq: m.Seq, Err: core.AsAPIError(err)}
	}
	return Meta{Phase: Fulfilled, Seq: m.Seq}
}
