package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/assignment"
	backendsvc "github.com/trezcool/gradebook/services/backend"
	inmemdb "github.com/trezcool/gradebook/storage/database/inmem"
	"github.com/trezcool/gradebook/tests"
)

// fakeBackend lets tests script every backend call. Nil funcs answer with zero values.
type fakeBackend struct {
	login       func(ctx context.Context, username, password string) (string, error)
	list        func(ctx context.Context) ([]assignment.Assignment, error)
	detail      func(ctx context.Context, id assignment.ID) (assignment.Assignment, error)
	status      func(ctx context.Context, id assignment.ID) (assignment.SubmissionStatus, error)
	submissions func(ctx context.Context, id assignment.ID) ([]assignment.Submission, error)
	submit      func(ctx context.Context, sub assignment.NewSubmission) error
	grade       func(ctx context.Context, in assignment.GradeInput) error
}

var _ Backend = (*fakeBackend)(nil)

func (f *fakeBackend) Login(ctx context.Context, username, password string) (string, error) {
	if f.login == nil {
		return "", nil
	}
	return f.login(ctx, username, password)
}

func (f *fakeBackend) ListAssignments(ctx context.Context, _ string) ([]assignment.Assignment, error) {
	if f.list == nil {
		return nil, nil
	}
	return f.list(ctx)
}

func (f *fakeBackend) GetAssignment(ctx context.Context, _ string, id assignment.ID) (assignment.Assignment, error) {
	if f.detail == nil {
		return assignment.Assignment{}, nil
	}
	return f.detail(ctx, id)
}

func (f *fakeBackend) GetSubmissionStatus(ctx context.Context, _ string, id assignment.ID) (assignment.SubmissionStatus, error) {
	if f.status == nil {
		return assignment.SubmissionStatus{}, nil
	}
	return f.status(ctx, id)
}

func (f *fakeBackend) ListSubmissions(ctx context.Context, _ string, id assignment.ID) ([]assignment.Submission, error) {
	if f.submissions == nil {
		return nil, nil
	}
	return f.submissions(ctx, id)
}

func (f *fakeBackend) Submit(ctx context.Context, _ string, sub assignment.NewSubmission) error {
	if f.submit == nil {
		return nil
	}
	return f.submit(ctx, sub)
}

func (f *fakeBackend) Grade(ctx context.Context, _ string, in assignment.GradeInput) error {
	if f.grade == nil {
		return nil
	}
	return f.grade(ctx, in)
}

func newStore(t *testing.T, backend Backend, tokens core.TokenStore) *Store {
	if tokens == nil {
		tokens = inmemdb.NewTokenStore()
	}
	s, err := New(context.Background(), "sid-1", backend, tokens)
	require.NoError(t, err)
	return s
}

// record collects the state after every dispatched action.
func record(s *Store) *[]State {
	var states []State
	s.Subscribe(func(_ Action, st State) { states = append(states, st) })
	return &states
}

type brokenTokenStore struct {
	core.TokenStore
}

func (brokenTokenStore) Load(context.Context, string) (string, error) {
	return "", errors.New("disk on fire")
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	tokens := inmemdb.NewTokenStore()
	require.NoError(t, tokens.Save(ctx, "sid-1", "tok-1"))

	s, err := New(ctx, "sid-1", &fakeBackend{}, tokens)
	require.NoError(t, err)
	assert.Equal(t, AuthState{Token: "tok-1", Authenticated: true}, s.State().Auth, "restored from persisted token")

	s, err = New(ctx, "sid-2", &fakeBackend{}, tokens)
	require.NoError(t, err)
	assert.Equal(t, AuthState{}, s.State().Auth)
	assert.Equal(t, []assignment.Assignment{}, s.State().Assignments.Items)

	_, err = New(ctx, "sid-1", &fakeBackend{}, brokenTokenStore{tokens})
	assert.EqualError(t, err, "loading persisted token: disk on fire")
}

func TestStore_Login(t *testing.T) {
	b := testutil.NewBackend(t)
	b.AddUser("hero", "pwd", "tok-hero")
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		tokens := inmemdb.NewTokenStore()
		s := newStore(t, backendsvc.New(b.URL), tokens)
		states := record(s)

		require.NoError(t, s.Login(ctx, "hero", "pwd"))

		require.Len(t, *states, 2)
		assert.Equal(t, AuthState{Loading: true}, (*states)[0].Auth)
		assert.Equal(t, AuthState{Token: "tok-hero", Authenticated: true}, s.State().Auth)

		persisted, err := tokens.Load(ctx, "sid-1")
		require.NoError(t, err)
		assert.Equal(t, "tok-hero", persisted)
	})

	t.Run("failure", func(t *testing.T) {
		tokens := inmemdb.NewTokenStore()
		s := newStore(t, backendsvc.New(b.URL), tokens)

		err := s.Login(ctx, "hero", "lol")
		require.Error(t, err)

		auth := s.State().Auth
		assert.False(t, auth.Authenticated)
		assert.False(t, auth.Loading)
		assert.Empty(t, auth.Token)
		require.NotNil(t, auth.Error)
		assert.Equal(t, http.StatusUnauthorized, auth.Error.Status)
		assert.JSONEq(t, `{"message":"invalid credentials"}`, string(auth.Error.Payload))

		_, err = tokens.Load(ctx, "sid-1")
		assert.Equal(t, core.ErrTokenNotFound, err, "nothing persisted")
	})

	t.Run("a new attempt clears the previous error", func(t *testing.T) {
		s := newStore(t, backendsvc.New(b.URL), nil)
		states := record(s)

		require.Error(t, s.Login(ctx, "hero", "lol"))
		require.NoError(t, s.Login(ctx, "hero", "pwd"))

		require.Len(t, *states, 4)
		assert.Nil(t, (*states)[2].Auth.Error)
		assert.True(t, (*states)[2].Auth.Loading)
		assert.Nil(t, s.State().Auth.Error)
	})
}

func TestStore_Logout(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		persisted     string
		authenticated bool
	}{
		{name: "authenticated", persisted: "tok-1", authenticated: true},
		{name: "not authenticated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := inmemdb.NewTokenStore()
			if tt.persisted != "" {
				require.NoError(t, tokens.Save(ctx, "sid-1", tt.persisted))
			}
			s := newStore(t, &fakeBackend{
				list: func(context.Context) ([]assignment.Assignment, error) {
					return []assignment.Assignment{{ID: "1", Title: "HW1"}}, nil
				},
			}, tokens)
			require.Equal(t, tt.authenticated, s.Authenticated())
			_, err := s.FetchAssignments(ctx)
			require.NoError(t, err)

			require.NoError(t, s.Logout(ctx))

			st := s.State()
			assert.Equal(t, AuthState{}, st.Auth)
			assert.Empty(t, st.Assignments.Items, "cached data is dropped")
			_, err = tokens.Load(ctx, "sid-1")
			assert.Equal(t, core.ErrTokenNotFound, err)
		})
	}
}

func TestStore_Logout_inFlight(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch", func(t *testing.T) {
		tokens := inmemdb.NewTokenStore()
		require.NoError(t, tokens.Save(ctx, "sid-1", "tok-1"))
		started, release := make(chan struct{}), make(chan struct{})
		s := newStore(t, &fakeBackend{
			list: func(context.Context) ([]assignment.Assignment, error) {
				close(started)
				<-release
				return []assignment.Assignment{{ID: "1", Title: "previous user's HW"}}, nil
			},
		}, tokens)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = s.FetchAssignments(ctx)
		}()
		<-started
		require.NoError(t, s.Logout(ctx))
		close(release)
		<-done

		st := s.State()
		assert.False(t, st.Auth.Authenticated)
		assert.Empty(t, st.Assignments.Items, "the response of a request started before logout is dropped")
		assert.False(t, st.Assignments.Loading)
		assert.Equal(t, StatusIdle, st.Assignments.Call(OpFetchAssignments).Status)
	})

	t.Run("login", func(t *testing.T) {
		tokens := inmemdb.NewTokenStore()
		started, release := make(chan struct{}), make(chan struct{})
		s := newStore(t, &fakeBackend{
			login: func(context.Context, string, string) (string, error) {
				close(started)
				<-release
				return "tok-late", nil
			},
		}, tokens)

		errc := make(chan error, 1)
		go func() { errc <- s.Login(ctx, "hero", "pwd") }()
		<-started
		require.NoError(t, s.Logout(ctx))
		close(release)

		assert.Equal(t, ErrLoggedOut, <-errc)
		assert.Equal(t, AuthState{}, s.State().Auth)
		_, err := tokens.Load(ctx, "sid-1")
		assert.Equal(t, core.ErrTokenNotFound, err, "the late token is not left persisted")

		t.Run("later requests are applied", func(t *testing.T) {
			s.backend = &fakeBackend{login: func(context.Context, string, string) (string, error) { return "tok-2", nil }}
			require.NoError(t, s.Login(ctx, "hero", "pwd"))
			assert.Equal(t, AuthState{Token: "tok-2", Authenticated: true}, s.State().Auth)
		})
	})
}

func TestStore_FetchAssignments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"title":"HW1","dueDate":"2024-01-01"}]`))
	}))
	defer srv.Close()

	s := newStore(t, backendsvc.New(srv.URL), nil)
	states := record(s)

	items, err := s.FetchAssignments(context.Background())
	require.NoError(t, err)

	want := []assignment.Assignment{{ID: "1", Title: "HW1", DueDate: "2024-01-01"}}
	assert.Equal(t, want, items)

	require.Len(t, *states, 2)
	assert.True(t, (*states)[0].Assignments.Loading)
	assert.Equal(t, StatusPending, (*states)[0].Assignments.Call(OpFetchAssignments).Status)

	st := s.State().Assignments
	assert.Equal(t, want, st.Items)
	assert.False(t, st.Loading)
	assert.Nil(t, st.Error)
	assert.Equal(t, Call{Status: StatusFulfilled, seq: 1}, st.Call(OpFetchAssignments))
}

func TestStore_FetchAssignments_rejected(t *testing.T) {
	b := testutil.NewBackend(t)
	b.AddUser("hero", "pwd", "tok-hero")
	b.SetAssignments(assignment.Assignment{ID: "1", Title: "HW1"})
	ctx := context.Background()

	s := newStore(t, backendsvc.New(b.URL), nil)
	require.NoError(t, s.Login(ctx, "hero", "pwd"))
	_, err := s.FetchAssignments(ctx)
	require.NoError(t, err)

	b.Fail("GET /assignments", testutil.Failure{Status: http.StatusInternalServerError, Body: `{"error":"db down","code":42}`})
	_, err = s.FetchAssignments(ctx)
	require.Error(t, err)

	st := s.State().Assignments
	assert.False(t, st.Loading)
	require.NotNil(t, st.Error)
	assert.JSONEq(t, `{"error":"db down","code":42}`, string(st.Error.Payload), "payload kept verbatim")
	assert.Equal(t, StatusRejected, st.Call(OpFetchAssignments).Status)
	assert.Equal(t, []assignment.Assignment{{ID: "1", Title: "HW1"}}, st.Items, "previous items stay cached")
}

func TestStore_FetchAssignmentDetail(t *testing.T) {
	hw1 := assignment.Assignment{ID: "1", Title: "HW1", Description: "Algebra", DueDate: "2024-01-01"}
	hw2 := assignment.Assignment{ID: "2", Title: "HW2", DueDate: "2024-02-01"}
	s := newStore(t, &fakeBackend{
		detail: func(_ context.Context, id assignment.ID) (assignment.Assignment, error) {
			if id == "1" {
				return hw1, nil
			}
			return hw2, nil
		},
	}, nil)
	ctx := context.Background()

	_, err := s.FetchAssignmentDetail(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, s.State().Assignments.Detail)
	assert.Equal(t, hw1, *s.State().Assignments.Detail)

	var pendingDetail *assignment.Assignment
	var sawPending bool
	s.Subscribe(func(a Action, st State) {
		if act, ok := a.(FetchAssignmentDetailAction); ok && act.Phase == Pending {
			sawPending = true
			pendingDetail = st.Assignments.Detail
		}
	})

	_, err = s.FetchAssignmentDetail(ctx, "2")
	require.NoError(t, err)
	assert.True(t, sawPending)
	assert.Nil(t, pendingDetail, "previous detail cleared as soon as the request starts")
	assert.Equal(t, hw2, *s.State().Assignments.Detail)
}

func TestStore_FetchAssignmentDetail_staleResponse(t *testing.T) {
	release1 := make(chan struct{})
	started1 := make(chan struct{})
	s := newStore(t, &fakeBackend{
		detail: func(_ context.Context, id assignment.ID) (assignment.Assignment, error) {
			if id == "1" {
				close(started1)
				<-release1
			}
			return assignment.Assignment{ID: id, Title: "HW" + id.String()}, nil
		},
	}, nil)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.FetchAssignmentDetail(ctx, "1")
	}()
	<-started1

	_, err := s.FetchAssignmentDetail(ctx, "2")
	require.NoError(t, err)
	close(release1)
	<-done

	st := s.State().Assignments
	require.NotNil(t, st.Detail)
	assert.Equal(t, assignment.ID("2"), st.Detail.ID, "the older response does not overwrite the newer one")
	assert.False(t, st.Loading)
}

func TestStore_FetchSubmissionStatus(t *testing.T) {
	graded := assignment.SubmissionStatus{Status: "graded", SubmissionDate: "2023-12-30", Feedback: "Good", Grade: "A"}
	s := newStore(t, &fakeBackend{
		status: func(_ context.Context, id assignment.ID) (assignment.SubmissionStatus, error) {
			if id == "404" {
				return assignment.SubmissionStatus{}, core.NewAPIError(http.StatusNotFound, []byte(`{"message":"no submission"}`))
			}
			return graded, nil
		},
	}, nil)
	ctx := context.Background()

	_, err := s.FetchSubmissionStatus(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, graded, *s.State().Assignments.Status)

	_, err = s.FetchSubmissionStatus(ctx, "404")
	require.Error(t, err)
	st := s.State().Assignments
	assert.Nil(t, st.Status)
	assert.Equal(t, "no submission", st.Error.Message())
}

func TestStore_SubmitAssignment(t *testing.T) {
	var got assignment.NewSubmission
	s := newStore(t, &fakeBackend{
		submit: func(_ context.Context, sub assignment.NewSubmission) error {
			got = sub
			return nil
		},
	}, nil)
	states := record(s)
	before := s.State()

	sub := assignment.NewSubmission{AssignmentID: "1", Comment: "done", FileName: "hw1.pdf"}
	require.NoError(t, s.SubmitAssignment(context.Background(), sub))
	assert.Equal(t, sub, got)

	require.Len(t, *states, 2)
	assert.True(t, (*states)[0].Assignments.Loading)

	after := s.State()
	assert.False(t, after.Assignments.Loading)
	assert.Equal(t, before.Assignments.Items, after.Assignments.Items)
	assert.Equal(t, before.Assignments.Detail, after.Assignments.Detail)
	assert.Equal(t, StatusFulfilled, after.Assignments.Call(OpSubmitAssignment).Status)
}

func TestStore_GradeSubmission(t *testing.T) {
	subs := []assignment.Submission{
		{ID: "10", StudentName: "Hero", SubmissionDate: "2023-12-30"},
		{ID: "11", StudentName: "King", SubmissionDate: "2023-12-31"},
		{ID: "12", StudentName: "N Dog", SubmissionDate: "2024-01-01", Feedback: "Late", Grade: "C"},
	}
	var gradeErr error
	s := newStore(t, &fakeBackend{
		submissions: func(context.Context, assignment.ID) ([]assignment.Submission, error) { return subs, nil },
		grade:       func(context.Context, assignment.GradeInput) error { return gradeErr },
	}, nil)
	ctx := context.Background()

	_, err := s.FetchSubmissions(ctx, "1")
	require.NoError(t, err)
	before := s.State().Assignments
	assert.Equal(t, assignment.ID("1"), before.SubmissionsFor)

	require.NoError(t, s.GradeSubmission(ctx, assignment.GradeInput{SubmissionID: "11", Feedback: "Nice", Grade: "A"}))

	after := s.State().Assignments
	require.Len(t, after.Submissions, 3)
	assert.Equal(t, before.Submissions[0], after.Submissions[0])
	assert.Equal(t, before.Submissions[2], after.Submissions[2])

	graded := after.Submissions[1]
	assert.Equal(t, "Nice", graded.Feedback)
	assert.Equal(t, assignment.Grade("A"), graded.Grade)
	assert.Equal(t, "King", graded.StudentName)
	assert.Equal(t, StatusFulfilled, graded.Grading.Status)

	assert.Equal(t, before.Loading, after.Loading)
	assert.Equal(t, before.Error, after.Error)
	assert.Equal(t, before.Call(OpFetchSubmissions), after.Call(OpFetchSubmissions))

	t.Run("rejected", func(t *testing.T) {
		gradeErr = core.NewAPIError(http.StatusForbidden, []byte(`{"message":"permission denied"}`))
		require.Error(t, s.GradeSubmission(ctx, assignment.GradeInput{SubmissionID: "10", Feedback: "Meh", Grade: "D"}))

		st := s.State().Assignments
		e, ok := st.Submission("10")
		require.True(t, ok)
		assert.Empty(t, e.Feedback, "not patched")
		assert.Equal(t, StatusRejected, e.Grading.Status)
		assert.Equal(t, "permission denied", e.Grading.Err.Message())
		assert.Nil(t, st.Error, "aggregate error untouched")

		e, _ = st.Submission("11")
		assert.Equal(t, StatusFulfilled, e.Grading.Status, "other entries keep their own grading state")
	})

	t.Run("unknown id", func(t *testing.T) {
		gradeErr = nil
		prev := s.State().Assignments.Submissions
		require.NoError(t, s.GradeSubmission(ctx, assignment.GradeInput{SubmissionID: "99", Grade: "A"}))
		assert.Equal(t, prev, s.State().Assignments.Submissions)
	})
}

func TestStore_Snapshot(t *testing.T) {
	s := newStore(t, &fakeBackend{
		list: func(context.Context) ([]assignment.Assignment, error) {
			return []assignment.Assignment{{ID: "1", Title: "HW1"}}, nil
		},
	}, nil)
	_, err := s.FetchAssignments(context.Background())
	require.NoError(t, err)

	snap := s.State()
	snap.Assignments.Items[0].Title = "changed"
	snap.Assignments.Calls[OpFetchAssignments] = Call{}
	assert.Equal(t, "HW1", s.State().Assignments.Items[0].Title)
	assert.Equal(t, StatusFulfilled, s.State().Assignments.Call(OpFetchAssignments).Status)
}

func TestActionTypes(t *testing.T) {
	assert.Equal(t, "assignments/fetchAssignments/pending", FetchAssignmentsAction{Meta: Meta{Phase: Pending}}.Type())
	assert.Equal(t, "auth/login/rejected", LoginAction{Meta: Meta{Phase: Rejected}}.Type())
	assert.Equal(t, "auth/logout", LogoutAction{}.Type())

	b, err := json.Marshal(assignment.GradeInput{SubmissionID: "1", Feedback: "ok", Grade: "B"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"feedback":"ok","grade":"B"}`, string(b))
}
