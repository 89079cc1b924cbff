package store

import (
	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/assignment"
)

// Status is the tri-state (plus idle) of one request type.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusFulfilled
	StatusRejected
)

func (s Status) String() string {
	return [...]string{"idle", "pending", "fulfilled", "rejected"}[s]
}

// Call is the observable state of the latest request of one type.
type Call struct {
	Status Status
	Err    *core.APIError
	seq    uint64
}

func (c Call) Loading() bool {
	return c.Status == StatusPending
}

type (
	State struct {
		Auth        AuthState
		Assignments AssignmentsState

		// resetSeq is the Seq of the latest logout.
		resetSeq uint64
	}

	// AuthState is the client Session.
	AuthState struct {
		Token         string
		Authenticated bool
		Loading       bool
		Error         *core.APIError
	}

	AssignmentsState struct {
		Items       []assignment.Assignment
		Detail      *assignment.Assignment
		Status      *assignment.SubmissionStatus
		Submissions []SubmissionEntry

		// SubmissionsFor is the assignment the cached Submissions belong to.
		SubmissionsFor assignment.ID

		// Loading and Error follow the latest request of any type except grading.
		Loading bool
		Error   *core.APIError

		Calls map[Op]Call
	}

	// SubmissionEntry is a cached submission with the state of its own grading request.
	SubmissionEntry struct {
		assignment.Submission
		Grading Call
	}
)

// Call returns the state of the latest request of type op.
func (s AssignmentsState) Call(op Op) Call {
	return s.Calls[op]
}

// Submission returns the cached entry with the given id.
func (s AssignmentsState) Submission(id assignment.ID) (SubmissionEntry, bool) {
	for _, e := range s.Submissions {
		if e.ID == id {
			return e, true
		}
	}
	return SubmissionEntry{}, false
}

func newAuthState(token string) AuthState {
	return AuthState{Token: token, Authenticated: token != ""}
}

func newAssignmentsState() AssignmentsState {
	return AssignmentsState{
		Items: []assignment.Assignment{},
		Calls: make(map[Op]Call),
	}
}

// clone returns a deep copy that shares nothing mutable with s.
func (s State) clone() State {
	a := s.Assignments
	out := State{Auth: s.Auth, Assignments: a, resetSeq: s.resetSeq}
	out.Assignments.Items = append([]assignment.Assignment{}, a.Items...)
	if a.Detail != nil {
		d := *a.Detail
		out.Assignments.Detail = &d
	}
	if a.Status != nil {
		st := *a.Status
		out.Assignments.Status = &st
	}
	if a.Submissions != nil {
		out.Assignments.Submissions = append([]SubmissionEntry{}, a.Submissions...)
	}
	out.Assignments.Calls = make(map[Op]Call, len(a.Calls))
	for op, c := range a.Calls {
		out.Assignments.Calls[op] = c
	}
	return out
}
