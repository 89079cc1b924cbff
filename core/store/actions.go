package store

import (
	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/assignment"
)

// Op names a request type. Every Op has its own tri-state Call in the state.
type Op string

const (
	OpLogin                 Op = "auth/login"
	OpFetchAssignments      Op = "assignments/fetchAssignments"
	OpFetchAssignmentDetail Op = "assignments/fetchAssignmentDetail"
	OpFetchSubmissionStatus Op = "assignments/fetchSubmissionStatus"
	OpFetchSubmissions      Op = "assignments/fetchSubmissionsForAssignment"
	OpSubmitAssignment      Op = "assignments/submitAssignment"
	OpGradeSubmission       Op = "assignments/gradeSubmission"
)

// Phase is the lifecycle step of a request an action reports.
type Phase int

const (
	Pending Phase = iota + 1
	Fulfilled
	Rejected
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Action is a state transition request. The concrete types below are the only actions;
// reducers switch on them.
type Action interface {
	Type() string
}

// Meta is carried by every request action.
// Seq orders requests of the same Op; responses older than the latest pending one are stale.
type Meta struct {
	Phase Phase
	Seq   uint64
	Err   *core.APIError // Rejected only
}

func (m Meta) seq() uint64 { return m.Seq }

func (m Meta) typeOf(op Op) string {
	return string(op) + "/" + m.Phase.String()
}

type (
	LoginAction struct {
		Meta
		Token string // Fulfilled only
	}

	// LogoutAction resets the state. Actions of requests started before it (lower Seq) are dropped.
	LogoutAction struct {
		Seq uint64
	}

	FetchAssignmentsAction struct {
		Meta
		Items []assignment.Assignment // Fulfilled only
	}

	FetchAssignmentDetailAction struct {
		Meta
		ID     assignment.ID
		Detail assignment.Assignment // Fulfilled only
	}

	FetchSubmissionStatusAction struct {
		Meta
		AssignmentID assignment.ID
		Status       assignment.SubmissionStatus // Fulfilled only
	}

	FetchSubmissionsAction struct {
		Meta
		AssignmentID assignment.ID
		Submissions  []assignment.Submission // Fulfilled only
	}

	SubmitAssignmentAction struct {
		Meta
		AssignmentID assignment.ID
	}

	GradeSubmissionAction struct {
		Meta
		Input assignment.GradeInput
	}
)

func (a LoginAction) Type() string                 { return a.typeOf(OpLogin) }
func (a LogoutAction) Type() string                { return "auth/logout" }
func (a FetchAssignmentsAction) Type() string      { return a.typeOf(OpFetchAssignments) }
func (a FetchAssignmentDetailAction) Type() string { return a.typeOf(OpFetchAssignmentDetail) }
func (a FetchSubmissionStatusAction) Type() string { return a.typeOf(OpFetchSubmissionStatus) }
func (a FetchSubmissionsAction) Type() string      { return a.typeOf(OpFetchSubmissions) }
func (a SubmitAssignmentAction) Type() string      { return a.typeOf(OpSubmitAssignment) }
func (a GradeSubmissionAction) Type() string       { return a.typeOf(OpGradeSubmission) }

func (a LogoutAction) seq() uint64 { return a.Seq }
