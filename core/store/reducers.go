package store

import (
	"github.com/trezcool/gradebook/core/assignment"
)

// reduce applies a to s. It is only called with the store lock held.
// It reports false when a belongs to a request started before the latest logout;
// such actions are dropped whatever their phase.
func (s *State) reduce(a Action) bool {
	if sa, ok := a.(interface{ seq() uint64 }); ok && s.resetSeq > 0 && sa.seq() <= s.resetSeq {
		return false
	}

	switch act := a.(type) {
	case LoginAction:
		s.Auth.reduceLogin(act)
	case LogoutAction:
		s.Auth = newAuthState("")
		s.Assignments = newAssignmentsState()
		s.resetSeq = act.Seq
	default:
		s.Assignments.reduce(a)
	}
	return true
}

func (s *AuthState) reduceLogin(a LoginAction) {
	switch a.Phase {
	case Pending:
		s.Loading = true
		s.Error = nil
	case Fulfilled:
		s.Loading = false
		s.Token = a.Token
		s.Authenticated = true
	case Rejected:
		s.Loading = false
		s.Error = a.Err
	}
}

func (s *AssignmentsState) reduce(a Action) {
	switch act := a.(type) {
	case FetchAssignmentsAction:
		if !s.begin(OpFetchAssignments, act.Meta, true) {
			return
		}
		if act.Phase == Fulfilled {
			s.Items = append([]assignment.Assignment{}, act.Items...)
		}

	case FetchAssignmentDetailAction:
		if act.Phase == Pending {
			s.Detail = nil
		}
		if !s.begin(OpFetchAssignmentDetail, act.Meta, true) {
			return
		}
		if act.Phase == Fulfilled {
			d := act.Detail
			s.Detail = &d
		}

	case FetchSubmissionStatusAction:
		if act.Phase == Pending {
			s.Status = nil
		}
		if !s.begin(OpFetchSubmissionStatus, act.Meta, true) {
			return
		}
		if act.Phase == Fulfilled {
			st := act.Status
			s.Status = &st
		}

	case FetchSubmissionsAction:
		if !s.begin(OpFetchSubmissions, act.Meta, true) {
			return
		}
		if act.Phase == Fulfilled {
			s.SubmissionsFor = act.AssignmentID
			s.Submissions = make([]SubmissionEntry, 0, len(act.Submissions))
			for _, sub := range act.Submissions {
				s.Submissions = append(s.Submissions, SubmissionEntry{Submission: sub})
			}
		}

	case SubmitAssignmentAction:
		// no cached data changes: the caller navigates away on success
		s.begin(OpSubmitAssignment, act.Meta, false)

	case GradeSubmissionAction:
		s.reduceGrade(act)
	}
}

// begin records the request phase in the Call of op and in the aggregate Loading/Error.
// It reports false for a stale response (older than the latest pending request of op)
// when dropStale is set; nothing is recorded then.
func (s *AssignmentsState) begin(op Op, m Meta, dropStale bool) bool {
	call := s.Calls[op]
	if m.Phase == Pending {
		if m.Seq >= call.seq {
			call.seq = m.Seq
		}
	} else if dropStale && m.Seq < call.seq {
		return false
	}
	call.Status, call.Err = statusOf(m), m.Err
	s.Calls[op] = call

	switch m.Phase {
	case Pending:
		s.Loading = true
		s.Error = nil
	case Fulfilled:
		s.Loading = false
	case Rejected:
		s.Loading = false
		s.Error = m.Err
	}
	return true
}

// reduceGrade only touches the entry being graded (and the grading Call);
// the aggregate Loading/Error and the other entries are left alone.
func (s *AssignmentsState) reduceGrade(a GradeSubmissionAction) {
	call := Call{Status: statusOf(a.Meta), Err: a.Err, seq: a.Seq}
	s.Calls[OpGradeSubmission] = call

	for i := range s.Submissions {
		e := &s.Submissions[i]
		if e.ID != a.Input.SubmissionID {
			continue
		}
		e.Grading = call
		if a.Phase == Fulfilled {
			e.Feedback = a.Input.Feedback
			e.Grade = a.Input.Grade
		}
	}
}

func statusOf(m Meta) Status {
	switch m.Phase {
	case Pending:
		return StatusPending
	case Fulfilled:
		return StatusFulfilled
	case Rejected:
		return StatusRejected
	}
	return StatusIdle
}
