package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/assignment"
)

// Login authenticates against the backend. On success the token is persisted then exposed;
// on failure the backend payload is kept in Auth.Error and Authenticated is left as is.
func (s *Store) Login(ctx context.Context, username, password string) error {
	m := s.nextMeta()
	s.Dispatch(LoginAction{Meta: m})

	token, err := s.backend.Login(ctx, username, password)
	if err == nil {
		err = errors.Wrap(s.tokens.Save(ctx, s.key, token), "persisting token")
	}
	if err != nil {
		s.Dispatch(LoginAction{Meta: settled(m, err)})
		return err
	}
	if !s.dispatch(LoginAction{Meta: settled(m, nil), Token: token}) {
		// logged out meanwhile: forget the token saved above
		if err := s.tokens.Delete(ctx, s.key); err != nil {
			return errors.Wrap(err, "deleting persisted token")
		}
		return ErrLoggedOut
	}
	return nil
}

// Logout forgets the persisted token and resets the whole state, whatever it was.
// Responses of requests still in flight are ignored once they arrive.
// The state is reset even if the token could not be deleted; that error is returned.
func (s *Store) Logout(ctx context.Context) error {
	err := s.tokens.Delete(ctx, s.key)
	s.Dispatch(LogoutAction{Seq: s.nextMeta().Seq})
	return errors.Wrap(err, "deleting persisted token")
}

// FetchAssignments loads the assignment list.
func (s *Store) FetchAssignments(ctx context.Context) ([]assignment.Assignment, error) {
	m := s.nextMeta()
	s.Dispatch(FetchAssignmentsAction{Meta: m})

	items, err := s.backend.ListAssignments(ctx, s.token())
	if items == nil {
		items = []assignment.Assignment{}
	}
	s.Dispatch(FetchAssignmentsAction{Meta: settled(m, err), Items: items})
	return items, errors.Wrap(err, "fetching assignments")
}

// FetchAssignmentDetail loads one assignment. The previous detail is cleared as soon as the request starts.
func (s *Store) FetchAssignmentDetail(ctx context.Context, id assignment.ID) (assignment.Assignment, error) {
	m := s.nextMeta()
	s.Dispatch(FetchAssignmentDetailAction{Meta: m, ID: id})

	detail, err := s.backend.GetAssignment(ctx, s.token(), id)
	s.Dispatch(FetchAssignmentDetailAction{Meta: settled(m, err), ID: id, Detail: detail})
	return detail, errors.Wrap(err, "fetching assignment detail")
}

// FetchSubmissionStatus loads the logged in student's submission status for an assignment.
func (s *Store) FetchSubmissionStatus(ctx context.Context, assignmentID assignment.ID) (assignment.SubmissionStatus, error) {
	m := s.nextMeta()
	s.Dispatch(FetchSubmissionStatusAction{Meta: m, AssignmentID: assignmentID})

	status, err := s.backend.GetSubmissionStatus(ctx, s.token(), assignmentID)
	s.Dispatch(FetchSubmissionStatusAction{Meta: settled(m, err), AssignmentID: assignmentID, Status: status})
	return status, errors.Wrap(err, "fetching submission status")
}

// FetchSubmissions loads every submission of an assignment (teacher view).
func (s *Store) FetchSubmissions(ctx context.Context, assignmentID assignment.ID) ([]assignment.Submission, error) {
	m := s.nextMeta()
	s.Dispatch(FetchSubmissionsAction{Meta: m, AssignmentID: assignmentID})

	subs, err := s.backend.ListSubmissions(ctx, s.token(), assignmentID)
	s.Dispatch(FetchSubmissionsAction{Meta: settled(m, err), AssignmentID: assignmentID, Submissions: subs})
	return subs, errors.Wrap(err, "fetching submissions")
}

// SubmitAssignment uploads a student's work. Only the loading/error state changes.
func (s *Store) SubmitAssignment(ctx context.Context, sub assignment.NewSubmission) error {
	m := s.nextMeta()
	s.Dispatch(SubmitAssignmentAction{Meta: m, AssignmentID: sub.AssignmentID})

	err := s.backend.Submit(ctx, s.token(), sub)
	s.Dispatch(SubmitAssignmentAction{Meta: settled(m, err), AssignmentID: sub.AssignmentID})
	return errors.Wrap(err, "submitting assignment")
}

// GradeSubmission sends feedback and grade. On success the cached entry with the same id
// is patched in place; submissions are not fetched again.
func (s *Store) GradeSubmission(ctx context.Context, in assignment.GradeInput) error {
	m := s.nextMeta()
	s.Dispatch(GradeSubmissionAction{Meta: m, Input: in})

	err := s.backend.Grade(ctx, s.token(), in)
	s.Dispatch(GradeSubmissionAction{Meta: settled(m, err), Input: in})
	return errors.Wrap(err, "grading submission")
}
