package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/assignment"
	"github.com/trezcool/gradebook/core/store"
)

func (h *handlers) teacherDashboard(ctx echo.Context) error {
	st, err := ctxStore(ctx)
	if err != nil {
		return err
	}
	_, err = st.FetchAssignments(ctx.Request().Context())
	h.logFailure(ctx, "fetching assignments", err)

	s := st.State().Assignments
	p := newPage(ctx, "Teacher Dashboard")
	p.Error = apiErrorMessage(s.Error)
	p.Data = s.Items
	return ctx.Render(http.StatusOK, "teacher_dashboard", p)
}

type submissionsData struct {
	AssignmentID string
	Submissions  []store.SubmissionEntry
	GradeError   string // grading failure of a submission not listed
}

func (h *handlers) submissions(ctx echo.Context) error {
	st, err := ctxStore(ctx)
	if err != nil {
		return err
	}
	id := ctx.Param("id")
	_, err = st.FetchSubmissions(ctx.Request().Context(), assignment.ID(id))
	h.logFailure(ctx, "fetching submissions", err)

	s := st.State().Assignments
	p := newPage(ctx, "Submissions")
	p.Error = apiErrorMessage(s.Call(store.OpFetchSubmissions).Err)
	p.Data = submissionsData{AssignmentID: id, Submissions: s.Submissions}
	return ctx.Render(http.StatusOK, "submissions", p)
}

// grade patches the cached submission and renders the page from the cache.
// Submissions are only fetched when the cache holds those of another assignment.
func (h *handlers) grade(ctx echo.Context) error {
	st, err := ctxStore(ctx)
	if err != nil {
		return err
	}
	id := ctx.Param("id")
	p := newPage(ctx, "Submissions")

	var in assignment.GradeInput
	if err = ctx.Bind(&in); err != nil {
		return errors.Wrap(err, "binding to GradeInput")
	}

	if st.State().Assignments.SubmissionsFor != assignment.ID(id) {
		_, err = st.FetchSubmissions(ctx.Request().Context(), assignment.ID(id))
		h.logFailure(ctx, "fetching submissions", err)
		p.Error = apiErrorMessage(st.State().Assignments.Call(store.OpFetchSubmissions).Err)
	}

	status := http.StatusOK
	if err = in.Validate(h.validate); err != nil {
		fields, ok := h.validationFields(err)
		if !ok {
			return err
		}
		p.Fields = fields
		status = http.StatusBadRequest
	} else if err = st.GradeSubmission(ctx.Request().Context(), in); err != nil {
		h.logFailure(ctx, "grading submission", err)
	} else {
		p.Flash = "Feedback and grade submitted!"
	}

	s := st.State().Assignments
	data := submissionsData{AssignmentID: id}
	if s.SubmissionsFor == assignment.ID(id) {
		data.Submissions = s.Submissions
	}
	if err != nil && status == http.StatusOK {
		if _, ok := s.Submission(in.SubmissionID); !ok {
			data.GradeError = apiErrorMessage(s.Call(store.OpGradeSubmission).Err)
		}
	}
	p.Data = data
	return ctx.Render(status, "submissions", p)
}
