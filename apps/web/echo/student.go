package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/assignment"
	"github.com/trezcool/gradebook/core/route"
	"github.com/trezcool/gradebook/core/store"
)

func (h *handlers) dashboard(ctx echo.Context) error {
	st, err := ctxStore(ctx)
	if err != nil {
		return err
	}
	_, err = st.FetchAssignments(ctx.Request().Context())
	h.logFailure(ctx, "fetching assignments", err)

	s := st.State().Assignments
	p := newPage(ctx, "Dashboard")
	p.Error = apiErrorMessage(s.Error)
	p.Data = s.Items
	return ctx.Render(http.StatusOK, "dashboard", p)
}

type assignmentData struct {
	Detail      *assignment.Assignment
	Status      *assignment.SubmissionStatus
	StatusError string
}

func (h *handlers) assignmentDetail(ctx echo.Context) error {
	st, err := ctxStore(ctx)
	if err != nil {
		return err
	}
	id := assignment.ID(ctx.Param("id"))
	rctx := ctx.Request().Context()

	_, err = st.FetchAssignmentDetail(rctx, id)
	h.logFailure(ctx, "fetching assignment detail", err)
	_, err = st.FetchSubmissionStatus(rctx, id)
	h.logFailure(ctx, "fetching submission status", err)

	// both requests touch the aggregate error: read each one's own
	s := st.State().Assignments
	p := newPage(ctx, "Assignment")
	p.Error = apiErrorMessage(s.Call(store.OpFetchAssignmentDetail).Err)
	if ctx.QueryParam("submitted") != "" {
		p.Flash = "Submission successful!"
	}
	p.Data = assignmentData{
		Detail:      s.Detail,
		Status:      s.Status,
		StatusError: apiErrorMessage(s.Call(store.OpFetchSubmissionStatus).Err),
	}
	if s.Detail != nil {
		p.Title = s.Detail.Title
	}
	return ctx.Render(http.StatusOK, "assignment", p)
}

func (h *handlers) submitPage(ctx echo.Context) error {
	p := newPage(ctx, "Submit Assignment")
	p.Data = ctx.Param("id")
	return ctx.Render(http.StatusOK, "submit", p)
}

func (h *handlers) submit(ctx echo.Context) error {
	st, err := ctxStore(ctx)
	if err != nil {
		return err
	}
	id := ctx.Param("id")
	p := newPage(ctx, "Submit Assignment")
	p.Data = id

	sub := assignment.NewSubmission{
		AssignmentID: assignment.ID(id),
		Comment:      ctx.FormValue("comment"),
	}
	fh, err := ctx.FormFile("file")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded file")
		}
		defer f.Close()
		sub.FileName, sub.File = fh.Filename, f
	case err != http.ErrMissingFile && err != http.ErrNotMultipart:
		return errors.Wrap(err, "reading uploaded file")
	}

	if err = sub.Validate(h.validate); err != nil {
		fields, ok := h.validationFields(err)
		if !ok {
			return err
		}
		p.Fields = fields
		if _, missing := fields["File"]; missing {
			p.Fields["file"] = "please select a file to submit"
		}
		return ctx.Render(http.StatusBadRequest, "submit", p)
	}

	if err = st.SubmitAssignment(ctx.Request().Context(), sub); err != nil {
		h.logFailure(ctx, "submitting assignment", err)
		p.Error = apiErrorMessage(st.State().Assignments.Call(store.OpSubmitAssignment).Err)
		return ctx.Render(http.StatusOK, "submit", p)
	}
	return ctx.Redirect(http.StatusSeeOther, route.Path(route.Assignment, id)+"?submitted=1")
}
