package assignment

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ID identifies assignments and submissions. The backend may send it as a JSON number or string.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	s, err := flexString(data)
	if err != nil {
		return errors.Wrap(err, "decoding ID")
	}
	*id = ID(s)
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Grade is free text as typed by the teacher; numeric grades from the backend are kept as their decimal text.
type Grade string

func (g *Grade) UnmarshalJSON(data []byte) error {
	s, err := flexString(data)
	if err != nil {
		return errors.Wrap(err, "decoding Grade")
	}
	*g = Grade(s)
	return nil
}

// flexString accepts a JSON string, number or null.
func flexString(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		err := json.Unmarshal(data, &s)
		return s, err
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", err
	}
	return n.String(), nil
}

type (
	Assignment struct {
		ID          ID     `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
		DueDate     string `json:"dueDate"`
	}

	// SubmissionStatus is the state of the logged in student's work on one assignment.
	SubmissionStatus struct {
		Status         string `json:"status"`
		SubmissionDate string `json:"submissionDate,omitempty"`
		Feedback       string `json:"feedback,omitempty"`
		Grade          Grade  `json:"grade,omitempty"`
	}

	// Submission is one student's work on an assignment, as listed to teachers.
	Submission struct {
		ID             ID     `json:"id"`
		StudentName    string `json:"studentName"`
		SubmissionDate string `json:"submissionDate"`
		Feedback       string `json:"feedback,omitempty"`
		Grade          Grade  `json:"grade,omitempty"`
	}
)

// IsGraded reports whether a grade or feedback has been attached to the submission.
func (s SubmissionStatus) IsGraded() bool {
	return s.Grade != "" || s.Feedback != ""
}

type (
	// NewSubmission is the multipart payload of `POST /submissions`.
	NewSubmission struct {
		AssignmentID ID        `form:"assignmentId" validate:"required,notblank"`
		Comment      string    `form:"comment"`
		FileName     string    `form:"file" validate:"required,notblank"`
		File         io.Reader `form:"-" validate:"required"`
	}

	// GradeInput is the payload of `POST /submissions/:id/grade` plus the submission it targets.
	GradeInput struct {
		SubmissionID ID     `form:"submissionId" json:"-" validate:"required,notblank"`
		Feedback     string `form:"feedback" json:"feedback"`
		Grade        Grade  `form:"grade" json:"grade"`
	}
)

func (ns *NewSubmission) Clean() {
	ns.AssignmentID = ID(strings.TrimSpace(string(ns.AssignmentID)))
	ns.Comment = strings.TrimSpace(ns.Comment)
	ns.FileName = strings.TrimSpace(ns.FileName)
}

func (gi *GradeInput) Clean() {
	gi.SubmissionID = ID(strings.TrimSpace(string(gi.SubmissionID)))
	gi.Feedback = strings.TrimSpace(gi.Feedback)
	gi.Grade = Grade(strings.TrimSpace(string(gi.Grade)))
}
