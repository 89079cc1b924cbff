package assignment

import (
	"github.com/go-playground/validator/v10"
)

// Validate cleans then validates the submission payload.
func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}

// Validate cleans then validates the grading payload.
// Grades are not range checked: the backend owns that rule.
func (gi *GradeInput) Validate(validate *validator.Validate) error {
	gi.Clean()
	return validate.Struct(gi)
}
