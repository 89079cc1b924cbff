package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/assignment"
)

func (cli *commandLine) submit(ctx context.Context, id, path, comment string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening file to submit")
	}
	defer f.Close()

	sub := assignment.NewSubmission{
		AssignmentID: assignment.ID(id),
		Comment:      comment,
		FileName:     filepath.Base(path),
		File:         f,
	}
	if err = sub.Validate(cli.validate); err != nil {
		return core.TranslateValidationErrors(err, cli.translator)
	}
	if err = cli.store.SubmitAssignment(ctx, sub); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Submission successful!")
	return nil
}

func (cli *commandLine) grade(ctx context.Context, submissionID, feedback, grade string) error {
	in := assignment.GradeInput{
		SubmissionID: assignment.ID(submissionID),
		Feedback:     feedback,
		Grade:        assignment.Grade(grade),
	}
	if err := in.Validate(cli.validate); err != nil {
		return core.TranslateValidationErrors(err, cli.translator)
	}
	if err := cli.store.GradeSubmission(ctx, in); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Feedback and grade submitted!")
	return nil
}
