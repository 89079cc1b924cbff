package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/trezcool/gradebook/core/assignment"
)

func (cli *commandLine) listAssignments(ctx context.Context) error {
	items, err := cli.store.FetchAssignments(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(cli.out, "No assignments.")
		return nil
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tDUE DATE")
	for _, a := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.ID, a.Title, a.DueDate)
	}
	return w.Flush()
}

func (cli *commandLine) showAssignment(ctx context.Context, id string) error {
	a, err := cli.store.FetchAssignmentDetail(ctx, assignment.ID(id))
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, a.Title)
	if a.Description != "" {
		fmt.Fprintln(cli.out, a.Description)
	}
	fmt.Fprintf(cli.out, "Due Date: %s\n", a.DueDate)
	return nil
}

func (cli *commandLine) showStatus(ctx context.Context, id string) error {
	status, err := cli.store.FetchSubmissionStatus(ctx, assignment.ID(id))
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Status: %s\n", status.Status)
	if status.SubmissionDate != "" {
		fmt.Fprintf(cli.out, "Submitted on: %s\n", status.SubmissionDate)
	}
	if status.IsGraded() {
		fmt.Fprintf(cli.out, "Feedback: %s\n", status.Feedback)
		fmt.Fprintf(cli.out, "Grade: %s\n", status.Grade)
	}
	return nil
}

func (cli *commandLine) listSubmissions(ctx context.Context, id string) error {
	subs, err := cli.store.FetchSubmissions(ctx, assignment.ID(id))
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		fmt.Fprintln(cli.out, "No submissions.")
		return nil
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTUDENT\tSUBMITTED\tGRADE\tFEEDBACK")
	for _, s := range subs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.StudentName, s.SubmissionDate, s.Grade, s.Feedback)
	}
	return w.Flush()
}
