package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/gradebook/core/store"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("not logged in: run `login -username USERNAME` first")
)

type commandLine struct {
	store      *store.Store
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -username USERNAME - log in; the password is prompted next")
	fmt.Fprintln(cli.out, "  logout - forget the saved session")
	fmt.Fprintln(cli.out, "  assignments - list assignments")
	fmt.Fprintln(cli.out, "  assignment -id ID - show an assignment")
	fmt.Fprintln(cli.out, "  status -id ID - show your submission status for an assignment")
	fmt.Fprintln(cli.out, "  submit -id ID -file PATH [-comment COMMENT] - submit your work for an assignment")
	fmt.Fprintln(cli.out, "  submissions -id ID - list the submissions of an assignment (teachers)")
	fmt.Fprintln(cli.out, "  grade -id SUBMISSION_ID -feedback FEEDBACK -grade GRADE - grade a submission (teachers)")
}

// command is a subcommand; protected ones need a logged in session.
type command struct {
	flags     *flag.FlagSet
	protected bool
	run       func(ctx context.Context) error
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) commands() map[string]command {
	cmds := make(map[string]command)

	loginCmd := cli.newFlagSet("login")
	loginUname := loginCmd.String("username", "", "Your username. The password will be prompted next.")
	cmds["login"] = command{flags: loginCmd, run: func(ctx context.Context) error {
		return cli.login(ctx, loginCmd, *loginUname)
	}}

	logoutCmd := cli.newFlagSet("logout")
	cmds["logout"] = command{flags: logoutCmd, run: cli.logout}

	assignmentsCmd := cli.newFlagSet("assignments")
	cmds["assignments"] = command{flags: assignmentsCmd, protected: true, run: cli.listAssignments}

	assignmentCmd := cli.newFlagSet("assignment")
	assignmentID := assignmentCmd.String("id", "", "The assignment ID.")
	cmds["assignment"] = command{flags: assignmentCmd, protected: true, run: func(ctx context.Context) error {
		if *assignmentID == "" {
			assignmentCmd.Usage()
			return errHelp
		}
		return cli.showAssignment(ctx, *assignmentID)
	}}

	statusCmd := cli.newFlagSet("status")
	statusID := statusCmd.String("id", "", "The assignment ID.")
	cmds["status"] = command{flags: statusCmd, protected: true, run: func(ctx context.Context) error {
		if *statusID == "" {
			statusCmd.Usage()
			return errHelp
		}
		return cli.showStatus(ctx, *statusID)
	}}

	submitCmd := cli.newFlagSet("submit")
	submitID := submitCmd.String("id", "", "The assignment ID.")
	submitFile := submitCmd.String("file", "", "Path of the file to submit.")
	submitComment := submitCmd.String("comment", "", "Optional comment.")
	cmds["submit"] = command{flags: submitCmd, protected: true, run: func(ctx context.Context) error {
		if *submitID == "" || *submitFile == "" {
			submitCmd.Usage()
			return errHelp
		}
		return cli.submit(ctx, *submitID, *submitFile, *submitComment)
	}}

	submissionsCmd := cli.newFlagSet("submissions")
	submissionsID := submissionsCmd.String("id", "", "The assignment ID.")
	cmds["submissions"] = command{flags: submissionsCmd, protected: true, run: func(ctx context.Context) error {
		if *submissionsID == "" {
			submissionsCmd.Usage()
			return errHelp
		}
		return cli.listSubmissions(ctx, *submissionsID)
	}}

	gradeCmd := cli.newFlagSet("grade")
	gradeID := gradeCmd.String("id", "", "The submission ID.")
	gradeFeedback := gradeCmd.String("feedback", "", "Feedback for the student.")
	gradeValue := gradeCmd.String("grade", "", "The grade.")
	cmds["grade"] = command{flags: gradeCmd, protected: true, run: func(ctx context.Context) error {
		if *gradeID == "" {
			gradeCmd.Usage()
			return errHelp
		}
		return cli.grade(ctx, *gradeID, *gradeFeedback, *gradeValue)
	}}

	return cmds
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	cmd, ok := cli.commands()[args[1]]
	if !ok {
		cli.printUsage()
		return errHelp
	}
	if err := cmd.flags.Parse(args[2:]); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	if cmd.protected && !cli.store.Authenticated() {
		return errNotLoggedIn
	}
	return cmd.run(ctx)
}
