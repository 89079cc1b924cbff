package main

import (
	"context"
	"flag"
	"fmt"
	"syscall"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/auth"
)

func (cli *commandLine) login(ctx context.Context, fs *flag.FlagSet, username string) error {
	username = core.CleanString(username)
	if username == "" {
		fs.Usage()
		return errHelp
	}
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return errHelp
	}

	if err = cli.store.Login(ctx, username, string(pwd)); err != nil {
		return err
	}
	claims := auth.ParseClaims(cli.store.State().Auth.Token)
	if claims.Username != "" {
		username = claims.Username
	}
	fmt.Fprintf(cli.out, "Logged in as %s\n", username)
	return nil
}

func (cli *commandLine) logout(ctx context.Context) error {
	if err := cli.store.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Logged out")
	return nil
}
