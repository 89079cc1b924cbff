package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/store"
	backendsvc "github.com/trezcool/gradebook/services/backend"
	logsvc "github.com/trezcool/gradebook/services/logger"
	"github.com/trezcool/gradebook/storage"
)

// sessionKey is the key of the CLI's token in the token store.
const sessionKey = "cli"

func main() {
	ctx := context.Background()

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "CLI : ", log.LstdFlags), conf)

	tokens, err := storage.NewTokenStore(ctx, conf)
	if err != nil {
		logger.Fatal("setting up token store", err)
	}

	st, err := store.New(ctx, sessionKey, backendsvc.NewFromConfig(conf), tokens)
	if err != nil {
		logger.Fatal("loading session", err)
	}

	validate, translator := core.NewValidator()
	cli := commandLine{
		store:      st,
		validate:   validate,
		translator: translator,
		out:        os.Stdout,
	}
	err = cli.run(ctx, os.Args)
	if cErr := tokens.Close(); cErr != nil {
		logger.Error("closing token store", cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error("error: " + err.Error())
		}
		os.Exit(1)
	}
}
