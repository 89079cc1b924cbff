package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoweb "github.com/trezcool/gradebook/apps/web/echo"
	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/store"
	backendsvc "github.com/trezcool/gradebook/services/backend"
	logsvc "github.com/trezcool/gradebook/services/logger"
	"github.com/trezcool/gradebook/storage"
)

type StorageLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storageLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "WEB : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newStorageLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "STORAGE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newTokenStore(conf *core.Config, loggerParam StorageLoggerParam) core.TokenStore {
	tokens, err := storage.NewTokenStore(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up %s token store: %v", conf.Session.Driver, err), err)
	}
	return tokens
}

func newBackend(conf *core.Config) store.Backend {
	return backendsvc.NewFromConfig(conf)
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	backend store.Backend,
	tokens core.TokenStore,
	validate *validator.Validate,
	translator ut.Translator,
) (*echoweb.Server, error) {
	return echoweb.NewServer(echoweb.Deps{
		Conf:       conf,
		Logger:     logger,
		Backend:    backend,
		Tokens:     tokens,
		Validate:   validate,
		Translator: translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStorageLogger, dig.Name("storageLogger")))
	must(c.Provide(newTokenStore))
	must(c.Provide(newBackend))
	must(c.Provide(core.NewValidator))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
