package main

import (
	"context"
	"expvar"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/pkg/errors"

	dig_container "github.com/trezcool/gradebook/apps/web/di/dig"
	echoweb "github.com/trezcool/gradebook/apps/web/echo"
	"github.com/trezcool/gradebook/core"
)

type app struct {
	conf   *core.Config
	logger core.Logger
	server *echoweb.Server
}

func main() {
	err := dig_container.New().Invoke(func(
		conf *core.Config,
		logger core.Logger,
		storage dig_container.StorageLoggerParam,
		tokens core.TokenStore,
		server *echoweb.Server,
	) {
		defer func() {
			if err := tokens.Close(); err != nil {
				storage.Logger.Fatal("closing token store", err)
			}
		}()

		a := app{conf: conf, logger: logger, server: server}
		logger.Info("gradebook "+conf.Build+" starting", map[string]interface{}{
			"env":     conf.Env,
			"backend": conf.Backend.BaseURL,
			"session": conf.Session.Driver,
		})
		a.publishVars()
		go a.serveDebug()
		go server.Start()

		a.wait()
		logger.Info("gradebook stopped")
	})
	if err != nil {
		log.Fatal(err)
	}
}

// publishVars exposes the build and the number of live sessions under /debug/vars.
func (a app) publishVars() {
	expvar.NewString("build").Set(a.conf.Build)
	expvar.NewString("env").Set(a.conf.Env)
	expvar.Publish("sessions", expvar.Func(func() interface{} { return a.server.Sessions().Len() }))
}

// serveDebug serves pprof and expvar on the debug host.
func (a app) serveDebug() {
	if err := http.ListenAndServe(a.conf.Server.DebugHost, http.DefaultServeMux); err != nil {
		a.logger.Error("debug server closed", err)
	}
}

// wait blocks until the server fails or a shutdown is requested, then drains it.
func (a app) wait() {
	select {
	case err := <-a.server.Errors():
		a.logger.Fatal("serving", err)

	case sig := <-a.server.ShutdownSignal():
		a.logger.Info("shutting down on " + sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), a.conf.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error("graceful shutdown", errors.Wrap(err, "draining requests"))
			if err = a.server.Close(); err != nil {
				a.logger.Fatal("closing server", err)
			}
		}
	}
}
