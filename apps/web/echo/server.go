package echoweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/store"
)

type (
	Deps struct {
		Conf       *core.Config
		Logger     core.Logger
		Backend    store.Backend
		Tokens     core.TokenStore
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		deps     Deps
		app      *echo.Echo
		sessions *Sessions
		shutdown chan os.Signal
		errors   chan error
		done     chan struct{}
		stop     sync.Once
	}
)

func NewServer(deps Deps) (*Server, error) {
	rdr, err := newRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		deps:     deps,
		app:      echo.New(),
		sessions: NewSessions(deps.Backend, deps.Tokens, deps.Logger),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
		done:     make(chan struct{}),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	s.setup(rdr)
	return s, nil
}

func (s *Server) setup(rdr echo.Renderer) {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.Renderer = rdr
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	// the guard runs before routing so that unknown paths redirect instead of 404
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Pre(sessionMiddleware(s.sessions, conf.Session))
	s.app.Pre(guardMiddleware())

	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	h := &handlers{
		logger:     s.deps.Logger,
		sessions:   s.sessions,
		session:    conf.Session,
		validate:   s.deps.Validate,
		translator: s.deps.Translator,
	}
	registerRoutes(s.app, h)
}

// Start blocks serving requests; a failure is sent to Errors.
// Sessions idle for longer than the cookie max age are evicted meanwhile.
func (s *Server) Start() {
	go s.sessions.evictIdle(s.done, s.deps.Conf.Session.CookieMaxAge)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal receives OS interrupts, and the signal sent on shutdown errors.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.stopBackground()
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	s.stopBackground()
	return s.app.Close()
}

func (s *Server) stopBackground() {
	s.stop.Do(func() {
		signal.Stop(s.shutdown)
		close(s.done)
	})
}

func (s *Server) Sessions() *Sessions {
	return s.sessions
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
