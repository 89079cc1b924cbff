package echoweb

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

var errMissingSession = errors.New("session store not found in echo.Context")

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string
		var fields map[string]string

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if m, ok := origErr.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		case validator.ValidationErrors:
			fields = make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fields[vErr.Field()] = vErr.Error()
			}
			code = http.StatusBadRequest
			message = http.StatusText(code)
		case *core.ValidationError:
			if origErr.Fields != nil {
				fields = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fields[fErr.Field] = fErr.Error
				}
			}
			code = http.StatusBadRequest
			message = origErr.Error()
		case *core.APIError:
			// a backend failure no page could show inline
			code = http.StatusBadGateway
			message = origErr.Message()
			logger.Warn(message, origErr, contextIdentity(ctx))
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(code)
			logger.Error(message, errors.Wrap(err, message), contextIdentity(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				p := newPage(ctx, http.StatusText(code))
				p.Error = message
				p.Fields = fields
				p.Data = code
				err = ctx.Render(code, "error", p)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
