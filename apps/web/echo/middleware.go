package echoweb

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/auth"
	"github.com/trezcool/gradebook/core/route"
	"github.com/trezcool/gradebook/core/store"
)

const (
	contextStoreKey     = "store"
	contextSessionIDKey = "sessionID"
)

// sessionMiddleware attaches the session store to the context.
// A request without a valid session cookie gets a new session id; the cookie is only issued on login.
func sessionMiddleware(sessions *Sessions, conf core.SessionConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if ctx.Request().URL.Path == route.Path(route.Health) {
				return next(ctx)
			}

			var sid string
			if cookie, err := ctx.Cookie(conf.CookieName); err == nil {
				if id, err := uuid.Parse(cookie.Value); err == nil {
					sid = id.String()
				}
			}
			if sid == "" {
				sid = uuid.New().String()
			}

			st, err := sessions.Get(ctx.Request().Context(), sid)
			if err != nil {
				return err
			}
			ctx.Set(contextSessionIDKey, sid)
			ctx.Set(contextStoreKey, st)
			return next(ctx)
		}
	}
}

func setSessionCookie(ctx echo.Context, conf core.SessionConfig, sid string) {
	ctx.SetCookie(&http.Cookie{
		Name:     conf.CookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(conf.CookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// guardMiddleware lets a request through only if its route allows it,
// redirecting to the login page otherwise. Logged in users are sent from the login page to their landing page.
func guardMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			var authenticated bool
			st, _ := ctx.Get(contextStoreKey).(*store.Store)
			if st != nil {
				authenticated = st.Authenticated()
			}

			d := route.Resolve(ctx.Request().URL.Path, authenticated)
			if !d.Allowed() {
				return ctx.Redirect(http.StatusFound, d.Redirect)
			}
			if d.Route.Name == route.Login && authenticated {
				return ctx.Redirect(http.StatusFound, auth.ParseClaims(st.State().Auth.Token).LandingPath())
			}
			return next(ctx)
		}
	}
}

func ctxStore(ctx echo.Context) (*store.Store, error) {
	if st, ok := ctx.Get(contextStoreKey).(*store.Store); ok {
		return st, nil
	}
	return nil, errMissingSession
}

// contextIdentity tells who is behind the request, for logs.
func contextIdentity(ctx echo.Context) core.Identity {
	st, err := ctxStore(ctx)
	if err != nil {
		return core.Identity{}
	}
	return auth.ParseClaims(st.State().Auth.Token).Identity()
}
