package echoweb

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/auth"
	"github.com/trezcool/gradebook/core/route"
)

type loginForm struct {
	Username string `form:"username" validate:"required,notblank"`
	Password string `form:"password" validate:"required"`
}

func (h *handlers) loginPage(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, "login", newPage(ctx, "Login"))
}

func (h *handlers) login(ctx echo.Context) error {
	st, err := ctxStore(ctx)
	if err != nil {
		return err
	}

	var data loginForm
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to loginForm")
	}
	data.Username = strings.TrimSpace(data.Username)

	p := newPage(ctx, "Login")
	p.Data = data.Username
	if err = h.validate.Struct(data); err != nil {
		fields, ok := h.validationFields(err)
		if !ok {
			return err
		}
		p.Fields = fields
		return ctx.Render(http.StatusBadRequest, "login", p)
	}

	if err = st.Login(ctx.Request().Context(), data.Username, data.Password); err != nil {
		h.logFailure(ctx, "login failed", err)
		p.Error = apiErrorMessage(st.State().Auth.Error)
		return ctx.Render(http.StatusOK, "login", p)
	}

	h.sessions.Keep(st)
	setSessionCookie(ctx, h.session, st.Key())

	claims := auth.ParseClaims(st.State().Auth.Token)
	h.logger.Info("logged in", claims.Identity())
	return ctx.Redirect(http.StatusFound, claims.LandingPath())
}

func (h *handlers) logout(ctx echo.Context) error {
	st, err := ctxStore(ctx)
	if err != nil {
		return err
	}
	if err = st.Logout(ctx.Request().Context()); err != nil {
		h.logger.Error("logout", err, contextIdentity(ctx))
	}
	h.sessions.Drop(st.Key())
	return ctx.Redirect(http.StatusFound, route.LoginPath)
}
