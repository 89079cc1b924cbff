package echoweb

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/route"
)

type handlers struct {
	logger     core.Logger
	sessions   *Sessions
	session    core.SessionConfig
	validate   *validator.Validate
	translator ut.Translator
}

// registerRoutes mounts one handler per page of the route table.
func registerRoutes(e *echo.Echo, h *handlers) {
	e.GET(route.Path(route.Health), h.health)

	e.GET(route.Path(route.Login), h.loginPage)
	e.POST(route.Path(route.Login), h.login)
	e.POST(route.Path(route.Logout), h.logout)

	// student portal
	e.GET(route.Path(route.Dashboard), h.dashboard)
	e.GET(route.Path(route.Assignment, ":id"), h.assignmentDetail)
	e.GET(route.Path(route.Submit, ":id"), h.submitPage)
	e.POST(route.Path(route.Submit, ":id"), h.submit)

	// teacher portal
	e.GET(route.Path(route.TeacherDashboard), h.teacherDashboard)
	e.GET(route.Path(route.AssignmentGrading, ":id"), h.submissions)
	e.POST(route.Path(route.AssignmentGrading, ":id"), h.grade)
}

func (h *handlers) health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "ok")
}

// logFailure reports a backend call that failed; the page shows it inline.
func (h *handlers) logFailure(ctx echo.Context, msg string, err error) {
	if err != nil {
		h.logger.Warn(msg, err, contextIdentity(ctx))
	}
}

// validationFields translates a validation failure into form field errors.
// ok is false for any other error.
func (h *handlers) validationFields(err error) (fields map[string]string, ok bool) {
	vErr, ok := core.TranslateValidationErrors(err, h.translator).(*core.ValidationError)
	if !ok {
		return nil, false
	}
	fields = make(map[string]string, len(vErr.Fields))
	for _, f := range vErr.Fields {
		fields[f.Field] = f.Error
	}
	return fields, true
}
