// Package testutil holds helpers shared by tests of several packages.
package testutil

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/gradebook/core/assignment"
)

type (
	// Backend is a fake grading backend serving the REST API over httptest.
	Backend struct {
		*httptest.Server

		mu          sync.Mutex
		users       map[string]backendUser // by username
		tokens      map[string]string      // token -> username
		assignments []assignment.Assignment
		statuses    map[assignment.ID]assignment.SubmissionStatus
		submissions map[assignment.ID][]assignment.Submission
		failures    map[string]Failure // by route name, eg. "GET /assignments/:id"
		received    []ReceivedSubmission
		grades      []GradeCall
		requests    []string
	}

	backendUser struct {
		password string
		token    string
	}

	// Failure forces a route to answer with Status and Body.
	Failure struct {
		Status int
		Body   string
	}

	// ReceivedSubmission is what the backend got from `POST /submissions`.
	ReceivedSubmission struct {
		AssignmentID string
		Comment      string
		FileName     string
		Content      string
		Token        string
	}

	// GradeCall is what the backend got from `POST /submissions/:id/grade`.
	GradeCall struct {
		SubmissionID string
		Feedback     string `json:"feedback"`
		Grade        string `json:"grade"`
	}
)

// NewBackend starts a fake backend; it is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	b := &Backend{
		users:       make(map[string]backendUser),
		tokens:      make(map[string]string),
		statuses:    make(map[assignment.ID]assignment.SubmissionStatus),
		submissions: make(map[assignment.ID][]assignment.Submission),
		failures:    make(map[string]Failure),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(b.record)
	e.POST("/login", b.login)
	g := e.Group("", b.authenticate)
	g.GET("/assignments", b.listAssignments)
	g.GET("/assignments/:id", b.getAssignment)
	g.GET("/assignments/:id/submissions", b.listSubmissions)
	g.GET("/submissions/:id", b.getStatus)
	g.POST("/submissions", b.submit)
	g.POST("/submissions/:id/grade", b.grade)

	b.Server = httptest.NewServer(e)
	t.Cleanup(b.Server.Close)
	return b
}

// AddUser registers credentials; a successful login answers with token.
func (b *Backend) AddUser(username, password, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[username] = backendUser{password: password, token: token}
	b.tokens[token] = username
}

func (b *Backend) SetAssignments(items ...assignment.Assignment) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.assignments = items
}

func (b *Backend) SetStatus(id assignment.ID, status assignment.SubmissionStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses[id] = status
}

func (b *Backend) SetSubmissions(id assignment.ID, subs ...assignment.Submission) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submissions[id] = subs
}

// Fail makes the named route (eg. "GET /assignments") answer with the failure until cleared.
func (b *Backend) Fail(route string, f Failure) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = f
}

func (b *Backend) ClearFailures() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = make(map[string]Failure)
}

func (b *Backend) Received() []ReceivedSubmission {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ReceivedSubmission(nil), b.received...)
}

func (b *Backend) Grades() []GradeCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]GradeCall(nil), b.grades...)
}

// Requests lists the routes hit so far, eg. "GET /assignments/:id".
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

func (b *Backend) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		route := ctx.Request().Method + " " + ctx.Path()
		b.mu.Lock()
		b.requests = append(b.requests, route)
		f, failing := b.failures[route]
		b.mu.Unlock()

		if failing {
			if f.Body == "" {
				return ctx.NoContent(f.Status)
			}
			return ctx.Blob(f.Status, echo.MIMEApplicationJSON, []byte(f.Body))
		}
		return next(ctx)
	}
}

func (b *Backend) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
		const prefix = "Bearer "
		if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
			b.mu.Lock()
			_, ok := b.tokens[auth[len(prefix):]]
			b.mu.Unlock()
			if ok {
				ctx.Set("token", auth[len(prefix):])
				return next(ctx)
			}
		}
		return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "user not authenticated"})
	}
}

func (b *Backend) login(ctx echo.Context) error {
	var data struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := ctx.Bind(&data); err != nil {
		return ctx.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	b.mu.Lock()
	usr, ok := b.users[data.Username]
	b.mu.Unlock()
	if !ok || usr.password != data.Password {
		return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"token": usr.token})
}

func (b *Backend) listAssignments(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.assignments
	if items == nil {
		items = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (b *Backend) getAssignment(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.assignments {
		if a.ID.String() == ctx.Param("id") {
			return ctx.JSON(http.StatusOK, a)
		}
	}
	return ctx.JSON(http.StatusNotFound, echo.Map{"message": "assignment not found"})
}

func (b *Backend) listSubmissions(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.submissions[assignment.ID(ctx.Param("id"))]
	if subs == nil {
		subs = []assignment.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (b *Backend) getStatus(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	status, ok := b.statuses[assignment.ID(ctx.Param("id"))]
	if !ok {
		status = assignment.SubmissionStatus{Status: "not submitted"}
	}
	return ctx.JSON(http.StatusOK, status)
}

func (b *Backend) submit(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, echo.Map{"message": "file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	content, err := ioutil.ReadAll(f)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.received = append(b.received, ReceivedSubmission{
		AssignmentID: ctx.FormValue("assignmentId"),
		Comment:      ctx.FormValue("comment"),
		FileName:     fh.Filename,
		Content:      string(content),
		Token:        ctx.Get("token").(string),
	})
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "submitted"})
}

func (b *Backend) grade(ctx echo.Context) error {
	var data GradeCall
	if err := ctx.Bind(&data); err != nil {
		return ctx.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	data.SubmissionID = ctx.Param("id")

	b.mu.Lock()
	defer b.mu.Unlock()
	b.grades = append(b.grades, data)
	return ctx.JSON(http.StatusOK, echo.Map{"message": "graded"})
}
