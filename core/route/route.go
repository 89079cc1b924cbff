// Package route decides, for every navigation, whether the page may be shown or where to go instead.
package route

import (
	"strings"
)

// Route names.
const (
	Login             = "login"
	Logout            = "logout"
	Health            = "healthz"
	Dashboard         = "dashboard"
	Assignment        = "assignment"
	Submit            = "submit"
	TeacherDashboard  = "teacherDashboard"
	AssignmentGrading = "assignmentSubmissions"
)

// LoginPath is where anonymous users are sent.
const LoginPath = "/login"

type Route struct {
	Name      string
	Pattern   string // segments starting with ':' match any non empty segment
	Protected bool
}

// Routes is the route table, in matching order.
var Routes = []Route{
	{Name: Login, Pattern: "/login"},
	{Name: Logout, Pattern: "/logout"},
	{Name: Health, Pattern: "/healthz"},
	{Name: Dashboard, Pattern: "/dashboard", Protected: true},
	{Name: Assignment, Pattern: "/assignments/:id", Protected: true},
	{Name: Submit, Pattern: "/assignments/:id/submit", Protected: true},
	{Name: TeacherDashboard, Pattern: "/teacher-dashboard", Protected: true},
	{Name: AssignmentGrading, Pattern: "/teacher-dashboard/assignments/:id/submissions", Protected: true},
}

// Decision is the outcome of Resolve. Redirect is empty when the page may be shown.
type Decision struct {
	Route    *Route
	Redirect string
	Params   map[string]string
}

func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Resolve matches path against the route table.
// Unknown paths and protected routes without authentication redirect to the login page.
func Resolve(path string, authenticated bool) Decision {
	path = normalize(path)
	for i := range Routes {
		r := &Routes[i]
		params, ok := match(r.Pattern, path)
		if !ok {
			continue
		}
		if r.Protected && !authenticated {
			return Decision{Route: r, Redirect: LoginPath, Params: params}
		}
		return Decision{Route: r, Params: params}
	}
	return Decision{Redirect: LoginPath}
}

// Path builds the path of a route from its pattern, substituting params in order.
func Path(name string, params ...string) string {
	for _, r := range Routes {
		if r.Name != name {
			continue
		}
		segs := strings.Split(r.Pattern, "/")
		for i, seg := range segs {
			if strings.HasPrefix(seg, ":") && len(params) > 0 {
				segs[i], params = params[0], params[1:]
			}
		}
		return strings.Join(segs, "/")
	}
	return LoginPath
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}

func match(pattern, path string) (map[string]string, bool) {
	pSegs := strings.Split(pattern, "/")
	segs := strings.Split(path, "/")
	if len(pSegs) != len(segs) {
		return nil, false
	}
	var params map[string]string
	for i, p := range pSegs {
		if strings.HasPrefix(p, ":") {
			if segs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[p[1:]] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, false
		}
	}
	return params, true
}
