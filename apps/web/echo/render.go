package echoweb

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/auth"
	"github.com/trezcool/gradebook/core/route"
)

//go:embed templates
var templatesFS embed.FS

const layoutTemplate = "templates/layout.html"

// renderer renders the pages under templates/pages, each inside the layout.
type renderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

var templateFuncs = template.FuncMap{
	"path": route.Path,
}

func newRenderer() (*renderer, error) {
	files, err := fs.Glob(templatesFS, "templates/pages/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "listing page templates")
	}
	r := &renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templatesFS, layoutTemplate, file)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", file)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("page %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// page is what every template gets.
type page struct {
	Title    string
	User     core.Identity
	LoggedIn bool
	Flash    string
	Error    string            // backend error to show inline
	Fields   map[string]string // validation errors by form field
	Data     interface{}
}

func newPage(ctx echo.Context, title string) *page {
	p := &page{Title: title}
	if st, err := ctxStore(ctx); err == nil {
		s := st.State()
		p.LoggedIn = s.Auth.Authenticated
		p.User = auth.ParseClaims(s.Auth.Token).Identity()
	}
	return p
}

// apiErrorMessage is the text shown for a failed backend call, "" if it did not fail.
func apiErrorMessage(err *core.APIError) string {
	if err == nil {
		return ""
	}
	return err.Message()
}
