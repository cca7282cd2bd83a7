package views

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page is the data every full page template receives.
type Page struct {
	Title    string
	Success  []string
	Errors   []string
	Username string
	Files    []string
	Keyword  string
}

// Embed is the data of the inline viewer.
type Embed struct {
	Source      string
	ContentType string
}

type Renderer struct {
	templates *template.Template
}

// funcs are available to every template. pathEscape makes a file name safe
// as a single URL path segment.
var funcs = template.FuncMap{
	"pathEscape": url.PathEscape,
}

func NewRenderer() (*Renderer, error) {
	t, err := template.New("views").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: t}, nil
}

// Render executes the named template into a buffer first so a template error
// never leaves a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded stylesheet and other assets.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
