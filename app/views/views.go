// Package views renders the site's HTML pages from embedded templates.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"
	"time"
)

//go:embed templates
var embedded embed.FS

// Pages lists every renderable page. Each is parsed together with the layout
// and all partials.
var Pages = []string{
	"index", "group", "profile", "post", "new_post", "follow",
	"login", "signup", "logged_out", "flatpage", "404", "500",
}

// Renderer executes named page templates.
type Renderer struct {
	pages    map[string]*template.Template
	mediaURL string
}

// New parses the embedded templates. mediaURL prefixes image paths.
func New(mediaURL string) (*Renderer, error) {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}
	return NewFromFS(sub, mediaURL)
}

// NewFromFS parses templates laid out as layouts/, partials/ and pages/ in fsys.
func NewFromFS(fsys fs.FS, mediaURL string) (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(Pages)), mediaURL: mediaURL}

	shared, err := template.New("").Funcs(r.funcs()).ParseFS(fsys, "layouts/*.html", "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse shared templates: %w", err)
	}
	for _, name := range Pages {
		t, err := shared.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(fsys, "pages/"+name+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes page name to w. The page is buffered first so a template
// error never leaves a half-written response.
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"media": func(name string) string {
			return path.Join(r.mediaURL, name)
		},
		"date": func(t time.Time) string {
			return t.Format("2 January 2006 15:04")
		},
		"linebreaks": linebreaks,
		"trusted": func(s string) template.HTML {
			return template.HTML(s)
		},
		"pageURL": func(n int) string {
			return "?" + url.Values{"page": {fmt.Sprint(n)}}.Encode()
		},
		"truncate": func(n int, s string) string {
			runes := []rune(s)
			if len(runes) <= n {
				return s
			}
			return string(runes[:n]) + "…"
		},
	}
}

// linebreaks escapes s and turns newlines into <br>.
func linebreaks(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>\n"))
}
