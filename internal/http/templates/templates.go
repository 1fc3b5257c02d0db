// Package templates embeds the HTML pages and the stylesheet.
package templates

import (
	"embed"
	"html/template"
	"io/fs"
	"time"

	"taskboard/internal/domain"
)

//go:embed *.html
var pages embed.FS

//go:embed static
var static embed.FS

var funcs = template.FuncMap{
	"initials": domain.Initials,
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02/01/2006")
	},
	"datetime": func(t time.Time) string {
		return t.Format("02/01/2006 15:04")
	},
}

// Load parses every page; each file is addressed by its file name.
func Load() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(pages, "*.html")
}

// Static is the /static file tree.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
