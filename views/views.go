// Package views holds the server-rendered pages.
package views

import (
	"embed"
	"html/template"
	"strconv"
	"time"

	"github.com/memorybook/memorybook/utils"
)

//go:embed templates/*.html
var files embed.FS

// FuncMap is shared by every page.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"multiline": utils.Multiline,
		"date": func(t time.Time) string {
			return t.Local().Format("Jan 2, 2006")
		},
		"selected": func(current string, year int) bool {
			return current != "" && current == strconv.Itoa(year)
		},
	}
}

// Templates parses all pages. Each page is addressed by its file name, e.g. "form.html".
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(FuncMap()).ParseFS(files, "templates/*.html"))
}
