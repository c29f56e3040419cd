// Package views renders the HTML pages of the admin UI and the bracket
// listings as templ components.
package views

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

// Render writes component with the given status. The page is rendered into a
// buffer first so that a failing component does not leave half a page.
func Render(w http.ResponseWriter, r *http.Request, status int, component templ.Component) error {
	var buf bytes.Buffer
	if err := component.Render(r.Context(), &buf); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func esc(s string) string {
	return templ.EscapeString(s)
}

func write(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}

func classAttr(classes []string) string {
	return ` class="` + esc(strings.Join(classes, " ")) + `"`
}
