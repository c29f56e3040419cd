package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/Dosada05/bracket-manager/services"
)

// BracketView renders one container per row of a bracket listing.
func BracketView(build services.BracketViewBuild) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(build.Rows) == 0 {
			return write(w, `<p class="view-empty">No tournaments to show.</p>`)
		}
		if err := write(w, `<div class="view view-`, esc(build.View.ID), `">`); err != nil {
			return err
		}
		for _, row := range build.Rows {
			if err := write(w, `<div class="views-row"><h2>`, esc(row.Name), `</h2>`,
				`<div`, classAttr(row.Classes), ` id="`, esc(row.ElementID), `" data-view-id="`, esc(row.ViewID),
				`" data-bracket-viewer-id="`, esc(row.BracketID), `">`, row.FallbackHTML, `</div></div>`); err != nil {
				return err
			}
		}
		return write(w, `</div>`)
	})
}
