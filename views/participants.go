package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/Dosada05/bracket-manager/services"
)

type ParticipantModalData struct {
	Name         string
	Seeding      string
	TournamentID *int
	Errors       services.ValidationErrors
}

// ParticipantModal renders the quick-create form shown in the modal dialog.
func ParticipantModal(data ParticipantModalData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<form id="bracket-manager-participant-modal-form" class="bracket-manager-participant-modal" method="post" action="`, services.ParticipantModalURL, `">`); err != nil {
			return err
		}
		if data.TournamentID != nil {
			if err := write(w, `<input type="hidden" name="tournament_id" value="`, strconv.Itoa(*data.TournamentID), `">`); err != nil {
				return err
			}
		}
		for _, field := range []string{"name", "seeding"} {
			if msg, ok := data.Errors[field]; ok {
				if err := write(w, `<div class="messages messages--error">`, esc(msg), `</div>`); err != nil {
					return err
				}
			}
		}
		return write(w,
			`<div class="form-item"><label for="edit-participant-name" class="form-required">Name</label>`,
			`<input type="text" id="edit-participant-name" name="name" value="`, esc(data.Name), `" required></div>`,
			`<div class="form-item"><label for="edit-seeding">Seeding</label>`,
			`<input type="number" id="edit-seeding" name="seeding" min="0" value="`, esc(data.Seeding), `">`,
			`<div class="description">Numeric seeding value. Lower numbers are seeded earlier.</div></div>`,
			`<div class="form-actions"><button type="submit" class="button button--primary">Save participant</button></div></form>`)
	})
}
