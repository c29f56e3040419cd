package views

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/Dosada05/bracket-manager/models"
	"github.com/Dosada05/bracket-manager/services"
)

// TournamentList renders the collection table.
func TournamentList(list services.TournamentList) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if list.CanAdd {
			if err := write(w, `<ul class="action-links"><li><a class="button button--primary" href="`, esc(list.AddURL), `">Add tournament</a></li></ul>`); err != nil {
				return err
			}
		}
		if err := write(w, `<table class="tournament-list"><thead><tr>`); err != nil {
			return err
		}
		for _, h := range list.Header {
			if err := write(w, `<th>`, esc(h), `</th>`); err != nil {
				return err
			}
		}
		if err := write(w, `</tr></thead><tbody>`); err != nil {
			return err
		}
		if len(list.Rows) == 0 {
			if err := write(w, `<tr><td colspan="`, strconv.Itoa(len(list.Header)), `" class="empty message">`, esc(list.Empty), `</td></tr>`); err != nil {
				return err
			}
		}
		for _, row := range list.Rows {
			if err := write(w, `<tr><td><a href="`, esc(row.URL), `">`, esc(row.Name), `</a></td>`,
				`<td>`, esc(row.Active), `</td><td>`, esc(row.Changed), `</td><td><ul class="dropbutton">`); err != nil {
				return err
			}
			for _, op := range row.Operations {
				if err := write(w, `<li><a href="`, esc(op.URL), `">`, esc(op.Title), `</a></li>`); err != nil {
					return err
				}
			}
			if err := write(w, `</ul></td></tr>`); err != nil {
				return err
			}
		}
		return write(w, `</tbody></table>`)
	})
}

// TournamentTabs are the local tasks shown above a tournament.
type TournamentTabs struct {
	CanEdit   bool
	CanDelete bool
}

// TournamentView renders the canonical page with the viewer container.
func TournamentView(build services.TournamentViewBuild, tabs TournamentTabs) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t := build.Tournament
		if err := write(w, `<ul class="tabs"><li><a href="`, services.TournamentURL(t.ID), `">View</a></li>`); err != nil {
			return err
		}
		if tabs.CanEdit {
			if err := write(w, `<li><a href="`, services.TournamentEditURL(t.ID), `">Edit</a></li>`); err != nil {
				return err
			}
		}
		if tabs.CanDelete {
			if err := write(w, `<li><a href="`, services.TournamentDeleteURL(t.ID), `">Delete</a></li>`); err != nil {
				return err
			}
		}
		if err := write(w, `</ul><article class="tournament">`); err != nil {
			return err
		}
		if t.Description != nil {
			if err := write(w, `<div class="tournament__description">`, esc(*t.Description), `</div>`); err != nil {
				return err
			}
		}
		if err := write(w, `<div class="tournament__active">Active: `, yesNo(t.Active), `</div>`,
			`<div`, classAttr(build.Classes), ` data-tournament-id="`, esc(build.TournamentID), `">`,
			`<div class="bracket-manager-viewer__canvas"></div></div></article>`); err != nil {
			return err
		}
		return nil
	})
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// TournamentFormData is the state of the add/edit form.
type TournamentFormData struct {
	Tournament *models.Tournament
	// Selected holds the referenced participant ids in reference order.
	Selected []int
	Options  []models.Participant
	Errors   services.ValidationErrors
	Action   string
	// UserEdited marks the bracket field as edited so the browser does not prefill it.
	UserEdited bool
}

func (f TournamentFormData) fieldError(name string) string {
	if msg, ok := f.Errors[name]; ok {
		return `<div class="form-item--error-message">` + esc(msg) + `</div>`
	}
	return ""
}

// TournamentForm renders the add/edit form with the participant modal link and
// the live preview panel.
func TournamentForm(form TournamentFormData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t := form.Tournament
		if t == nil {
			t = &models.Tournament{Active: true}
		}
		description := ""
		if t.Description != nil {
			description = *t.Description
		}

		modalURL := services.ParticipantModalURL
		if t.ID > 0 {
			modalURL += "?tournament_id=" + strconv.Itoa(t.ID)
		}

		if err := write(w, `<form class="tournament-form" method="post" action="`, esc(form.Action), `" data-preview-url="/api/tournaments/preview">`,
			`<a href="`, esc(modalURL), `" class="button button--small use-ajax" data-dialog-type="modal" data-dialog-options="{&#34;width&#34;:600}">Add participant</a>`,
			`<div class="bracket-manager-participant-notice"></div>`,
			`<div class="form-item"><label for="edit-name" class="form-required">Title</label>`,
			`<input type="text" id="edit-name" name="name" value="`, esc(t.Name), `" maxlength="`, strconv.Itoa(models.MaxLabelLength), `" required>`,
			form.fieldError("name"), `</div>`,
			`<div class="form-item"><label for="edit-description">Description</label>`,
			`<textarea id="edit-description" name="description" rows="4">`, esc(description), `</textarea></div>`,
			`<div class="form-item"><label for="edit-participants">Participants</label>`,
			`<select id="edit-participants" name="participants" multiple size="8">`); err != nil {
			return err
		}
		if err := participantOptions(w, form.Selected, form.Options); err != nil {
			return err
		}
		userEdited := ""
		if form.UserEdited {
			userEdited = ` data-user-edited="1"`
		}
		if err := write(w, `</select>`, form.fieldError("participant_ids"), form.fieldError("reference"), `</div>`,
			`<div class="form-item"><label for="edit-bracket-data">Bracket data</label>`,
			`<textarea id="edit-bracket-data" name="bracket_data" rows="12"`, userEdited, `>`, esc(t.BracketData), `</textarea>`,
			`<div class="description">Raw JSON passed to brackets-viewer.js.</div></div>`,
			`<div class="bracket-manager-preview"><div class="bracket-manager-preview__canvas"></div>`,
			`<div class="description">Live preview generated from the participants and bracket data fields.</div></div>`,
			`<div class="form-item form-type-checkbox"><input type="checkbox" id="edit-active" name="active" value="1"`, checked(t.Active), `>`,
			`<label for="edit-active">Active</label></div>`,
			`<input type="hidden" name="user_edited" value="`, boolValue(form.UserEdited), `">`,
			`<div class="form-actions"><button type="submit" class="button button--primary">Save</button></div></form>`); err != nil {
			return err
		}
		return nil
	})
}

// participantOptions lists the selected participants first, in reference
// order, so that the submitted order matches the stored one.
func participantOptions(w io.Writer, selected []int, options []models.Participant) error {
	byID := make(map[int]models.Participant, len(options))
	for _, p := range options {
		byID[p.ID] = p
	}
	isSelected := make(map[int]bool, len(selected))
	for _, id := range selected {
		p, ok := byID[id]
		if !ok || isSelected[id] {
			continue
		}
		isSelected[id] = true
		if err := write(w, services.ParticipantOptionHTML(&p)); err != nil {
			return err
		}
	}
	for _, p := range options {
		if isSelected[p.ID] {
			continue
		}
		if err := write(w, `<option value="`, strconv.Itoa(p.ID), `">`, esc(p.Label()), `</option>`); err != nil {
			return err
		}
	}
	return nil
}

func checked(v bool) string {
	if v {
		return " checked"
	}
	return ""
}

func boolValue(v bool) string {
	if v {
		return "1"
	}
	return ""
}

// DeleteConfirm renders the delete confirmation form.
func DeleteConfirm(t *models.Tournament) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w, `<form class="confirmation" method="post" action="`, services.TournamentDeleteURL(t.ID), `">`,
			`<p>This action cannot be undone.</p>`,
			`<div class="form-actions"><button type="submit" class="button button--danger">Delete</button> `,
			`<a class="button" href="`, services.TournamentURL(t.ID), `">Cancel</a></div></form>`)
	})
}

// DeleteConfirmTitle is the title of the delete confirmation page.
func DeleteConfirmTitle(t *models.Tournament) string {
	return fmt.Sprintf("Are you sure you want to delete the tournament %s?", t.Label())
}
