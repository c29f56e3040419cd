package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/Dosada05/bracket-manager/models"
	"github.com/Dosada05/bracket-manager/services"
)

const settingsScriptID = "bracket-manager-settings"

// Message types.
const (
	MessageStatus  = "status"
	MessageWarning = "warning"
	MessageError   = "error"
)

type Message struct {
	Type string
	Text string
}

// Assets: адреса внешних библиотек из конфигурации.
type Assets struct {
	ManagerURL   string
	ViewerJSURL  string
	ViewerCSSURL string
}

type Page struct {
	Title     string
	Messages  []Message
	Account   models.Account
	Assets    Assets
	Libraries []string
	Settings  services.ClientSettings
}

func (p Page) hasLibrary(name string) bool {
	for _, l := range p.Libraries {
		if l == name {
			return true
		}
	}
	return false
}

// Layout wraps body in the page chrome, renders the client settings and the
// scripts of the attached libraries.
func Layout(page Page, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		settings := page.Settings
		settings.Merge(services.ClientSettings{BracketManager: services.BracketManagerSettings{
			Libraries: &services.LibrarySettings{
				ManagerURL:   page.Assets.ManagerURL,
				ViewerJSURL:  page.Assets.ViewerJSURL,
				ViewerCSSURL: page.Assets.ViewerCSSURL,
				LiveUpdates:  "/ws/tournaments/",
			},
		}})

		if err := write(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`, esc(page.Title), ` | Bracket manager</title>`,
			`<link rel="stylesheet" href="/static/css/bracket-manager.css">`); err != nil {
			return err
		}
		if page.hasLibrary(services.LibraryViewsBracketViewer) && page.Assets.ViewerCSSURL != "" {
			if err := write(w, `<link rel="stylesheet" href="`, esc(page.Assets.ViewerCSSURL), `">`); err != nil {
				return err
			}
		}
		if err := write(w, `</head><body>`); err != nil {
			return err
		}
		if err := navigation(page.Account).Render(ctx, w); err != nil {
			return err
		}
		if err := write(w, `<main class="page"><h1 class="page-title">`, esc(page.Title), `</h1>`); err != nil {
			return err
		}
		if err := messages(page.Messages).Render(ctx, w); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		if err := write(w, `</main>`); err != nil {
			return err
		}
		if err := templ.JSONScript(settingsScriptID, settings).Render(ctx, w); err != nil {
			return err
		}
		if err := scripts(page).Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</body></html>`)
	})
}

func navigation(account models.Account) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<nav class="toolbar"><a href="`, services.TournamentCollectionURL, `">Tournaments</a>`,
			` <a href="/views/tournament_brackets">Brackets</a>`); err != nil {
			return err
		}
		if account.IsAuthenticated() {
			return write(w, ` <form class="toolbar__logout" method="post" action="/user/logout"><button type="submit">Log out</button></form></nav>`)
		}
		return write(w, ` <a href="/user/login">Log in</a></nav>`)
	})
}

func messages(list []Message) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, m := range list {
			if err := write(w, `<div class="messages messages--`, esc(m.Type), `" role="contentinfo">`, esc(m.Text), `</div>`); err != nil {
				return err
			}
		}
		return nil
	})
}

func scripts(page Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<script src="/static/js/bracket-manager.js"></script>`); err != nil {
			return err
		}
		if page.hasLibrary(services.LibraryBracketForm) {
			if err := write(w, `<script src="/static/js/tournament-form.js" defer></script>`); err != nil {
				return err
			}
		}
		if page.hasLibrary(services.LibraryBracketViewer) {
			if err := write(w, `<script src="/static/js/tournament-viewer.js" defer></script>`); err != nil {
				return err
			}
		}
		if page.hasLibrary(services.LibraryViewsBracketViewer) {
			if page.Assets.ViewerJSURL != "" {
				if err := write(w, `<script src="`, esc(page.Assets.ViewerJSURL), `" defer></script>`); err != nil {
					return err
				}
			}
			if err := write(w, `<script src="/static/js/views-bracket-viewer.js" defer></script>`); err != nil {
				return err
			}
		}
		return nil
	})
}
