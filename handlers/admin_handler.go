package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/bracket-manager/middleware"
	"github.com/Dosada05/bracket-manager/models"
	"github.com/Dosada05/bracket-manager/services"
	"github.com/Dosada05/bracket-manager/views"
)

const flashCookieName = "bm_flash"

// AdminHandler serves the HTML pages: the tournament collection, the
// add/edit/delete forms, the participant modal and the bracket listings.
type AdminHandler struct {
	tournamentService  services.TournamentService
	participantService services.ParticipantService
	viewerService      services.ViewerService
	authService        services.AuthService
	assets             views.Assets
	jwtSecret          string
	logger             *slog.Logger
}

func NewAdminHandler(
	ts services.TournamentService,
	ps services.ParticipantService,
	vs services.ViewerService,
	as services.AuthService,
	assets views.Assets,
	jwtSecret string,
	logger *slog.Logger,
) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		tournamentService:  ts,
		participantService: ps,
		viewerService:      vs,
		authService:        as,
		assets:             assets,
		jwtSecret:          jwtSecret,
		logger:             logger,
	}
}

func (h *AdminHandler) page(w http.ResponseWriter, r *http.Request, title string) views.Page {
	return views.Page{
		Title:    title,
		Account:  accountFrom(r),
		Assets:   h.assets,
		Messages: popFlash(w, r),
	}
}

func (h *AdminHandler) render(w http.ResponseWriter, r *http.Request, status int, page views.Page, body templ.Component) {
	if err := views.Render(w, r, status, views.Layout(page, body)); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page", slog.String("path", r.URL.Path), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderError maps service errors to HTML error pages. Anonymous users are
// sent to the login form instead of getting "access denied".
func (h *AdminHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var title, text string
	switch {
	case errors.Is(err, services.ErrForbiddenOperation):
		if !accountFrom(r).IsAuthenticated() {
			http.Redirect(w, r, "/user/login?destination="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		status, title, text = http.StatusForbidden, "Access denied", "You are not authorized to access this page."
	case errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrParticipantNotFound),
		errors.Is(err, services.ErrViewNotFound),
		errors.Is(err, services.ErrNotFound):
		status, title, text = http.StatusNotFound, "Page not found", "The requested page could not be found."
	default:
		h.logger.ErrorContext(r.Context(), "internal server error", slog.String("path", r.URL.Path), slog.Any("error", err))
		status, title, text = http.StatusInternalServerError, "Error", "The website encountered an unexpected error. Try again later."
	}
	page := h.page(w, r, title)
	h.render(w, r, status, page, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<p>%s</p>`, templ.EscapeString(text))
		return err
	}))
}

func (h *AdminHandler) Collection(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		limit, offset = 50, 0
	}
	if r.URL.Query().Get("limit") == "" {
		limit = 50
	}
	list, err := h.viewerService.TournamentList(r.Context(), accountFrom(r), services.ListTournamentsFilter{Limit: limit, Offset: offset})
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, h.page(w, r, "Tournaments"), views.TournamentList(*list))
}

func (h *AdminHandler) Canonical(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.renderError(w, r, services.ErrNotFound)
		return
	}
	account := accountFrom(r)
	build, err := h.viewerService.TournamentPage(r.Context(), account, id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	access := services.TournamentAccess{}
	page := h.page(w, r, build.Tournament.Label())
	page.Libraries = build.Libraries
	page.Settings = build.Settings
	h.render(w, r, http.StatusOK, page, views.TournamentView(*build, views.TournamentTabs{
		CanEdit:   access.Access(account, services.OpUpdate).IsAllowed(),
		CanDelete: access.Access(account, services.OpDelete).IsAllowed(),
	}))
}

func (h *AdminHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	if !(services.TournamentAccess{}).CreateAccess(account).IsAllowed() {
		h.renderError(w, r, services.ErrForbiddenOperation)
		return
	}
	h.renderForm(w, r, http.StatusOK, "Add tournament", views.TournamentFormData{Action: services.TournamentAddURL})
}

func (h *AdminHandler) AddSubmit(w http.ResponseWriter, r *http.Request) {
	input, userEdited, err := parseTournamentForm(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	tournament, err := h.tournamentService.CreateTournament(r.Context(), accountFrom(r), input)
	if err != nil {
		h.formError(w, r, "Add tournament", services.TournamentAddURL, 0, input, userEdited, err)
		return
	}
	setFlash(w, services.TournamentSavedMessage(tournament, true))
	http.Redirect(w, r, services.TournamentCollectionURL, http.StatusSeeOther)
}

func (h *AdminHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.renderError(w, r, services.ErrNotFound)
		return
	}
	account := accountFrom(r)
	if !(services.TournamentAccess{}).Access(account, services.OpUpdate).IsAllowed() {
		h.renderError(w, r, services.ErrForbiddenOperation)
		return
	}
	tournament, err := h.tournamentService.GetTournament(r.Context(), account, id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, "Edit "+tournament.Label(), views.TournamentFormData{
		Tournament: tournament,
		Selected:   tournament.ParticipantIDs,
		Action:     services.TournamentEditURL(id),
		UserEdited: tournament.BracketData != "",
	})
}

func (h *AdminHandler) EditSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.renderError(w, r, services.ErrNotFound)
		return
	}
	input, userEdited, err := parseTournamentForm(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	tournament, err := h.tournamentService.UpdateTournament(r.Context(), accountFrom(r), id, input)
	if err != nil {
		h.formError(w, r, "Edit tournament", services.TournamentEditURL(id), id, input, userEdited, err)
		return
	}
	setFlash(w, services.TournamentSavedMessage(tournament, false))
	http.Redirect(w, r, services.TournamentCollectionURL, http.StatusSeeOther)
}

func (h *AdminHandler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.renderError(w, r, services.ErrNotFound)
		return
	}
	account := accountFrom(r)
	if !(services.TournamentAccess{}).Access(account, services.OpDelete).IsAllowed() {
		h.renderError(w, r, services.ErrForbiddenOperation)
		return
	}
	tournament, err := h.tournamentService.GetTournament(r.Context(), account, id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, h.page(w, r, views.DeleteConfirmTitle(tournament)), views.DeleteConfirm(tournament))
}

func (h *AdminHandler) DeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.renderError(w, r, services.ErrNotFound)
		return
	}
	tournament, err := h.tournamentService.DeleteTournament(r.Context(), accountFrom(r), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	setFlash(w, services.TournamentDeletedMessage(tournament))
	http.Redirect(w, r, services.TournamentCollectionURL, http.StatusSeeOther)
}

// ParticipantModal отдаёт форму быстрого создания участника. Для AJAX-запроса
// возвращается только фрагмент формы.
func (h *AdminHandler) ParticipantModal(w http.ResponseWriter, r *http.Request) {
	if !(services.ParticipantAccess{}).QuickCreateAccess(accountFrom(r)).IsAllowed() {
		h.renderError(w, r, services.ErrForbiddenOperation)
		return
	}
	data := views.ParticipantModalData{}
	if id, err := parseOptionalIntQuery(r, "tournament_id"); err == nil {
		data.TournamentID = id
	}
	h.renderModal(w, r, http.StatusOK, data)
}

func (h *AdminHandler) ParticipantModalSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	data := views.ParticipantModalData{
		Name:    r.PostForm.Get("name"),
		Seeding: strings.TrimSpace(r.PostForm.Get("seeding")),
	}
	input := services.QuickParticipantInput{Name: data.Name}
	if raw := r.PostForm.Get("tournament_id"); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil && id > 0 {
			input.TournamentID = &id
			data.TournamentID = &id
		}
	}
	if data.Seeding != "" {
		seeding, err := strconv.Atoi(data.Seeding)
		if err != nil {
			data.Errors = services.ValidationErrors{"seeding": "Seeding must be a number."}
			h.modalError(w, r, data)
			return
		}
		input.Seeding = &seeding
	}

	result, err := h.participantService.QuickCreate(r.Context(), accountFrom(r), input)
	if err != nil {
		var verrs services.ValidationErrors
		if errors.As(err, &verrs) {
			data.Errors = verrs
			h.modalError(w, r, data)
			return
		}
		if isAjax(r) {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		h.renderError(w, r, err)
		return
	}

	status := fmt.Sprintf("Created participant %s.", result.Participant.Label())
	if isAjax(r) {
		response := jsonResponse{
			"participant": result.Participant,
			"option_html": result.OptionHTML,
			"message":     result.Message,
			"status":      status,
		}
		if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}
	setFlash(w, status)
	http.Redirect(w, r, services.ParticipantModalURL, http.StatusSeeOther)
}

func (h *AdminHandler) modalError(w http.ResponseWriter, r *http.Request, data views.ParticipantModalData) {
	if isAjax(r) {
		var sb strings.Builder
		if err := views.ParticipantModal(data).Render(r.Context(), &sb); err != nil {
			serverErrorResponse(w, r, err)
			return
		}
		response := jsonResponse{"error": data.Errors, "form_html": sb.String()}
		if err := writeJSON(w, http.StatusUnprocessableEntity, response, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}
	h.renderModal(w, r, http.StatusUnprocessableEntity, data)
}

func (h *AdminHandler) renderModal(w http.ResponseWriter, r *http.Request, status int, data views.ParticipantModalData) {
	if isAjax(r) {
		if err := views.Render(w, r, status, views.ParticipantModal(data)); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}
	h.render(w, r, status, h.page(w, r, "Add participant"), views.ParticipantModal(data))
}

func (h *AdminHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, title string, data views.TournamentFormData) {
	options, err := h.participantService.SelectableParticipants(r.Context(), accountFrom(r))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	data.Options = options
	page := h.page(w, r, title)
	page.Libraries = []string{services.LibraryBracketForm}
	if len(data.Errors) > 0 {
		page.Messages = append(page.Messages, views.Message{Type: views.MessageError, Text: "The form contains errors."})
	}
	h.render(w, r, status, page, views.TournamentForm(data))
}

func (h *AdminHandler) formError(w http.ResponseWriter, r *http.Request, title, action string, id int, input services.TournamentInput, userEdited bool, err error) {
	var verrs services.ValidationErrors
	switch {
	case errors.As(err, &verrs):
	case errors.Is(err, services.ErrTournamentInvalidParticipant):
		verrs = services.ValidationErrors{"reference": "One of the selected participants no longer exists."}
	default:
		h.renderError(w, r, err)
		return
	}
	active := input.Active == nil || *input.Active
	h.renderForm(w, r, http.StatusUnprocessableEntity, title, views.TournamentFormData{
		Tournament: &models.Tournament{
			ID:          id,
			Name:        input.Name,
			Description: input.Description,
			BracketData: input.BracketData,
			Active:      active,
		},
		Selected:   input.ParticipantIDs,
		Errors:     verrs,
		Action:     action,
		UserEdited: userEdited,
	})
}

// BracketViewPage renders a configured bracket listing.
func (h *AdminHandler) BracketViewPage(w http.ResponseWriter, r *http.Request) {
	build, err := h.viewerService.RenderView(r.Context(), accountFrom(r), chi.URLParam(r, "viewID"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	page := h.page(w, r, build.View.Title)
	page.Libraries = build.Libraries
	page.Settings = build.Settings
	h.render(w, r, http.StatusOK, page, views.BracketView(*build))
}

func (h *AdminHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, h.page(w, r, "Log in"), views.Login("", safeDestination(r.URL.Query().Get("destination"))))
}

func (h *AdminHandler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	email := r.PostForm.Get("email")
	destination := safeDestination(r.PostForm.Get("destination"))

	user, err := h.authService.Login(r.Context(), services.LoginInput{Email: email, Password: r.PostForm.Get("password")})
	if err != nil {
		if !errors.Is(err, services.ErrAuthInvalidCredentials) {
			h.renderError(w, r, err)
			return
		}
		page := h.page(w, r, "Log in")
		page.Messages = append(page.Messages, views.Message{Type: views.MessageError, Text: "Unrecognized email or password."})
		h.render(w, r, http.StatusUnauthorized, page, views.Login(email, destination))
		return
	}

	token, err := middleware.IssueToken(h.jwtSecret, user, tokenTTL)
	if err != nil {
		h.renderError(w, r, fmt.Errorf("failed to sign token: %w", err))
		return
	}
	setTokenCookie(w, r, token)
	http.Redirect(w, r, destination, http.StatusSeeOther)
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	clearTokenCookie(w)
	http.Redirect(w, r, "/user/login", http.StatusSeeOther)
}

func parseTournamentForm(r *http.Request) (services.TournamentInput, bool, error) {
	if err := r.ParseForm(); err != nil {
		return services.TournamentInput{}, false, err
	}
	form := r.PostForm
	input := services.TournamentInput{
		Name:        form.Get("name"),
		BracketData: form.Get("bracket_data"),
	}
	if description := form.Get("description"); description != "" {
		input.Description = &description
	}
	// Снятый чекбокс не отправляется, поэтому active задаём явно.
	active := form.Get("active") == "1" || form.Get("active") == "on"
	input.Active = &active
	for _, raw := range form["participants"] {
		if raw == "" || raw == "_none" {
			continue
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			return input, false, services.ValidationErrors{"participant_ids": "Participant references must be positive ids."}
		}
		input.ParticipantIDs = append(input.ParticipantIDs, id)
	}
	return input, form.Get("user_edited") == "1", nil
}

func isAjax(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// safeDestination allows only local redirects. Browsers read "/\" as "//",
// so backslashes are rejected too.
func safeDestination(dest string) string {
	if !strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "//") || strings.Contains(dest, `\`) {
		return services.TournamentCollectionURL
	}
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return services.TournamentCollectionURL
	}
	return dest
}

func setFlash(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.URLEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending status message and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) []views.Message {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Value: "", Path: "/", MaxAge: -1})
	text, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	return []views.Message{{Type: views.MessageStatus, Text: string(text)}}
}
