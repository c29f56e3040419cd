package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-manager/brackets"
	"github.com/Dosada05/bracket-manager/handlers"
	"github.com/Dosada05/bracket-manager/middleware"
	"github.com/Dosada05/bracket-manager/models"
	"github.com/Dosada05/bracket-manager/repositories/memory"
	"github.com/Dosada05/bracket-manager/services"
	"github.com/Dosada05/bracket-manager/views"
)

const (
	testSecret        = "test-secret"
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "correct-horse"
)

type testApp struct {
	router http.Handler
	auth   services.AuthService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := memory.NewStore()
	hub := brackets.NewHub(logger)
	go hub.Run(ctx)

	authService := services.NewAuthService(store.Users(), logger)
	require.NoError(t, authService.EnsureAdmin(ctx, testAdminEmail, testAdminPassword))

	snapshots := services.NewSnapshotPublisher(nil, store.Tournaments(), logger)
	tournamentService := services.NewTournamentService(store.Tournaments(), store.Participants(), snapshots, hub, logger)
	participantService := services.NewParticipantService(store.Participants(), tournamentService, logger)
	viewerService := services.NewViewerService(tournamentService, participantService, services.DefaultViews(), logger)

	assets := views.Assets{ManagerURL: "https://esm.sh/brackets-manager@1.8.1?bundle"}
	h := Handlers{
		Auth:        handlers.NewAuthHandler(authService, testSecret),
		User:        handlers.NewUserHandler(authService),
		Tournament:  handlers.NewTournamentHandler(tournamentService, viewerService),
		Participant: handlers.NewParticipantHandler(participantService),
		Views:       handlers.NewViewsHandler(viewerService),
		WebSocket:   handlers.NewWebSocketHandler(hub, tournamentService, nil, logger),
		Admin:       handlers.NewAdminHandler(tournamentService, participantService, viewerService, authService, assets, testSecret, logger),
	}

	router := chi.NewRouter()
	SetupRoutes(router, h, middleware.NewAuthenticator(testSecret, false, logger), []string{"http://localhost:3000"})
	return &testApp{router: router, auth: authService}
}

func (a *testApp) token(t *testing.T, role models.UserRole) string {
	t.Helper()
	ctx := context.Background()
	admin, err := a.auth.Login(ctx, services.LoginInput{Email: testAdminEmail, Password: testAdminPassword})
	require.NoError(t, err)
	user := admin
	if role != models.RoleAdmin {
		user, err = a.auth.CreateUser(ctx, models.NewAccount(admin.ID, models.RoleAdmin), services.CreateUserInput{
			Email:    fmt.Sprintf("%s-%d@example.com", role, time.Now().UnixNano()),
			Name:     string(role),
			Password: "long-enough-password",
			Role:     role,
		})
		require.NoError(t, err)
	}
	token, err := middleware.IssueToken(testSecret, user, time.Hour)
	require.NoError(t, err)
	return token
}

func (a *testApp) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) postForm(t *testing.T, target, token string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.TokenCookieName, Value: token})
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginAPI(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": testAdminEmail, "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": testAdminEmail, "password": testAdminPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, rec, &body)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, testAdminEmail, body.User.Email)
	assert.NotNil(t, findCookie(rec, middleware.TokenCookieName))

	rec = app.do(t, http.MethodGet, "/api/auth/me", body.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTournamentAPIFlow(t *testing.T) {
	app := newTestApp(t)
	admin := app.token(t, models.RoleAdmin)

	var ids []int
	for _, p := range []struct {
		name   string
		weight int
	}{{"Bears", 2}, {"Lions", 0}, {"Tigers", 2}} {
		rec := app.do(t, http.MethodPost, "/api/participants", admin, map[string]any{"name": p.name, "weight": p.weight})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var body struct {
			Participant models.Participant `json:"participant"`
		}
		decode(t, rec, &body)
		ids = append(ids, body.Participant.ID)
	}

	rec := app.do(t, http.MethodPost, "/api/tournaments", admin, map[string]any{
		"name":            "Spring Cup",
		"bracket_data":    `{"stages":[]}`,
		"participant_ids": ids,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Tournament models.Tournament `json:"tournament"`
		Message    string            `json:"message"`
	}
	decode(t, rec, &created)
	assert.Equal(t, "Created tournament Spring Cup.", created.Message)
	assert.True(t, created.Tournament.Active)

	rec = app.do(t, http.MethodGet, fmt.Sprintf("/api/tournaments/%d", created.Tournament.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Tournament models.Tournament `json:"tournament"`
	}
	decode(t, rec, &got)
	assert.Equal(t, ids, got.Tournament.ParticipantIDs)
	assert.Equal(t, []string{"Lions", "Bears", "Tigers"}, got.Tournament.ParticipantNames())
	assert.Equal(t, `{"stages":[]}`, got.Tournament.BracketData)

	rec = app.do(t, http.MethodGet, "/api/tournaments", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		List services.TournamentList `json:"list"`
	}
	decode(t, rec, &list)
	assert.Equal(t, []string{"Title", "Active", "Updated", "Operations"}, list.List.Header)
	require.Len(t, list.List.Rows, 1)
	assert.Equal(t, "Yes", list.List.Rows[0].Active)

	rec = app.do(t, http.MethodGet, fmt.Sprintf("/api/tournaments/%d/viewer", created.Tournament.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var viewer struct {
		Settings services.ClientSettings `json:"settings"`
	}
	decode(t, rec, &viewer)
	settings := viewer.Settings.BracketManager.Tournaments[fmt.Sprint(created.Tournament.ID)]
	assert.Equal(t, "Spring Cup", settings.Name)
	assert.Equal(t, []string{"Lions", "Bears", "Tigers"}, settings.Participants)

	rec = app.do(t, http.MethodDelete, fmt.Sprintf("/api/tournaments/%d", created.Tournament.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "The tournament Spring Cup has been deleted.")

	rec = app.do(t, http.MethodGet, fmt.Sprintf("/api/tournaments/%d", created.Tournament.ID), admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTournamentAPIAccess(t *testing.T) {
	app := newTestApp(t)
	editor := app.token(t, models.RoleEditor)
	viewer := app.token(t, models.RoleViewer)

	tests := []struct {
		name   string
		method string
		target string
		token  string
		body   any
		want   int
	}{
		{"anonymous list", http.MethodGet, "/api/tournaments", "", nil, http.StatusUnauthorized},
		{"viewer list", http.MethodGet, "/api/tournaments", viewer, nil, http.StatusOK},
		{"viewer create", http.MethodPost, "/api/tournaments", viewer, map[string]any{"name": "X"}, http.StatusForbidden},
		{"editor create", http.MethodPost, "/api/tournaments", editor, map[string]any{"name": "X"}, http.StatusCreated},
		{"editor empty name", http.MethodPost, "/api/tournaments", editor, map[string]any{"name": "  "}, http.StatusUnprocessableEntity},
		{"editor unknown participant", http.MethodPost, "/api/tournaments", editor, map[string]any{"name": "X", "participant_ids": []int{999}}, http.StatusUnprocessableEntity},
		{"editor participant crud", http.MethodPost, "/api/participants", editor, map[string]any{"name": "P"}, http.StatusForbidden},
		{"editor quick create", http.MethodPost, "/api/participants/quick", editor, map[string]any{"name": "P"}, http.StatusCreated},
		{"viewer quick create", http.MethodPost, "/api/participants/quick", viewer, map[string]any{"name": "P"}, http.StatusForbidden},
		{"invalid bearer", http.MethodGet, "/api/tournaments", "garbage", nil, http.StatusUnauthorized},
		{"unknown view", http.MethodGet, "/api/views/missing", viewer, nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, tt.method, tt.target, tt.token, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestPreviewAPI(t *testing.T) {
	app := newTestApp(t)
	editor := app.token(t, models.RoleEditor)

	rec := app.do(t, http.MethodPost, "/api/tournaments/preview", editor, map[string]any{
		"participants": []string{"A", "B"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result services.PreviewResult
	decode(t, rec, &result)
	assert.True(t, result.Prefilled)
	assert.Equal(t, "Teams: 2", result.Summary)

	rec = app.do(t, http.MethodPost, "/api/tournaments/preview", editor, map[string]any{
		"participants": []string{"A"},
		"bracket_data": "{broken",
		"user_edited":  true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &result)
	assert.True(t, strings.HasPrefix(result.Error, "Invalid JSON in bracket data: "))
}

func TestAdminRequiresLogin(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/admin/structure/tournaments/add", "", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/user/login?destination="+url.QueryEscape("/admin/structure/tournaments/add"), rec.Header().Get("Location"))

	rec = app.do(t, http.MethodGet, "/user/login", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminLoginForm(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm(t, "/user/login", "", url.Values{"email": {testAdminEmail}, "password": {"nope"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unrecognized email or password.")

	rec = app.postForm(t, "/user/login", "", url.Values{
		"email":       {testAdminEmail},
		"password":    {testAdminPassword},
		"destination": {"/views/tournament_brackets"},
	}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/views/tournament_brackets", rec.Header().Get("Location"))
	assert.NotNil(t, findCookie(rec, middleware.TokenCookieName))
}

func TestLoginKeepsRedirectLocal(t *testing.T) {
	app := newTestApp(t)

	for _, destination := range []string{
		"//evil.example",
		`/\evil.example`,
		`/\/evil.example`,
		"https://evil.example/",
		"evil.example",
	} {
		t.Run(destination, func(t *testing.T) {
			rec := app.postForm(t, "/user/login", "", url.Values{
				"email":       {testAdminEmail},
				"password":    {testAdminPassword},
				"destination": {destination},
			}, nil)
			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, services.TournamentCollectionURL, rec.Header().Get("Location"))
		})
	}
}

func TestAdminTournamentForms(t *testing.T) {
	app := newTestApp(t)
	admin := app.token(t, models.RoleAdmin)

	rec := app.postForm(t, "/admin/structure/tournaments/participant-modal", admin,
		url.Values{"name": {"Falcons"}, "seeding": {"1"}},
		map[string]string{"X-Requested-With": "XMLHttpRequest"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var quick struct {
		Participant models.Participant `json:"participant"`
		OptionHTML  string             `json:"option_html"`
		Message     string             `json:"message"`
	}
	decode(t, rec, &quick)
	assert.Equal(t, services.QuickCreateNotice, quick.Message)
	assert.Contains(t, quick.OptionHTML, "Falcons")

	rec = app.postForm(t, "/admin/structure/tournaments/participant-modal", admin,
		url.Values{"name": {""}, "seeding": {"-1"}},
		map[string]string{"X-Requested-With": "XMLHttpRequest"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "form_html")

	rec = app.postForm(t, "/admin/structure/tournaments/add", admin, url.Values{
		"name":         {"Summer Open"},
		"participants": {fmt.Sprint(quick.Participant.ID)},
		"bracket_data": {""},
		"active":       {"1"},
	}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, services.TournamentCollectionURL, rec.Header().Get("Location"))
	flash := findCookie(rec, "bm_flash")
	require.NotNil(t, flash)

	req := httptest.NewRequest(http.MethodGet, services.TournamentCollectionURL, nil)
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookieName, Value: admin})
	req.AddCookie(flash)
	page := httptest.NewRecorder()
	app.router.ServeHTTP(page, req)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Created tournament Summer Open.")
	assert.Contains(t, page.Body.String(), "Summer Open")

	rec = app.postForm(t, "/admin/structure/tournaments/add", admin, url.Values{"name": {""}}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "The form contains errors.")
}

func TestBracketViewPage(t *testing.T) {
	app := newTestApp(t)
	admin := app.token(t, models.RoleAdmin)

	rec := app.do(t, http.MethodPost, "/api/tournaments", admin, map[string]any{
		"name":         "Final Four",
		"bracket_data": `{"stages":[{"id":0}]}`,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/views/tournament_brackets", nil)
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookieName, Value: admin})
	page := httptest.NewRecorder()
	app.router.ServeHTTP(page, req)
	require.Equal(t, http.StatusOK, page.Code)
	body := page.Body.String()
	assert.Contains(t, body, "brackets-viewer js-brackets-viewer")
	assert.Contains(t, body, `Loading bracket for <em class="placeholder">Final Four</em>`)
	assert.Contains(t, body, "/static/js/views-bracket-viewer.js")
}

func TestStaticAssets(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/static/js/tournament-form.js", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "brackets-manager.js could not be loaded. You can still save the tournament.")

	rec = app.do(t, http.MethodGet, "/static/js/missing.js", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
