package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Dosada05/bracket-manager/models"
)

// Browser libraries attached to rendered pages.
const (
	LibraryBracketForm        = "bracket_manager/bracket_form"
	LibraryBracketViewer      = "bracket_manager/bracket_viewer"
	LibraryViewsBracketViewer = "bracket_manager/views_bracket_viewer"
)

// ShortDateFormat is the layout of the "short" date format used in listings.
const ShortDateFormat = "01/02/2006 - 15:04"

const (
	TournamentCollectionURL = "/admin/structure/tournaments"
	TournamentAddURL        = "/admin/structure/tournaments/add"
	ParticipantModalURL     = "/admin/structure/tournaments/participant-modal"
)

func TournamentURL(id int) string       { return fmt.Sprintf("%s/%d", TournamentCollectionURL, id) }
func TournamentEditURL(id int) string   { return TournamentURL(id) + "/edit" }
func TournamentDeleteURL(id int) string { return TournamentURL(id) + "/delete" }

// ClientSettings is the JSON object handed to the browser scripts. It is
// rendered once per page under the "bracketManager" key.
type ClientSettings struct {
	BracketManager BracketManagerSettings `json:"bracketManager"`
}

type BracketManagerSettings struct {
	Libraries   *LibrarySettings                           `json:"libraries,omitempty"`
	Tournaments map[string]TournamentViewerSettings        `json:"tournaments,omitempty"`
	Views       map[string]map[string]BracketFieldSettings `json:"views,omitempty"`
}

// LibrarySettings tells the scripts where to load the third-party libraries.
type LibrarySettings struct {
	ManagerURL   string `json:"managerUrl"`
	ViewerJSURL  string `json:"viewerJsUrl,omitempty"`
	ViewerCSSURL string `json:"viewerCssUrl,omitempty"`
	LiveUpdates  string `json:"liveUpdates,omitempty"`
}

// Merge copies tournaments and views of other into s.
func (s *ClientSettings) Merge(other ClientSettings) {
	for id, t := range other.BracketManager.Tournaments {
		if s.BracketManager.Tournaments == nil {
			s.BracketManager.Tournaments = make(map[string]TournamentViewerSettings)
		}
		s.BracketManager.Tournaments[id] = t
	}
	for viewID, fields := range other.BracketManager.Views {
		if s.BracketManager.Views == nil {
			s.BracketManager.Views = make(map[string]map[string]BracketFieldSettings)
		}
		if s.BracketManager.Views[viewID] == nil {
			s.BracketManager.Views[viewID] = make(map[string]BracketFieldSettings)
		}
		for id, f := range fields {
			s.BracketManager.Views[viewID][id] = f
		}
	}
	if other.BracketManager.Libraries != nil {
		s.BracketManager.Libraries = other.BracketManager.Libraries
	}
}

// TournamentViewerSettings: данные для tournament-viewer.js.
type TournamentViewerSettings struct {
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
	Data         string   `json:"data"`
	DataURL      string   `json:"data_url,omitempty"`
}

// TournamentViewBuild describes the bracket container added to a tournament page.
type TournamentViewBuild struct {
	Tournament   *models.Tournament
	Classes      []string
	TournamentID string
	Libraries    []string
	Settings     ClientSettings
}

func BuildTournamentViewerSettings(t *models.Tournament) TournamentViewerSettings {
	settings := TournamentViewerSettings{
		Name:         t.Label(),
		Participants: t.ParticipantNames(),
		Data:         t.BracketData,
	}
	if t.SnapshotURL != nil {
		settings.DataURL = *t.SnapshotURL
	}
	return settings
}

// BuildTournamentView expects t.Participants to be loaded in seeding order.
func BuildTournamentView(t *models.Tournament) TournamentViewBuild {
	id := strconv.Itoa(t.ID)
	return TournamentViewBuild{
		Tournament:   t,
		Classes:      []string{"bracket-manager-viewer"},
		TournamentID: id,
		Libraries:    []string{LibraryBracketViewer},
		Settings: ClientSettings{BracketManager: BracketManagerSettings{
			Tournaments: map[string]TournamentViewerSettings{id: BuildTournamentViewerSettings(t)},
		}},
	}
}

type OperationLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type TournamentListRow struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	URL        string          `json:"url"`
	Active     string          `json:"active"`
	Changed    string          `json:"changed"`
	Operations []OperationLink `json:"operations"`
}

type TournamentList struct {
	Header []string            `json:"header"`
	Rows   []TournamentListRow `json:"rows"`
	Empty  string              `json:"empty"`
	CanAdd bool                `json:"can_add"`
	AddURL string              `json:"add_url,omitempty"`
}

// BuildTournamentList renders the tournament listing. Operation links are
// limited to what account may do; times are shown in loc.
func BuildTournamentList(account models.Account, tournaments []models.Tournament, loc *time.Location) TournamentList {
	if loc == nil {
		loc = time.Local
	}
	access := TournamentAccess{}
	list := TournamentList{
		Header: []string{"Title", "Active", "Updated", "Operations"},
		Rows:   make([]TournamentListRow, 0, len(tournaments)),
		Empty:  "There are no tournament entities yet.",
		CanAdd: access.CreateAccess(account).IsAllowed(),
	}
	if list.CanAdd {
		list.AddURL = TournamentAddURL
	}

	canUpdate := access.Access(account, OpUpdate).IsAllowed()
	canDelete := access.Access(account, OpDelete).IsAllowed()
	for _, t := range tournaments {
		row := TournamentListRow{
			ID:         t.ID,
			Name:       t.Label(),
			URL:        TournamentURL(t.ID),
			Active:     yesNo(t.Active),
			Changed:    t.ChangedAt.In(loc).Format(ShortDateFormat),
			Operations: []OperationLink{},
		}
		if canUpdate {
			row.Operations = append(row.Operations, OperationLink{Title: "Edit", URL: TournamentEditURL(t.ID)})
		}
		if canDelete {
			row.Operations = append(row.Operations, OperationLink{Title: "Delete", URL: TournamentDeleteURL(t.ID)})
		}
		list.Rows = append(list.Rows, row)
	}
	return list
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// Status messages shown after form submissions.
func TournamentSavedMessage(t *models.Tournament, created bool) string {
	if created {
		return fmt.Sprintf("Created tournament %s.", t.Label())
	}
	return fmt.Sprintf("Updated tournament %s.", t.Label())
}

func TournamentDeletedMessage(t *models.Tournament) string {
	return fmt.Sprintf("The tournament %s has been deleted.", t.Label())
}
