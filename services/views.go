package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/bracket-manager/models"
)

// ViewDefinition is a configured listing of tournaments rendered through the
// bracket field.
type ViewDefinition struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	ActiveOnly bool                `json:"active_only"`
	Limit      int                 `json:"limit"`
	Options    BracketFieldOptions `json:"options"`
}

// DefaultViews: встроенные представления.
func DefaultViews() map[string]ViewDefinition {
	return map[string]ViewDefinition{
		"tournament_brackets": {
			ID:         "tournament_brackets",
			Title:      "Tournament brackets",
			ActiveOnly: true,
			Limit:      50,
			Options:    DefaultBracketFieldOptions(),
		},
	}
}

type BracketViewBuild struct {
	View      ViewDefinition
	Rows      []BracketFieldBuild
	Libraries []string
	Settings  ClientSettings
}

const participantLoadConcurrency = 4

type ViewerService interface {
	TournamentPage(ctx context.Context, account models.Account, id int) (*TournamentViewBuild, error)
	TournamentList(ctx context.Context, account models.Account, filter ListTournamentsFilter) (*TournamentList, error)
	RenderView(ctx context.Context, account models.Account, viewID string) (*BracketViewBuild, error)
	Preview(ctx context.Context, account models.Account, input PreviewInput) (*PreviewResult, error)
}

type viewerService struct {
	tournaments  TournamentService
	participants ParticipantService
	views        map[string]ViewDefinition
	logger       *slog.Logger
}

func NewViewerService(tournaments TournamentService, participants ParticipantService, views map[string]ViewDefinition, logger *slog.Logger) ViewerService {
	if views == nil {
		views = DefaultViews()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &viewerService{tournaments: tournaments, participants: participants, views: views, logger: logger}
}

func (s *viewerService) TournamentPage(ctx context.Context, account models.Account, id int) (*TournamentViewBuild, error) {
	t, err := s.tournaments.GetTournament(ctx, account, id)
	if err != nil {
		return nil, err
	}
	build := BuildTournamentView(t)
	return &build, nil
}

func (s *viewerService) TournamentList(ctx context.Context, account models.Account, filter ListTournamentsFilter) (*TournamentList, error) {
	tournaments, err := s.tournaments.ListTournaments(ctx, account, filter)
	if err != nil {
		return nil, err
	}
	list := BuildTournamentList(account, tournaments, nil)
	return &list, nil
}

func (s *viewerService) RenderView(ctx context.Context, account models.Account, viewID string) (*BracketViewBuild, error) {
	view, ok := s.views[viewID]
	if !ok {
		return nil, ErrViewNotFound
	}

	filter := ListTournamentsFilter{Limit: view.Limit}
	if view.ActiveOnly {
		active := true
		filter.Active = &active
	}
	tournaments, err := s.tournaments.ListTournaments(ctx, account, filter)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(participantLoadConcurrency)
	for i := range tournaments {
		t := &tournaments[i]
		g.Go(func() error {
			return s.tournaments.LoadParticipants(gctx, t)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load participants for view %s: %w", viewID, err)
	}

	field := NewBracketField(view.ID, view.Options)
	build := &BracketViewBuild{
		View:      view,
		Rows:      make([]BracketFieldBuild, 0, len(tournaments)),
		Libraries: []string{LibraryViewsBracketViewer},
		Settings: ClientSettings{BracketManager: BracketManagerSettings{
			Views: map[string]map[string]BracketFieldSettings{view.ID: {}},
		}},
	}
	for i := range tournaments {
		row := field.Render(viewRowFor(&tournaments[i]))
		build.Rows = append(build.Rows, row)
		build.Settings.BracketManager.Views[view.ID][row.BracketID] = row.Settings
	}
	s.logger.DebugContext(ctx, "view rendered", slog.String("view_id", viewID), slog.Int("rows", len(build.Rows)))
	return build, nil
}

// viewRowFor exposes a tournament under the field names of the default view.
func viewRowFor(t *models.Tournament) ViewRow {
	return ViewRow{
		Entity: t,
		Fields: map[string]string{
			"title":                         t.Name,
			"field_tournament_participants": strings.Join(t.ParticipantNames(), "\n"),
			"field_bracket_data":            t.BracketData,
		},
		Values: map[string]string{
			"id":   fmt.Sprint(t.ID),
			"name": t.Name,
		},
	}
}
