package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Dosada05/bracket-manager/models"
	"github.com/Dosada05/bracket-manager/repositories"
)

// QuickCreateNotice is shown in the modal after a participant was added.
const QuickCreateNotice = "Participant created. Use autocomplete to select it."

type ParticipantInput struct {
	Name         string `json:"name"`
	TournamentID *int   `json:"tournament_id,omitempty"`
	Weight       int    `json:"weight"`
}

// QuickParticipantInput is the participant modal form. A nil Seeding counts as 0.
type QuickParticipantInput struct {
	Name         string `json:"name"`
	Seeding      *int   `json:"seeding,omitempty"`
	TournamentID *int   `json:"tournament_id,omitempty"`
}

type QuickParticipantResult struct {
	Participant *models.Participant `json:"participant"`
	OptionHTML  string              `json:"option_html"`
	Message     string              `json:"message"`
}

type ListParticipantsFilter struct {
	TournamentID *int
	Limit        int
	Offset       int
}

type ParticipantService interface {
	CreateParticipant(ctx context.Context, account models.Account, input ParticipantInput) (*models.Participant, error)
	GetParticipant(ctx context.Context, account models.Account, id int) (*models.Participant, error)
	ListParticipants(ctx context.Context, account models.Account, filter ListParticipantsFilter) ([]models.Participant, error)
	UpdateParticipant(ctx context.Context, account models.Account, id int, input ParticipantInput) (*models.Participant, error)
	DeleteParticipant(ctx context.Context, account models.Account, id int) (*models.Participant, error)
	QuickCreate(ctx context.Context, account models.Account, input QuickParticipantInput) (*QuickParticipantResult, error)
	// SelectableParticipants lists the options of the participants widget of
	// the tournament form.
	SelectableParticipants(ctx context.Context, account models.Account) ([]models.Participant, error)
	// NamesByIDs returns the names of the given participants in the given order.
	NamesByIDs(ctx context.Context, ids []int) ([]string, error)
}

// TournamentRefresher republishes the brackets of the tournaments that list
// an edited participant.
type TournamentRefresher interface {
	TournamentsReferencing(ctx context.Context, participantID int) ([]int, error)
	Refresh(ctx context.Context, tournamentIDs []int)
}

type participantService struct {
	participantRepo repositories.ParticipantRepository
	refresher       TournamentRefresher
	access          ParticipantAccess
	logger          *slog.Logger
}

// NewParticipantService accepts a nil refresher.
func NewParticipantService(participantRepo repositories.ParticipantRepository, refresher TournamentRefresher, logger *slog.Logger) ParticipantService {
	if logger == nil {
		logger = slog.Default()
	}
	return &participantService{participantRepo: participantRepo, refresher: refresher, logger: logger}
}

func (s *participantService) CreateParticipant(ctx context.Context, account models.Account, input ParticipantInput) (*models.Participant, error) {
	if err := requireAccess(s.access.CreateAccess(account)); err != nil {
		return nil, err
	}
	if err := validateParticipantInput(&input); err != nil {
		return nil, err
	}
	p := &models.Participant{Name: input.Name, TournamentID: input.TournamentID, Weight: input.Weight}
	if err := s.participantRepo.Create(ctx, p); err != nil {
		return nil, mapParticipantRepoError(err)
	}
	s.logger.InfoContext(ctx, "participant created", slog.Int("participant_id", p.ID), slog.Int("user_id", account.UserID))
	return p, nil
}

func (s *participantService) GetParticipant(ctx context.Context, account models.Account, id int) (*models.Participant, error) {
	if err := requireAccess(s.access.Access(account, OpView)); err != nil {
		return nil, err
	}
	p, err := s.participantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapParticipantRepoError(err)
	}
	return p, nil
}

func (s *participantService) ListParticipants(ctx context.Context, account models.Account, filter ListParticipantsFilter) ([]models.Participant, error) {
	if err := requireAccess(s.access.Access(account, OpView)); err != nil {
		return nil, err
	}
	list, err := s.participantRepo.List(ctx, repositories.ListParticipantsFilter{
		TournamentID: filter.TournamentID,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return list, nil
}

func (s *participantService) UpdateParticipant(ctx context.Context, account models.Account, id int, input ParticipantInput) (*models.Participant, error) {
	if err := requireAccess(s.access.Access(account, OpUpdate)); err != nil {
		return nil, err
	}
	if err := validateParticipantInput(&input); err != nil {
		return nil, err
	}
	p, err := s.participantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapParticipantRepoError(err)
	}
	p.Name = input.Name
	p.TournamentID = input.TournamentID
	p.Weight = input.Weight
	if err := s.participantRepo.Update(ctx, p); err != nil {
		return nil, mapParticipantRepoError(err)
	}
	s.logger.InfoContext(ctx, "participant updated", slog.Int("participant_id", p.ID), slog.Int("user_id", account.UserID))
	s.refreshTournaments(ctx, s.referencingTournaments(ctx, p.ID))
	return p, nil
}

func (s *participantService) DeleteParticipant(ctx context.Context, account models.Account, id int) (*models.Participant, error) {
	if err := requireAccess(s.access.Access(account, OpDelete)); err != nil {
		return nil, err
	}
	p, err := s.participantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapParticipantRepoError(err)
	}
	// После удаления ссылки уже не найти.
	affected := s.referencingTournaments(ctx, id)
	if err := s.participantRepo.Delete(ctx, id); err != nil {
		return nil, mapParticipantRepoError(err)
	}
	s.logger.InfoContext(ctx, "participant deleted", slog.Int("participant_id", id), slog.Int("user_id", account.UserID))
	s.refreshTournaments(ctx, affected)
	return p, nil
}

func (s *participantService) QuickCreate(ctx context.Context, account models.Account, input QuickParticipantInput) (*QuickParticipantResult, error) {
	if err := requireAccess(s.access.QuickCreateAccess(account)); err != nil {
		return nil, err
	}

	errs := ValidationErrors{}
	weight := 0
	if input.Seeding != nil {
		weight = *input.Seeding
		if weight < 0 {
			errs["seeding"] = "Seeding must be higher than or equal to 0."
		}
	}
	participantInput := ParticipantInput{Name: input.Name, TournamentID: input.TournamentID, Weight: weight}
	if err := validateParticipantInput(&participantInput); err != nil {
		var verrs ValidationErrors
		if errors.As(err, &verrs) {
			for k, v := range verrs {
				errs[k] = v
			}
		}
	}
	if err := errs.orNil(); err != nil {
		return nil, err
	}

	p := &models.Participant{Name: participantInput.Name, TournamentID: participantInput.TournamentID, Weight: weight}
	if err := s.participantRepo.Create(ctx, p); err != nil {
		return nil, mapParticipantRepoError(err)
	}
	s.logger.InfoContext(ctx, "participant created from modal", slog.Int("participant_id", p.ID), slog.Int("user_id", account.UserID))

	return &QuickParticipantResult{
		Participant: p,
		OptionHTML:  ParticipantOptionHTML(p),
		Message:     QuickCreateNotice,
	}, nil
}

func (s *participantService) SelectableParticipants(ctx context.Context, account models.Account) ([]models.Participant, error) {
	access := TournamentAccess{}
	if !access.CreateAccess(account).IsAllowed() && !access.Access(account, OpUpdate).IsAllowed() {
		return nil, ErrForbiddenOperation
	}
	list, err := s.participantRepo.List(ctx, repositories.ListParticipantsFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return list, nil
}

func (s *participantService) NamesByIDs(ctx context.Context, ids []int) ([]string, error) {
	loaded, err := s.participantRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	byID := make(map[int]string, len(loaded))
	for _, p := range loaded {
		byID[p.ID] = p.Name
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok && name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *participantService) referencingTournaments(ctx context.Context, participantID int) []int {
	if s.refresher == nil {
		return nil
	}
	ids, err := s.refresher.TournamentsReferencing(ctx, participantID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to find tournaments of participant", slog.Int("participant_id", participantID), slog.Any("error", err))
		return nil
	}
	return ids
}

func (s *participantService) refreshTournaments(ctx context.Context, tournamentIDs []int) {
	if s.refresher == nil || len(tournamentIDs) == 0 {
		return
	}
	s.refresher.Refresh(ctx, tournamentIDs)
}

// ParticipantOptionHTML renders the selected <option> appended to the
// participants widget after a quick create.
func ParticipantOptionHTML(p *models.Participant) string {
	return fmt.Sprintf(`<option value="%d" selected="selected">%s</option>`, p.ID, html.EscapeString(p.Label()))
}

func validateParticipantInput(input *ParticipantInput) error {
	errs := ValidationErrors{}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		errs["name"] = "Name field is required."
	} else if utf8.RuneCountInString(input.Name) > models.MaxLabelLength {
		errs["name"] = fmt.Sprintf("Name cannot be longer than %d characters.", models.MaxLabelLength)
	}
	if input.TournamentID != nil && *input.TournamentID <= 0 {
		input.TournamentID = nil
	}
	return errs.orNil()
}

func mapParticipantRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrParticipantNotFound):
		return ErrParticipantNotFound
	case errors.Is(err, repositories.ErrParticipantTournamentInvalid):
		return ErrParticipantInvalidTournament
	default:
		return err
	}
}
