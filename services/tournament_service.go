package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Dosada05/bracket-manager/brackets"
	"github.com/Dosada05/bracket-manager/models"
	"github.com/Dosada05/bracket-manager/repositories"
)

// Broadcaster рассылает обновления открытым страницам просмотра.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

// TournamentInput is the body of the tournament add/edit form.
// On update a nil Active keeps the stored flag; every other field is replaced.
type TournamentInput struct {
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	BracketData    string  `json:"bracket_data"`
	Active         *bool   `json:"active,omitempty"`
	ParticipantIDs []int   `json:"participant_ids"`
}

type ListTournamentsFilter struct {
	Active *bool
	Limit  int
	Offset int
}

type TournamentService interface {
	CreateTournament(ctx context.Context, account models.Account, input TournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, account models.Account, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, account models.Account, filter ListTournamentsFilter) ([]models.Tournament, error)
	UpdateTournament(ctx context.Context, account models.Account, id int, input TournamentInput) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, account models.Account, id int) (*models.Tournament, error)
	// LoadParticipants fills t.Participants in seeding order.
	LoadParticipants(ctx context.Context, t *models.Tournament) error
	TournamentRefresher
}

type tournamentService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	snapshots       *SnapshotPublisher
	broadcaster     Broadcaster
	access          TournamentAccess
	logger          *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	snapshots *SnapshotPublisher,
	broadcaster Broadcaster,
	logger *slog.Logger,
) TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		snapshots:       snapshots,
		broadcaster:     broadcaster,
		logger:          logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, account models.Account, input TournamentInput) (*models.Tournament, error) {
	if err := requireAccess(s.access.CreateAccess(account)); err != nil {
		return nil, err
	}
	if err := validateTournamentInput(&input); err != nil {
		return nil, err
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}
	tournament := &models.Tournament{
		Name:           input.Name,
		Description:    input.Description,
		BracketData:    input.BracketData,
		Active:         active,
		ParticipantIDs: normalizeIDs(input.ParticipantIDs),
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	s.logger.InfoContext(ctx, "tournament created", slog.Int("tournament_id", tournament.ID), slog.Int("user_id", account.UserID))

	if err := s.LoadParticipants(ctx, tournament); err != nil {
		return nil, err
	}
	s.afterSave(ctx, tournament)
	return tournament, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, account models.Account, id int) (*models.Tournament, error) {
	if err := requireAccess(s.access.Access(account, OpView)); err != nil {
		return nil, err
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if err := s.LoadParticipants(ctx, tournament); err != nil {
		return nil, err
	}
	s.snapshots.populateURL(tournament)
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, account models.Account, filter ListTournamentsFilter) ([]models.Tournament, error) {
	if err := requireAccess(s.access.Access(account, OpView)); err != nil {
		return nil, err
	}
	tournaments, err := s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{
		Active: filter.Active,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for i := range tournaments {
		s.snapshots.populateURL(&tournaments[i])
	}
	return tournaments, nil
}

func (s *tournamentService) UpdateTournament(ctx context.Context, account models.Account, id int, input TournamentInput) (*models.Tournament, error) {
	if err := requireAccess(s.access.Access(account, OpUpdate)); err != nil {
		return nil, err
	}
	if err := validateTournamentInput(&input); err != nil {
		return nil, err
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}

	tournament.Name = input.Name
	tournament.Description = input.Description
	tournament.BracketData = input.BracketData
	if input.Active != nil {
		tournament.Active = *input.Active
	}
	tournament.ParticipantIDs = normalizeIDs(input.ParticipantIDs)

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	s.logger.InfoContext(ctx, "tournament updated", slog.Int("tournament_id", tournament.ID), slog.Int("user_id", account.UserID))

	if err := s.LoadParticipants(ctx, tournament); err != nil {
		return nil, err
	}
	s.afterSave(ctx, tournament)
	return tournament, nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, account models.Account, id int) (*models.Tournament, error) {
	if err := requireAccess(s.access.Access(account, OpDelete)); err != nil {
		return nil, err
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	s.logger.InfoContext(ctx, "tournament deleted", slog.Int("tournament_id", id), slog.Int("user_id", account.UserID))

	s.snapshots.Remove(ctx, tournament)
	if s.broadcaster != nil {
		room := brackets.RoomForTournament(id)
		s.broadcaster.BroadcastToRoom(room, brackets.WebSocketMessage{
			Type:    brackets.MessageTournamentDeleted,
			Payload: map[string]int{"id": id},
			RoomID:  room,
		})
	}
	return tournament, nil
}

func (s *tournamentService) LoadParticipants(ctx context.Context, t *models.Tournament) error {
	loaded, err := s.participantRepo.GetByIDs(ctx, t.ParticipantIDs)
	if err != nil {
		return fmt.Errorf("failed to load participants of tournament %d: %w", t.ID, err)
	}
	t.Participants = OrderParticipants(t.ParticipantIDs, loaded)
	return nil
}

func (s *tournamentService) TournamentsReferencing(ctx context.Context, participantID int) ([]int, error) {
	ids, err := s.tournamentRepo.ListIDsByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to find tournaments of participant %d: %w", participantID, err)
	}
	return ids, nil
}

// Refresh перечитывает турниры и заново публикует их снимки и настройки.
func (s *tournamentService) Refresh(ctx context.Context, tournamentIDs []int) {
	for _, id := range tournamentIDs {
		t, err := s.tournamentRepo.GetByID(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to reload tournament", slog.Int("tournament_id", id), slog.Any("error", err))
			continue
		}
		if err := s.LoadParticipants(ctx, t); err != nil {
			s.logger.WarnContext(ctx, "failed to reload tournament participants", slog.Int("tournament_id", id), slog.Any("error", err))
			continue
		}
		s.afterSave(ctx, t)
	}
}

// afterSave публикует снимок сетки и уведомляет открытые страницы.
// Ошибки здесь не отменяют сохранение.
func (s *tournamentService) afterSave(ctx context.Context, t *models.Tournament) {
	s.snapshots.Publish(ctx, t)
	if s.broadcaster == nil {
		return
	}
	room := brackets.RoomForTournament(t.ID)
	s.broadcaster.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    brackets.MessageTournamentUpdated,
		Payload: BuildTournamentViewerSettings(t),
		RoomID:  room,
	})
}

func validateTournamentInput(input *TournamentInput) error {
	errs := ValidationErrors{}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		errs["name"] = "Title field is required."
	} else if utf8.RuneCountInString(input.Name) > models.MaxLabelLength {
		errs["name"] = fmt.Sprintf("Title cannot be longer than %d characters.", models.MaxLabelLength)
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) == "" {
		input.Description = nil
	}
	for _, id := range input.ParticipantIDs {
		if id <= 0 {
			errs["participant_ids"] = "Participant references must be positive ids."
			break
		}
	}
	return errs.orNil()
}

func normalizeIDs(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

func mapTournamentRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTournamentInvalidParticipant):
		return ErrTournamentInvalidParticipant
	default:
		return err
	}
}
