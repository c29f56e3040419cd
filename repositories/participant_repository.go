package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-manager/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound          = errors.New("participant not found")
	ErrParticipantTournamentInvalid = errors.New("participant tournament conflict or invalid")
)

type ListParticipantsFilter struct {
	TournamentID *int
	Limit        int
	Offset       int
}

type ParticipantRepository interface {
	Create(ctx context.Context, p *models.Participant) error
	GetByID(ctx context.Context, id int) (*models.Participant, error)
	// GetByIDs возвращает найденных участников в произвольном порядке; отсутствующие ID пропускаются.
	GetByIDs(ctx context.Context, ids []int) ([]models.Participant, error)
	List(ctx context.Context, filter ListParticipantsFilter) ([]models.Participant, error)
	Update(ctx context.Context, p *models.Participant) error
	Delete(ctx context.Context, id int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (name, tournament_id, weight)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, changed_at`

	err := r.db.QueryRowContext(ctx, query, p.Name, p.TournamentID, p.Weight).
		Scan(&p.ID, &p.CreatedAt, &p.ChangedAt)
	if err != nil {
		return r.handleParticipantError(err, "failed to create participant")
	}
	return nil
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	query := `
		SELECT id, name, tournament_id, weight, created_at, changed_at
		FROM participants
		WHERE id = $1`

	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.TournamentID, &p.Weight, &p.CreatedAt, &p.ChangedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) GetByIDs(ctx context.Context, ids []int) ([]models.Participant, error) {
	if len(ids) == 0 {
		return []models.Participant{}, nil
	}
	query := `
		SELECT id, name, tournament_id, weight, created_at, changed_at
		FROM participants
		WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query participants by ids: %w", err)
	}
	defer rows.Close()
	return scanParticipants(rows)
}

func (r *postgresParticipantRepository) List(ctx context.Context, filter ListParticipantsFilter) ([]models.Participant, error) {
	query := `
		SELECT id, name, tournament_id, weight, created_at, changed_at
		FROM participants
		WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.TournamentID != nil {
		query += fmt.Sprintf(" AND tournament_id = $%d", argID)
		args = append(args, *filter.TournamentID)
		argID++
	}

	query += " ORDER BY weight ASC, id ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()
	return scanParticipants(rows)
}

func (r *postgresParticipantRepository) Update(ctx context.Context, p *models.Participant) error {
	query := `
		UPDATE participants SET
			name = $1,
			tournament_id = $2,
			weight = $3,
			changed_at = NOW()
		WHERE id = $4
		RETURNING changed_at`

	err := r.db.QueryRowContext(ctx, query, p.Name, p.TournamentID, p.Weight, p.ID).Scan(&p.ChangedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrParticipantNotFound
		}
		return r.handleParticipantError(err, "failed to update participant")
	}
	return nil
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return r.handleParticipantError(err, "failed to delete participant")
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func scanParticipants(rows *sql.Rows) ([]models.Participant, error) {
	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.TournamentID, &p.Weight, &p.CreatedAt, &p.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant rows iteration: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) handleParticipantError(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" && pqErr.Constraint == "participants_tournament_id_fkey" {
		return ErrParticipantTournamentInvalid
	}
	return fmt.Errorf("%s: %w", msg, err)
}
