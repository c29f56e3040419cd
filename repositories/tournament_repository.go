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
	ErrTournamentNotFound           = errors.New("tournament not found")
	ErrTournamentInvalidParticipant = errors.New("invalid participant reference")
)

type ListTournamentsFilter struct {
	Active *bool
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdateSnapshotKey(ctx context.Context, id int, key *string) error
	Delete(ctx context.Context, id int) error
	// ListIDsByParticipant returns the ids of the tournaments that reference
	// the participant, in ascending order.
	ListIDsByParticipant(ctx context.Context, participantID int) ([]int, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO tournaments (name, description, bracket_data, active)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, changed_at`

		err := tx.QueryRowContext(ctx, query,
			t.Name, t.Description, t.BracketData, t.Active,
		).Scan(&t.ID, &t.CreatedAt, &t.ChangedAt)
		if err != nil {
			return r.handleTournamentError(err)
		}
		return r.replaceReferences(ctx, tx, t.ID, t.ParticipantIDs)
	})
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `
		SELECT id, name, description, bracket_data, active, snapshot_key, created_at, changed_at
		FROM tournaments
		WHERE id = $1`

	t := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Description, &t.BracketData, &t.Active, &t.SnapshotKey, &t.CreatedAt, &t.ChangedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	refs, err := r.loadReferences(ctx, r.db, []int{t.ID})
	if err != nil {
		return nil, err
	}
	t.ParticipantIDs = refs[t.ID]
	if t.ParticipantIDs == nil {
		t.ParticipantIDs = []int{}
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `
		SELECT id, name, description, bracket_data, active, snapshot_key, created_at, changed_at
		FROM tournaments
		WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Active != nil {
		query += fmt.Sprintf(" AND active = $%d", argID)
		args = append(args, *filter.Active)
		argID++
	}

	query += " ORDER BY changed_at DESC, id DESC"

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
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	ids := make([]int, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID, &t.Name, &t.Description, &t.BracketData, &t.Active, &t.SnapshotKey, &t.CreatedAt, &t.ChangedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
		ids = append(ids, t.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return tournaments, nil
	}

	refs, err := r.loadReferences(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range tournaments {
		tournaments[i].ParticipantIDs = refs[tournaments[i].ID]
		if tournaments[i].ParticipantIDs == nil {
			tournaments[i].ParticipantIDs = []int{}
		}
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			UPDATE tournaments SET
				name = $1,
				description = $2,
				bracket_data = $3,
				active = $4,
				changed_at = NOW()
			WHERE id = $5
			RETURNING changed_at`

		err := tx.QueryRowContext(ctx, query,
			t.Name, t.Description, t.BracketData, t.Active, t.ID,
		).Scan(&t.ChangedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTournamentNotFound
			}
			return r.handleTournamentError(err)
		}
		return r.replaceReferences(ctx, tx, t.ID, t.ParticipantIDs)
	})
}

func (r *postgresTournamentRepository) UpdateSnapshotKey(ctx context.Context, id int, key *string) error {
	query := `UPDATE tournaments SET snapshot_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament snapshot key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListIDsByParticipant(ctx context.Context, participantID int) ([]int, error) {
	query := `
		SELECT DISTINCT tournament_id
		FROM tournament_participant_refs
		WHERE participant_id = $1
		ORDER BY tournament_id`

	rows, err := r.db.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments of participant %d: %w", participantID, err)
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tournament id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament id iteration: %w", err)
	}
	return ids, nil
}

// replaceReferences перезаписывает упорядоченный список участников турнира.
// Участники без турнира-владельца привязываются к этому турниру.
func (r *postgresTournamentRepository) replaceReferences(ctx context.Context, exec SQLExecutor, tournamentID int, participantIDs []int) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM tournament_participant_refs WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to clear participant references for tournament %d: %w", tournamentID, err)
	}
	if len(participantIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO tournament_participant_refs (tournament_id, participant_id, delta)
		SELECT $1, ref.participant_id, ref.delta - 1
		FROM unnest($2::int[]) WITH ORDINALITY AS ref(participant_id, delta)`
	if _, err := exec.ExecContext(ctx, query, tournamentID, pq.Array(participantIDs)); err != nil {
		return r.handleTournamentError(err)
	}

	claim := `UPDATE participants SET tournament_id = $1, changed_at = NOW() WHERE id = ANY($2) AND tournament_id IS NULL`
	if _, err := exec.ExecContext(ctx, claim, tournamentID, pq.Array(participantIDs)); err != nil {
		return fmt.Errorf("failed to attach participants to tournament %d: %w", tournamentID, err)
	}
	return nil
}

func (r *postgresTournamentRepository) loadReferences(ctx context.Context, exec SQLExecutor, tournamentIDs []int) (map[int][]int, error) {
	query := `
		SELECT tournament_id, participant_id
		FROM tournament_participant_refs
		WHERE tournament_id = ANY($1)
		ORDER BY tournament_id, delta`

	rows, err := exec.QueryContext(ctx, query, pq.Array(tournamentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load participant references: %w", err)
	}
	defer rows.Close()

	refs := make(map[int][]int, len(tournamentIDs))
	for rows.Next() {
		var tournamentID, participantID int
		if err := rows.Scan(&tournamentID, &participantID); err != nil {
			return nil, fmt.Errorf("failed to scan participant reference: %w", err)
		}
		refs[tournamentID] = append(refs[tournamentID], participantID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant reference iteration: %w", err)
	}
	return refs, nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23503" && pqErr.Constraint == "tournament_participant_refs_participant_id_fkey" {
			return ErrTournamentInvalidParticipant
		}
	}
	return err
}
